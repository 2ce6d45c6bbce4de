// Package workflow drives a task through the fixed stage sequence and exposes
// the task-level service used by the CLI and the HTTP API.
//
// Pipeline.Run executes every stage that is not yet in the task's completed
// log, in order, persisting the task document after every attempt. A stage is
// recorded as complete only after its handler returns nil, so re-running a
// task after a failure resumes at the first incomplete stage. Observers see a
// StageEvent for every attempt and skip; the sqlite status index is kept
// current this way.
//
// Service owns the collaborators built from configuration (credential ring,
// generation pool, script writer, speech client, ffmpeg) and serializes runs
// per task with a file lock in the task directory.
package workflow
