// Package main hosts the reelgen CLI entrypoint and command graph.
//
// The Cobra command tree drives the task workflow in-process: creating tasks
// and attaching images, running or resuming the stage pipeline, inspecting
// task documents and the status index, and serving the HTTP API. It also
// owns configuration scaffolding and the doctor readiness report.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here through commands or flags.
package main
