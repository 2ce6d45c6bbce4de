// Package api serves the task workflow over HTTP and defines the wire-format
// types it returns.
//
// # Routes
//
//	GET  /health                  stage readiness and binary availability
//	POST /api/tasks               create a task from multipart "options" + "images"
//	GET  /api/tasks               list tasks from the status index
//	GET  /api/tasks/{id}          task document and progress
//	POST /api/tasks/{id}/run      start (or resume) the pipeline
//	GET  /api/tasks/{id}/final    download the composed reel
//
// Everything under /api requires a bearer token when one is configured.
//
// # Design Notes
//
// Pipeline runs outlive the request that started them: they use the server
// base context, which Shutdown cancels before waiting for runs to stop. A
// cancelled run fails its current stage and is resumed by the next run.
//
// Errors are mapped from their services classification to HTTP status codes
// in one place (statusForError). Timestamps use RFC3339 with milliseconds.
package api
