// Package queue persists a status index of reel tasks in SQLite.
//
// The index is a read model: the task document under the data directory stays
// the source of truth for resume, and the workflow updates the index after
// every stage attempt so `reelgen task list` and the HTTP API can answer
// without walking every task directory. It is never used to schedule work.
//
// Schema changes bump schemaVersion in schema.go; users delete tasks.db to
// adopt the new schema. The index can be rebuilt from the task documents.
package queue
