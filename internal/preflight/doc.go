// Package preflight provides readiness checks for the filesystem paths,
// binaries and upstream services Reelgen depends on.
//
// The CLI "reelgen doctor" command runs RunAll and CheckSystemDeps and
// renders the results; the HTTP API reuses CheckSystemDeps for /health.
// Checks never fail a task on their own.
package preflight
