// Package logs reads the JSON log file written by the reelgen logger.
//
// Tail returns the newest lines, optionally restricted to a single task, and
// Follow polls the file for lines appended after a known offset. Both treat a
// missing file as empty so the CLI works before the first run.
package logs
