// Package control exposes the sync runner over HTTP.
//
// Routes:
//   - GET  /status           current run, phase and last result
//   - POST /runs             start a run ({"config": "...", "dry_run": true})
//   - GET  /runs/transcript  transcript of the current or last run
//
// Starting a run while one is in flight answers 409 Conflict.
package control
