// Package cli provides the interactive photoqueue command-line client.
//
// It wires configuration, the local upload queue, the photo API client, and
// an interactive REPL that drives the upload pipeline. Typical flow: paste
// API tokens at login, select a wedding, add photo files, and watch them
// move through the queue.
//
// Key features:
//   - Login / Logout (token entry without echo; logout wipes the local queue)
//   - Add photos to the queue, encrypted when the wedding's keys are set
//   - List queued uploads and show the overall progress summary
//   - Pause / Resume / Cancel / Retry individual uploads
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and Root for details.
package cli
