// Package persistence keeps the working graph in a single named slot so it
// survives restarts.
//
// A Slot stores one opaque byte payload (the JSON document produced by
// package document). Backends:
//
//   - SQLiteSlot: a row of the slots table in the project database (default)
//   - FileSlot: a file replaced atomically on every save
//   - S3Slot: an object in an S3-compatible bucket
//   - MemorySlot: process memory, for tests and ephemeral runs
//
// Compressed wraps any Slot with snappy compression.
//
// The Autosaver listens to editor commit events and writes the current
// graph after a short debounce. Save failures are logged and counted but
// never reach the editing caller.
package persistence
