// Package queue implements the generation job model and its storage.
//
// A job moves through a closed state machine: QUEUED is the initial state,
// PROCESSING is held by exactly one worker, and COMPLETED, FAILED, CANCELLED
// and EXPIRED are absorbing. The Store interface guards every transition with
// conditional updates so that racing workers cannot double-claim a job or
// overwrite a terminal outcome. Two backends are provided: a durable SQLite
// store and an in-memory store for tests.
package queue
