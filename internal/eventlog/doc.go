// Package eventlog implements the append-only visitor event log.
//
// The log is a collaborator of the statistics engine: it only needs to append one
// event and to return every event at or before a given instant, in timestamp order.
// Backends: CSV file (the canonical `timestamp,group_size` format), SQLite, Redis
// list and an in-memory log for tests and ephemeral runs.
package eventlog
