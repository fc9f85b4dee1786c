// Package audit writes one JSON line per ingestion attempt.
//
// The trail lives in <dir>/audit.jsonl and is rotated by size. It is append-only
// and independent of the event log: rejected and rate-limited submissions are
// recorded here even though they never reach the store.
package audit
