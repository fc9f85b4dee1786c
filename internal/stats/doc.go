// Package stats reduces the event log into the snapshot pushed to subscribers.
//
// One Service serves both snapshot shapes; a Strategy selects between the raw
// tally (total + recent arrivals) and the smoothed rate curve. The log is re-read
// and the snapshot recomputed from scratch on every call.
package stats
