// Package broadcast owns the live subscriber set and fans messages out to it.
//
// Each subscriber moves through CONNECTING, CONNECTED and one of the two
// disconnected states. Only CONNECTED subscribers receive Publish traffic, and a
// subscriber whose send fails is removed exactly once. Publish iterates over a
// copy of the set, so subscribers may join or leave while a fan-out is running.
package broadcast
