// Package receiver drives the frame admission step against a byte source.
//
// Ownership boundary:
// - poll cadence and draining
// - reset after valid and invalid packets
// - resynchronization after an invalid packet (wait for line silence)
// - stale partial packets (no byte for MinInterPacketDelay)
// - receiver statistics and metrics
//
// The frame package never resets or times anything; every such policy lives here.
package receiver
