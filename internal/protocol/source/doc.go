// Package source provides byte sources for the frame admission step.
//
// Ownership boundary:
// - in-memory queue for fixtures and captured traffic
// - reader pump turning a blocking io.Reader into a non-blocking source
// - serial port and replay file openers, with reconnect backoff
//
// A Pump has a single consumer. Available and ReadByte must be called from
// the goroutine that drives the admission step.
package source
