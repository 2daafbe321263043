// Package protocol owns the serial packet wire contract.
//
// Ownership boundary:
// - frame: packet buffer, header decoding, byte admission step, codec
// - source: byte sources feeding the admission step (queue, reader pump, serial)
// - shared sentinel errors
//
// Wire format (big-endian, no delimiters):
//
//	offset 0, 2 bytes: total packet length, header included
//	offset 2, 1 byte:  packet type
//	offset 3..:        payload
package protocol
