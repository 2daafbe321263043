package frame

import "encoding/binary"

// Buffer accumulates the bytes of the one packet currently being assembled.
// The zero value has no capacity and drops every byte; use NewBuffer.
type Buffer struct {
	body []byte
	size int
}

// NewBuffer returns an empty buffer with capacity limits.MaxPacketSize.
// A non-positive MaxPacketSize selects the default capacity.
func NewBuffer(limits Limits) *Buffer {
	return &Buffer{body: make([]byte, limits.capacity())}
}

// DeclaredLength returns the big-endian total length from the first two
// bytes. ok is false until two bytes are stored.
func (b *Buffer) DeclaredLength() (length uint16, ok bool) {
	if b.size < LengthFieldLen {
		return 0, false
	}
	return binary.BigEndian.Uint16(b.body[0:LengthFieldLen]), true
}

// DeclaredType returns the third stored byte. ok is false until three bytes
// are stored.
func (b *Buffer) DeclaredType() (typ uint8, ok bool) {
	if b.size < HeaderLen {
		return 0, false
	}
	return b.body[2], true
}

// IsOversized reports whether more bytes are stored than the header
// declares. It is false while the length is unknown.
func (b *Buffer) IsOversized() bool {
	length, ok := b.DeclaredLength()
	if !ok {
		return false
	}
	return b.size > int(length)
}

// Complete reports whether the stored size equals the declared length.
func (b *Buffer) Complete() bool {
	length, ok := b.DeclaredLength()
	return ok && b.size == int(length)
}

// Append stores c if there is room. A full buffer drops it silently.
func (b *Buffer) Append(c byte) {
	if b.size >= len(b.body) {
		return
	}
	b.body[b.size] = c
	b.size++
}

// Reset empties the buffer. Previous contents are not zeroed.
func (b *Buffer) Reset() {
	b.size = 0
}

func (b *Buffer) Len() int {
	return b.size
}

func (b *Buffer) Cap() int {
	return len(b.body)
}

// Bytes returns a view of the stored bytes. It is only valid until the
// next Append or Reset.
func (b *Buffer) Bytes() []byte {
	return b.body[:b.size:b.size]
}
