package frame

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/danmuck/pktframe/internal/protocol"
)

// Header is the fixed 3-byte wire header.
type Header struct {
	Length uint16
	Type   uint8
}

// Packet is one decoded packet. Payload excludes the header.
type Packet struct {
	Type    uint8
	Payload []byte
}

// Len is the total wire length of p.
func (p Packet) Len() int {
	return HeaderLen + len(p.Payload)
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.Length)
	buf[2] = h.Type
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: %d bytes (need %d)", protocol.ErrPacketTooShort, len(b), HeaderLen)
	}
	return Header{
		Length: binary.BigEndian.Uint16(b[0:2]),
		Type:   b[2],
	}, nil
}

// Encode serializes p into its wire form.
func Encode(p Packet, limits Limits) ([]byte, error) {
	total := p.Len()
	if limit := limits.capacity(); total > limit {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", protocol.ErrPacketTooLarge, total, limit)
	}
	buf := make([]byte, total)
	copy(buf, EncodeHeader(Header{Length: uint16(total), Type: p.Type}))
	copy(buf[HeaderLen:], p.Payload)
	return buf, nil
}

// WritePacket encodes p and writes it to w in a single Write.
func WritePacket(w io.Writer, p Packet, limits Limits) error {
	buf, err := Encode(p, limits)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// Packet decodes a complete buffer. The payload is copied, so the result
// survives Reset.
func (b *Buffer) Packet() (Packet, error) {
	if !b.Complete() {
		length, _ := b.DeclaredLength()
		return Packet{}, fmt.Errorf("%w: have %d, declared %d", protocol.ErrLengthMismatch, b.size, length)
	}
	h, err := DecodeHeader(b.Bytes())
	if err != nil {
		return Packet{}, err
	}
	payload := make([]byte, b.size-HeaderLen)
	copy(payload, b.body[HeaderLen:b.size])
	return Packet{Type: h.Type, Payload: payload}, nil
}
