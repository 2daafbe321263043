package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/pktframe/internal/protocol"
	"github.com/danmuck/pktframe/internal/testutil/testlog"
)

func TestEncodeAssembleRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Packet{Type: 0x07, Payload: []byte("ping over serial")}
	wire, err := Encode(in, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(wire) != in.Len() {
		t.Fatalf("wire len got=%d want=%d", len(wire), in.Len())
	}

	buf := NewBuffer(DefaultLimits())
	src := newFeed(wire...)
	var last Result
	for src.Available() {
		r, err := Poll(buf, src)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		last = r
	}
	if last != Valid {
		t.Fatalf("last result got=%v", last)
	}
	if !bytes.Equal(buf.Bytes(), wire) {
		t.Fatalf("reserialized got=%x want=%x", buf.Bytes(), wire)
	}

	out, err := buf.Packet()
	if err != nil {
		t.Fatalf("packet: %v", err)
	}
	buf.Reset()
	if out.Type != in.Type || !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("packet mismatch: got=%+v want=%+v", out, in)
	}
}

func TestEncodeRejectsOversizedPacket(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(Packet{Type: 1, Payload: make([]byte, MaxPacketSize-HeaderLen+1)}, DefaultLimits())
	if !errors.Is(err, protocol.ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
	if _, err := Encode(Packet{Type: 1, Payload: make([]byte, MaxPacketSize-HeaderLen)}, DefaultLimits()); err != nil {
		t.Fatalf("max-size packet rejected: %v", err)
	}
}

func TestWritePacket(t *testing.T) {
	var out bytes.Buffer
	if err := WritePacket(&out, Packet{Type: 0x01, Payload: []byte{0xAA, 0xBB}}, DefaultLimits()); err != nil {
		t.Fatalf("write packet: %v", err)
	}
	want := []byte{0x00, 0x05, 0x01, 0xAA, 0xBB}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("wire got=%x want=%x", out.Bytes(), want)
	}
}

func TestDecodeHeader(t *testing.T) {
	h, err := DecodeHeader([]byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Length != 0x0102 || h.Type != 0x03 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if _, err := DecodeHeader([]byte{0x00, 0x03}); !errors.Is(err, protocol.ErrPacketTooShort) {
		t.Fatalf("expected ErrPacketTooShort, got %v", err)
	}
	if !bytes.Equal(EncodeHeader(h), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("encode header mismatch")
	}
}

func TestBufferPacketRequiresCompleteBuffer(t *testing.T) {
	testlog.Start(t)
	buf := NewBuffer(DefaultLimits())
	buf.Append(0x00)
	buf.Append(0x05)
	buf.Append(0x01)
	if _, err := buf.Packet(); !errors.Is(err, protocol.ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}

	two := NewBuffer(DefaultLimits())
	two.Append(0x00)
	two.Append(0x02)
	if !two.Complete() {
		t.Fatalf("2-byte packet should be complete")
	}
	if _, err := two.Packet(); !errors.Is(err, protocol.ErrPacketTooShort) {
		t.Fatalf("expected ErrPacketTooShort, got %v", err)
	}
}
