package frame

// ByteSource is the capability the admission step consumes. ReadByte is only
// called after Available has reported true.
type ByteSource interface {
	Available() bool
	ReadByte() (byte, error)
}

// Result classifies the buffer after one admission step.
type Result int

const (
	// Waiting: no byte was available and nothing changed.
	Waiting Result = iota
	// Reading: a byte was stored and the packet is not complete yet.
	Reading
	// Valid: the stored size equals the declared length.
	Valid
	// Invalid: the buffer already held more bytes than declared. The byte
	// just read was consumed and dropped.
	Invalid
)

func (r Result) String() string {
	switch r {
	case Waiting:
		return "waiting"
	case Reading:
		return "reading"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Terminal reports whether the caller must consume or discard the buffer
// and Reset it before the next packet.
func (r Result) Terminal() bool {
	return r == Valid || r == Invalid
}

// Poll admits at most one byte from src into buf and classifies the result.
//
// The oversize check runs against the size before the new byte is appended,
// so a rejected byte has already been consumed from src. Poll never resets
// buf. The returned error is only a source read failure; buf is untouched
// and the result is Waiting in that case.
func Poll(buf *Buffer, src ByteSource) (Result, error) {
	if !src.Available() {
		return Waiting, nil
	}

	c, err := src.ReadByte()
	if err != nil {
		return Waiting, err
	}

	if buf.IsOversized() {
		return Invalid, nil
	}

	buf.Append(c)

	if !buf.Complete() {
		return Reading, nil
	}
	return Valid, nil
}
