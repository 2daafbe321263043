package protocol

import "errors"

var (
	ErrPacketTooLarge = errors.New("protocol: packet too large")
	ErrPacketTooShort = errors.New("protocol: packet shorter than header")
	ErrLengthMismatch = errors.New("protocol: buffer length does not match declared length")
	ErrInvalidLimits  = errors.New("protocol: invalid limits")
	ErrNoByte         = errors.New("protocol: no byte available")
)
