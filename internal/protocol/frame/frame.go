package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/pktframe/internal/protocol"
)

const (
	// MaxPacketSize is the default capacity of a Buffer and the largest
	// declared length a well-formed packet may carry.
	MaxPacketSize = 256

	// MinInterPacketDelay is the suggested line silence between packets.
	// Nothing in this package enforces it.
	MinInterPacketDelay = 100000 * time.Microsecond

	LengthFieldLen = 2
	HeaderLen      = 3
)

// Limits constrains buffer capacity and carries the inter-packet timing hint.
type Limits struct {
	MaxPacketSize       int
	MinInterPacketDelay time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxPacketSize:       MaxPacketSize,
		MinInterPacketDelay: MinInterPacketDelay,
	}
}

// Validate reports whether l can back a Buffer. The capacity must hold at
// least the length field and fit the 16-bit length.
func (l Limits) Validate() error {
	if l.MaxPacketSize < LengthFieldLen || l.MaxPacketSize > math.MaxUint16 {
		return fmt.Errorf("%w: max_packet_size=%d (want %d..%d)",
			protocol.ErrInvalidLimits, l.MaxPacketSize, LengthFieldLen, math.MaxUint16)
	}
	if l.MinInterPacketDelay < 0 {
		return fmt.Errorf("%w: min_inter_packet_delay=%v", protocol.ErrInvalidLimits, l.MinInterPacketDelay)
	}
	return nil
}

func (l Limits) capacity() int {
	if l.MaxPacketSize <= 0 {
		return MaxPacketSize
	}
	if l.MaxPacketSize > math.MaxUint16 {
		return math.MaxUint16
	}
	return l.MaxPacketSize
}
