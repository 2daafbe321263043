package receiver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danmuck/pktframe/internal/observability"
	"github.com/danmuck/pktframe/internal/protocol/frame"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNilSource = errors.New("receiver: nil byte source")

// Handler receives each valid packet. The payload is owned by the handler.
type Handler func(frame.Packet)

// Config defines receiver policy.
type Config struct {
	// Name labels logs and metrics, usually the port or capture name.
	Name         string
	Limits       frame.Limits
	PollInterval time.Duration
	// RejectOverlongHeader classifies a header declaring more than
	// Limits.MaxPacketSize as invalid as soon as it is known, since such a
	// packet can never complete.
	RejectOverlongHeader bool
}

func DefaultConfig() Config {
	return Config{
		Name:                 "serial",
		Limits:               frame.DefaultLimits(),
		PollInterval:         time.Millisecond,
		RejectOverlongHeader: true,
	}
}

// Stats is a point-in-time copy of the receiver counters.
type Stats struct {
	BytesRead    uint64    `json:"bytes_read"`
	Valid        uint64    `json:"valid"`
	Invalid      uint64    `json:"invalid"`
	Stale        uint64    `json:"stale"`
	Dropped      uint64    `json:"dropped"`
	Pending      int       `json:"pending"`
	Resyncing    bool      `json:"resyncing"`
	LastPacketAt time.Time `json:"last_packet_at"`
}

type Receiver struct {
	src     frame.ByteSource
	cfg     Config
	handler Handler
	buf     *frame.Buffer
	logger  zerolog.Logger

	resyncing  bool
	lastByteAt time.Time

	bytesRead    atomic.Uint64
	valid        atomic.Uint64
	invalid      atomic.Uint64
	stale        atomic.Uint64
	dropped      atomic.Uint64
	pending      atomic.Int64
	resyncFlag   atomic.Bool
	lastPacketAt atomic.Int64
}

func New(src frame.ByteSource, cfg Config, handler Handler) (*Receiver, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("receiver %s: %w", cfg.Name, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	observability.RegisterMetrics()
	return &Receiver{
		src:     src,
		cfg:     cfg,
		handler: handler,
		buf:     frame.NewBuffer(cfg.Limits),
		logger:  log.Logger.With().Str("component", "receiver").Str("source", cfg.Name).Logger(),
	}, nil
}

// Step runs one admission step at time now. While resynchronizing it drains
// every available byte instead and reports Waiting.
func (r *Receiver) Step(now time.Time) (frame.Result, error) {
	defer r.publish()

	if r.resyncing {
		return frame.Waiting, r.resync(now)
	}

	if r.buf.Len() > 0 && r.cfg.Limits.MinInterPacketDelay > 0 && r.silentSince(now) {
		r.discardStale()
	}

	res, err := frame.Poll(r.buf, r.src)
	if err != nil {
		return res, fmt.Errorf("receiver %s: %w", r.cfg.Name, err)
	}
	if res == frame.Waiting {
		return res, nil
	}

	r.lastByteAt = now
	r.countBytes(1)

	if res == frame.Reading && r.cfg.RejectOverlongHeader && r.overlong() {
		res = frame.Invalid
		r.reject(0)
		return res, nil
	}

	switch res {
	case frame.Valid:
		r.deliver(now)
	case frame.Invalid:
		r.reject(1)
	}
	return res, nil
}

// Run polls every PollInterval, draining the source on each tick. It
// returns ctx.Err() on cancel, or the terminal source error once every
// byte before it has been admitted.
func (r *Receiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.logger.Info().
		Int("max_packet_size", r.cfg.Limits.MaxPacketSize).
		Dur("min_inter_packet_delay", r.cfg.Limits.MinInterPacketDelay).
		Dur("poll_interval", r.cfg.PollInterval).
		Msg("receiver started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.drain(now); err != nil {
				return err
			}
		}
	}
}

func (r *Receiver) drain(now time.Time) error {
	limit := 16 * r.buf.Cap()
	for i := 0; i < limit; i++ {
		res, err := r.Step(now)
		if err != nil {
			return err
		}
		if res == frame.Waiting {
			break
		}
	}
	if s, ok := r.src.(interface{ Err() error }); ok {
		if err := s.Err(); err != nil && !r.src.Available() {
			r.discardTruncated()
			return err
		}
	}
	return nil
}

func (r *Receiver) Stats() Stats {
	s := Stats{
		BytesRead: r.bytesRead.Load(),
		Valid:     r.valid.Load(),
		Invalid:   r.invalid.Load(),
		Stale:     r.stale.Load(),
		Dropped:   r.dropped.Load(),
		Pending:   int(r.pending.Load()),
		Resyncing: r.resyncFlag.Load(),
	}
	if ns := r.lastPacketAt.Load(); ns != 0 {
		s.LastPacketAt = time.Unix(0, ns)
	}
	return s
}

func (r *Receiver) Config() Config {
	return r.cfg
}

func (r *Receiver) silentSince(now time.Time) bool {
	delay := r.cfg.Limits.MinInterPacketDelay
	return now.Sub(r.lastByteAt) >= delay
}

func (r *Receiver) overlong() bool {
	length, ok := r.buf.DeclaredLength()
	return ok && int(length) > r.cfg.Limits.MaxPacketSize
}

func (r *Receiver) deliver(now time.Time) {
	r.valid.Add(1)
	r.lastPacketAt.Store(now.UnixNano())
	size := r.buf.Len()
	observability.RecordPacket(r.cfg.Name, frame.Valid.String(), size)

	p, err := r.buf.Packet()
	r.buf.Reset()
	if err != nil {
		r.logger.Warn().Err(err).Int("size", size).Msg("valid packet without type byte")
		return
	}
	r.logger.Debug().Uint8("type", p.Type).Int("size", size).Msg("packet")
	if r.handler != nil {
		r.handler(p)
	}
}

// reject discards the buffer and starts resynchronizing. consumed counts
// bytes read from the source but never stored.
func (r *Receiver) reject(consumed int) {
	length, _ := r.buf.DeclaredLength()
	discarded := r.buf.Len() + consumed
	r.invalid.Add(1)
	r.countDropped(discarded)
	observability.RecordPacket(r.cfg.Name, frame.Invalid.String(), discarded)
	r.logger.Warn().
		Uint16("declared", length).
		Int("discarded", discarded).
		Msg("invalid packet, resynchronizing")
	r.buf.Reset()
	r.resyncing = true
}

func (r *Receiver) discardStale() {
	n := r.buf.Len()
	r.stale.Add(1)
	r.countDropped(n)
	observability.RecordPacket(r.cfg.Name, "stale", n)
	r.logger.Debug().Int("discarded", n).Msg("stale partial packet")
	r.buf.Reset()
}

// discardTruncated drops a partial packet cut off by the end of the source.
func (r *Receiver) discardTruncated() {
	defer r.publish()
	n := r.buf.Len()
	if n == 0 {
		return
	}
	r.countDropped(n)
	observability.RecordPacket(r.cfg.Name, "truncated", n)
	r.logger.Debug().Int("discarded", n).Msg("partial packet at end of source")
	r.buf.Reset()
}

// resync drops bytes until the line has been silent for
// MinInterPacketDelay, then resumes assembly from an empty buffer.
func (r *Receiver) resync(now time.Time) error {
	n := 0
	for r.src.Available() {
		if _, err := r.src.ReadByte(); err != nil {
			return fmt.Errorf("receiver %s: %w", r.cfg.Name, err)
		}
		n++
		r.lastByteAt = now
	}
	if n > 0 {
		r.countBytes(n)
		r.countDropped(n)
		return nil
	}
	if r.silentSince(now) {
		r.resyncing = false
		r.buf.Reset()
		r.logger.Debug().Msg("resynchronized")
	}
	return nil
}

func (r *Receiver) countBytes(n int) {
	r.bytesRead.Add(uint64(n))
	observability.RecordBytes(r.cfg.Name, n)
}

func (r *Receiver) countDropped(n int) {
	if n == 0 {
		return
	}
	r.dropped.Add(uint64(n))
	observability.RecordDropped(r.cfg.Name, n)
}

func (r *Receiver) publish() {
	r.pending.Store(int64(r.buf.Len()))
	r.resyncFlag.Store(r.resyncing)
}
