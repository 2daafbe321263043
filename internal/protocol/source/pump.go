package source

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/danmuck/pktframe/internal/protocol"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("source: closed")

// PumpConfig tunes the reader goroutine behind a Pump.
type PumpConfig struct {
	Name       string
	Depth      int
	ChunkSize  int
	RetryDelay time.Duration
	// TransientEOF treats io.EOF as a read timeout and keeps reading.
	// Serial ports report an expired read timeout this way.
	TransientEOF bool
}

func DefaultPumpConfig() PumpConfig {
	return PumpConfig{
		Name:       "reader",
		Depth:      4096,
		ChunkSize:  256,
		RetryDelay: 10 * time.Millisecond,
	}
}

// Pump adapts a blocking io.Reader into a non-blocking byte source. A
// goroutine reads chunks into a bounded channel; Available peeks one byte
// without blocking.
type Pump struct {
	cfg    PumpConfig
	r      io.Reader
	closer io.Closer

	ch        chan byte
	done      chan struct{}
	closeOnce sync.Once

	pending    byte
	hasPending bool

	mu  sync.Mutex
	err error
}

// NewPump starts reading r. If r is an io.Closer, Close closes it.
func NewPump(r io.Reader, cfg PumpConfig) *Pump {
	def := DefaultPumpConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Depth <= 0 {
		cfg.Depth = def.Depth
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	p := &Pump{
		cfg:  cfg,
		r:    r,
		ch:   make(chan byte, cfg.Depth),
		done: make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	go p.run()
	return p
}

func (p *Pump) Name() string {
	return p.cfg.Name
}

func (p *Pump) Available() bool {
	if p.hasPending {
		return true
	}
	select {
	case c, ok := <-p.ch:
		if !ok {
			return false
		}
		p.pending = c
		p.hasPending = true
		return true
	default:
		return false
	}
}

func (p *Pump) ReadByte() (byte, error) {
	if !p.Available() {
		return 0, protocol.ErrNoByte
	}
	p.hasPending = false
	return p.pending, nil
}

// Err returns the error that stopped the reader, or nil while it runs.
// Bytes read before the error remain available.
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pump) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.closer != nil {
			err = p.closer.Close()
		}
	})
	return err
}

func (p *Pump) run() {
	defer close(p.ch)
	buf := make([]byte, p.cfg.ChunkSize)
	for {
		n, err := p.r.Read(buf)
		for _, c := range buf[:n] {
			select {
			case p.ch <- c:
			case <-p.done:
				p.setErr(ErrClosed)
				return
			}
		}
		if err == nil {
			continue
		}
		if p.transient(err) {
			select {
			case <-time.After(p.cfg.RetryDelay):
				continue
			case <-p.done:
				p.setErr(ErrClosed)
				return
			}
		}
		select {
		case <-p.done:
			p.setErr(ErrClosed)
		default:
			log.Debug().Err(err).Str("source", p.cfg.Name).Msg("reader stopped")
			p.setErr(err)
		}
		return
	}
}

func (p *Pump) transient(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	return p.cfg.TransientEOF && errors.Is(err, io.EOF)
}

func (p *Pump) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}
