package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"
)

var ErrInvalidSerialConfig = errors.New("source: invalid serial config")

// SerialConfig describes one serial port.
type SerialConfig struct {
	Name        string
	Baud        int
	DataBits    int
	Parity      string
	StopBits    int
	ReadTimeout time.Duration
}

func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Baud:        9600,
		DataBits:    8,
		Parity:      "none",
		StopBits:    1,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// openPort is swapped in tests.
var openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(c)
}

func (c SerialConfig) portConfig() (*serial.Config, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: missing port name", ErrInvalidSerialConfig)
	}
	if c.Baud <= 0 {
		return nil, fmt.Errorf("%w: baud=%d", ErrInvalidSerialConfig, c.Baud)
	}
	parity, err := parseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	var stop serial.StopBits
	switch c.StopBits {
	case 0, 1:
		stop = serial.Stop1
	case 2:
		stop = serial.Stop2
	default:
		return nil, fmt.Errorf("%w: stop_bits=%d", ErrInvalidSerialConfig, c.StopBits)
	}
	size := byte(8)
	if c.DataBits != 0 {
		if c.DataBits < 5 || c.DataBits > 8 {
			return nil, fmt.Errorf("%w: data_bits=%d", ErrInvalidSerialConfig, c.DataBits)
		}
		size = byte(c.DataBits)
	}
	return &serial.Config{
		Name:        c.Name,
		Baud:        c.Baud,
		Size:        size,
		Parity:      parity,
		StopBits:    stop,
		ReadTimeout: c.ReadTimeout,
	}, nil
}

func parseParity(raw string) (serial.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "n":
		return serial.ParityNone, nil
	case "odd", "o":
		return serial.ParityOdd, nil
	case "even", "e":
		return serial.ParityEven, nil
	case "mark", "m":
		return serial.ParityMark, nil
	case "space", "s":
		return serial.ParitySpace, nil
	default:
		return 0, fmt.Errorf("%w: parity=%q", ErrInvalidSerialConfig, raw)
	}
}

// OpenPort opens the raw port. Senders write to it directly.
func OpenPort(cfg SerialConfig) (io.ReadWriteCloser, error) {
	pc, err := cfg.portConfig()
	if err != nil {
		return nil, err
	}
	port, err := openPort(pc)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Name, err)
	}
	return port, nil
}

// OpenSerial opens the port and pumps it. Closing the Pump closes the port.
func OpenSerial(cfg SerialConfig) (*Pump, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return NewPump(port, PumpConfig{Name: cfg.Name, TransientEOF: true}), nil
}

// OpenSerialWithRetry keeps trying OpenSerial with backoff until it
// succeeds, the attempts run out, or ctx ends. Config errors are not retried.
func OpenSerialWithRetry(ctx context.Context, cfg SerialConfig, backoff BackoffConfig) (*Pump, error) {
	bo := NewBackoff(backoff, nil)
	for {
		p, err := OpenSerial(cfg)
		if err == nil {
			if bo.Failures() > 0 {
				log.Info().Str("port", cfg.Name).Int("attempt", bo.Failures()+1).Msg("serial port opened")
			}
			return p, nil
		}
		if errors.Is(err, ErrInvalidSerialConfig) {
			return nil, err
		}

		delay, ok := bo.Next()
		if !ok {
			return nil, fmt.Errorf("serial %s: gave up after %d attempts: %w", cfg.Name, bo.Failures(), err)
		}
		log.Warn().Err(err).Str("port", cfg.Name).Int("attempt", bo.Failures()).Dur("retry_in", delay).Msg("serial open failed")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
