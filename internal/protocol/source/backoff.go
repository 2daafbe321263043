package source

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig defines reopen backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	// Jitter scales each delay by a random factor in [0.5, 1.5).
	Jitter bool
	// MaxAttempts bounds reopen attempts; zero retries until the context ends.
	MaxAttempts int
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// Backoff tracks the failed attempts of one outage. It is not safe for
// concurrent use.
type Backoff struct {
	cfg      BackoffConfig
	rng      *rand.Rand
	failures int
	base     time.Duration
}

// NewBackoff returns a Backoff for cfg. A nil rng is replaced with a
// time-seeded one when jitter is enabled.
func NewBackoff(cfg BackoffConfig, rng *rand.Rand) *Backoff {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Jitter && rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Backoff{cfg: cfg, rng: rng}
}

// Next records a failed attempt and returns the wait before the next one.
// ok is false once MaxAttempts failures have been recorded.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	b.failures++
	if b.cfg.MaxAttempts > 0 && b.failures >= b.cfg.MaxAttempts {
		return 0, false
	}
	b.grow()
	if !b.cfg.Jitter {
		return b.base, true
	}
	return time.Duration(float64(b.base) * (0.5 + b.rng.Float64())), true
}

// Failures reports how many attempts have failed since the last Reset.
func (b *Backoff) Failures() int {
	return b.failures
}

func (b *Backoff) Reset() {
	b.failures = 0
	b.base = 0
}

func (b *Backoff) grow() {
	ceiling := b.cfg.MaxDelay
	if ceiling <= 0 {
		ceiling = time.Duration(math.MaxInt64 / 2)
	}
	next := float64(b.cfg.InitialDelay)
	if b.failures > 1 && b.base > 0 {
		next = float64(b.base) * b.cfg.Multiplier
	}
	if next > float64(ceiling) {
		next = float64(ceiling)
	}
	b.base = time.Duration(next)
}
