package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/pktframe/internal/protocol/source"
	"github.com/danmuck/pktframe/internal/receiver"
	"github.com/pelletier/go-toml/v2"
)

// ReceiverConfig is the resolved framectl configuration.
type ReceiverConfig struct {
	// Replay, when set, reads a capture file instead of a serial port.
	Replay    string
	Serial    source.SerialConfig
	Receiver  receiver.Config
	Reconnect source.BackoffConfig
	Admin     AdminConfig
}

type AdminConfig struct {
	Addr        string
	CorsOrigins []string
}

type receiverFile struct {
	Replay    string           `toml:"replay"`
	Serial    serialSection    `toml:"serial"`
	Framing   framingSection   `toml:"framing"`
	Receiver  receiverSection  `toml:"receiver"`
	Reconnect reconnectSection `toml:"reconnect"`
	Admin     adminSection     `toml:"admin"`
}

type serialSection struct {
	Name        string `toml:"name"`
	Baud        int    `toml:"baud"`
	DataBits    int    `toml:"data_bits"`
	Parity      string `toml:"parity"`
	StopBits    int    `toml:"stop_bits"`
	ReadTimeout string `toml:"read_timeout"`
}

type framingSection struct {
	MaxPacketSize       int    `toml:"max_packet_size"`
	MinInterPacketDelay string `toml:"min_inter_packet_delay"`
}

type receiverSection struct {
	Name                 string `toml:"name"`
	PollInterval         string `toml:"poll_interval"`
	RejectOverlongHeader *bool  `toml:"reject_overlong_header"`
}

type reconnectSection struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       *bool   `toml:"jitter"`
	MaxAttempts  int     `toml:"max_attempts"`
}

type adminSection struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{
		Serial:    source.DefaultSerialConfig(),
		Receiver:  receiver.DefaultConfig(),
		Reconnect: source.DefaultBackoffConfig(),
	}
}

func LoadReceiverConfig(path string) (ReceiverConfig, error) {
	var raw receiverFile
	if err := loadToml(path, &raw); err != nil {
		return ReceiverConfig{}, err
	}
	return resolveReceiverConfig(raw)
}

func ParseReceiverConfig(data []byte) (ReceiverConfig, error) {
	var raw receiverFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return ReceiverConfig{}, fmt.Errorf("config parse failed: %w", err)
	}
	return resolveReceiverConfig(raw)
}

func resolveReceiverConfig(raw receiverFile) (ReceiverConfig, error) {
	cfg := DefaultReceiverConfig()
	cfg.Replay = strings.TrimSpace(raw.Replay)

	s := raw.Serial
	cfg.Serial.Name = strings.TrimSpace(s.Name)
	if s.Baud != 0 {
		cfg.Serial.Baud = s.Baud
	}
	if s.DataBits != 0 {
		cfg.Serial.DataBits = s.DataBits
	}
	if strings.TrimSpace(s.Parity) != "" {
		cfg.Serial.Parity = strings.TrimSpace(s.Parity)
	}
	if s.StopBits != 0 {
		cfg.Serial.StopBits = s.StopBits
	}
	if err := parseDuration("serial.read_timeout", s.ReadTimeout, &cfg.Serial.ReadTimeout); err != nil {
		return ReceiverConfig{}, err
	}

	if raw.Framing.MaxPacketSize != 0 {
		cfg.Receiver.Limits.MaxPacketSize = raw.Framing.MaxPacketSize
	}
	if err := parseDuration("framing.min_inter_packet_delay", raw.Framing.MinInterPacketDelay, &cfg.Receiver.Limits.MinInterPacketDelay); err != nil {
		return ReceiverConfig{}, err
	}

	switch {
	case strings.TrimSpace(raw.Receiver.Name) != "":
		cfg.Receiver.Name = strings.TrimSpace(raw.Receiver.Name)
	case cfg.Replay != "":
		cfg.Receiver.Name = "replay"
	case cfg.Serial.Name != "":
		cfg.Receiver.Name = cfg.Serial.Name
	}
	if err := parseDuration("receiver.poll_interval", raw.Receiver.PollInterval, &cfg.Receiver.PollInterval); err != nil {
		return ReceiverConfig{}, err
	}
	if raw.Receiver.RejectOverlongHeader != nil {
		cfg.Receiver.RejectOverlongHeader = *raw.Receiver.RejectOverlongHeader
	}

	rc := raw.Reconnect
	if err := parseDuration("reconnect.initial_delay", rc.InitialDelay, &cfg.Reconnect.InitialDelay); err != nil {
		return ReceiverConfig{}, err
	}
	if err := parseDuration("reconnect.max_delay", rc.MaxDelay, &cfg.Reconnect.MaxDelay); err != nil {
		return ReceiverConfig{}, err
	}
	if rc.Multiplier != 0 {
		cfg.Reconnect.Multiplier = rc.Multiplier
	}
	if rc.Jitter != nil {
		cfg.Reconnect.Jitter = *rc.Jitter
	}
	cfg.Reconnect.MaxAttempts = rc.MaxAttempts

	cfg.Admin.Addr = strings.TrimSpace(raw.Admin.Addr)
	cfg.Admin.CorsOrigins = normalizeList(raw.Admin.CorsOrigins)

	if err := ValidateReceiverConfig(cfg); err != nil {
		return ReceiverConfig{}, err
	}
	return cfg, nil
}

func ValidateReceiverConfig(cfg ReceiverConfig) error {
	if cfg.Replay == "" && cfg.Serial.Name == "" {
		return fmt.Errorf("receiver config missing serial.name or replay")
	}
	if cfg.Replay == "" && cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial config invalid baud: %d", cfg.Serial.Baud)
	}
	if err := cfg.Receiver.Limits.Validate(); err != nil {
		return fmt.Errorf("framing config invalid: %w", err)
	}
	if cfg.Receiver.PollInterval <= 0 {
		return fmt.Errorf("receiver config invalid poll_interval: %v", cfg.Receiver.PollInterval)
	}
	if cfg.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect config invalid max_attempts: %d", cfg.Reconnect.MaxAttempts)
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func parseDuration(field, raw string, out *time.Duration) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*out = d
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
