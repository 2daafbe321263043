package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/pktframe/internal/protocol/frame"
	"github.com/danmuck/pktframe/internal/protocol/source"
)

// SenderConfig is the resolved framesend configuration.
type SenderConfig struct {
	Serial source.SerialConfig
	Limits frame.Limits
}

type senderFile struct {
	Port               string `toml:"port"`
	Baud               int    `toml:"baud"`
	DataBits           int    `toml:"data_bits"`
	Parity             string `toml:"parity"`
	StopBits           int    `toml:"stop_bits"`
	MaxPacketSize      int    `toml:"max_packet_size"`
	InterPacketDelay   string `toml:"inter_packet_delay"`
	InterPacketDelayUS int64  `toml:"inter_packet_delay_us"`
}

func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Serial: source.DefaultSerialConfig(),
		Limits: frame.DefaultLimits(),
	}
}

// LoadSenderConfig overlays the keys present in path onto DefaultSenderConfig
// and validates the result.
func LoadSenderConfig(path string) (SenderConfig, error) {
	cfg, err := DecodeSenderConfig(path)
	if err != nil {
		return SenderConfig{}, err
	}
	if err := ValidateSenderConfig(cfg); err != nil {
		return SenderConfig{}, err
	}
	return cfg, nil
}

// DecodeSenderConfig is LoadSenderConfig without validation, for callers
// that apply flag overrides before validating.
func DecodeSenderConfig(path string) (SenderConfig, error) {
	cfg := DefaultSenderConfig()

	var raw senderFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return SenderConfig{}, fmt.Errorf("load sender config: %w", err)
	}

	if meta.IsDefined("port") {
		cfg.Serial.Name = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		cfg.Serial.Baud = raw.Baud
	}
	if meta.IsDefined("data_bits") {
		cfg.Serial.DataBits = raw.DataBits
	}
	if meta.IsDefined("parity") {
		cfg.Serial.Parity = strings.TrimSpace(raw.Parity)
	}
	if meta.IsDefined("stop_bits") {
		cfg.Serial.StopBits = raw.StopBits
	}
	if meta.IsDefined("max_packet_size") {
		cfg.Limits.MaxPacketSize = raw.MaxPacketSize
	}
	if meta.IsDefined("inter_packet_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.InterPacketDelay))
		if err != nil {
			return SenderConfig{}, fmt.Errorf("parse inter_packet_delay: %w", err)
		}
		cfg.Limits.MinInterPacketDelay = d
	}
	if meta.IsDefined("inter_packet_delay_us") {
		cfg.Limits.MinInterPacketDelay = time.Duration(raw.InterPacketDelayUS) * time.Microsecond
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return SenderConfig{}, fmt.Errorf("sender config unknown key: %s", undecoded[0])
	}
	return cfg, nil
}

func ValidateSenderConfig(cfg SenderConfig) error {
	if strings.TrimSpace(cfg.Serial.Name) == "" {
		return fmt.Errorf("sender config missing port")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("sender config invalid baud: %d", cfg.Serial.Baud)
	}
	if err := cfg.Limits.Validate(); err != nil {
		return fmt.Errorf("sender config invalid limits: %w", err)
	}
	return nil
}
