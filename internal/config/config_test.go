package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/pktframe/internal/protocol/frame"
	"github.com/danmuck/pktframe/internal/testutil/testlog"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReceiverTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, "receiver", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := LoadReceiverConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Replay != "" {
		t.Fatalf("unexpected replay: %q", cfg.Replay)
	}
	if cfg.Serial.Name != "/dev/ttyUSB0" || cfg.Serial.Baud != 115200 {
		t.Fatalf("unexpected serial: %+v", cfg.Serial)
	}
	if cfg.Serial.ReadTimeout != 100*time.Millisecond {
		t.Fatalf("unexpected read timeout: %v", cfg.Serial.ReadTimeout)
	}
	if cfg.Receiver.Limits != frame.DefaultLimits() {
		t.Fatalf("unexpected limits: %+v", cfg.Receiver.Limits)
	}
	if cfg.Receiver.Name != "/dev/ttyUSB0" {
		t.Fatalf("unexpected receiver name: %q", cfg.Receiver.Name)
	}
	if cfg.Receiver.PollInterval != time.Millisecond || !cfg.Receiver.RejectOverlongHeader {
		t.Fatalf("unexpected receiver: %+v", cfg.Receiver)
	}
	if cfg.Reconnect.InitialDelay != 250*time.Millisecond || cfg.Reconnect.MaxDelay != 5*time.Second || !cfg.Reconnect.Jitter {
		t.Fatalf("unexpected reconnect: %+v", cfg.Reconnect)
	}
	if cfg.Admin.Addr != "127.0.0.1:9300" || len(cfg.Admin.CorsOrigins) != 1 {
		t.Fatalf("unexpected admin: %+v", cfg.Admin)
	}

	if err := WriteTemplate(path, "receiver", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
}

func TestParseReceiverReplayOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := ParseReceiverConfig([]byte(`
replay = "capture.bin"

[framing]
max_packet_size = 64
min_inter_packet_delay = "20ms"

[receiver]
reject_overlong_header = false
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Replay != "capture.bin" || cfg.Receiver.Name != "replay" {
		t.Fatalf("unexpected replay config: %+v", cfg)
	}
	if cfg.Receiver.Limits.MaxPacketSize != 64 || cfg.Receiver.Limits.MinInterPacketDelay != 20*time.Millisecond {
		t.Fatalf("unexpected limits: %+v", cfg.Receiver.Limits)
	}
	if cfg.Receiver.RejectOverlongHeader {
		t.Fatalf("reject_overlong_header override ignored")
	}
	if cfg.Admin.Addr != "" {
		t.Fatalf("admin should be disabled by default")
	}
}

func TestParseReceiverConfigErrors(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"missing source": `[framing]
max_packet_size = 64`,
		"bad duration": `[serial]
name = "/dev/ttyS0"
read_timeout = "soon"`,
		"bad limits": `replay = "x.bin"
[framing]
max_packet_size = 70000`,
		"bad baud": `[serial]
name = "/dev/ttyS0"
baud = -1`,
		"bad toml": `[serial`,
	}
	for name, body := range cases {
		if _, err := ParseReceiverConfig([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadReceiverConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestLoadSenderConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, "sender.toml", `port = "/dev/ttyACM0"
inter_packet_delay_us = 250000
`)
	cfg, err := LoadSenderConfig(path)
	if err != nil {
		t.Fatalf("load sender: %v", err)
	}
	if cfg.Serial.Name != "/dev/ttyACM0" {
		t.Fatalf("unexpected port: %q", cfg.Serial.Name)
	}
	if cfg.Serial.Baud != 9600 {
		t.Fatalf("default baud not kept: %d", cfg.Serial.Baud)
	}
	if cfg.Limits.MinInterPacketDelay != 250*time.Millisecond {
		t.Fatalf("unexpected delay: %v", cfg.Limits.MinInterPacketDelay)
	}
	if cfg.Limits.MaxPacketSize != frame.MaxPacketSize {
		t.Fatalf("unexpected max packet size: %d", cfg.Limits.MaxPacketSize)
	}
}

func TestLoadSenderTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "sender.toml")
	if err := WriteTemplate(path, "sender", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := LoadSenderConfig(path)
	if err != nil {
		t.Fatalf("load sender: %v", err)
	}
	if cfg.Serial.Baud != 115200 || cfg.Limits.MinInterPacketDelay != frame.MinInterPacketDelay {
		t.Fatalf("unexpected sender config: %+v", cfg)
	}
}

func TestLoadSenderConfigErrors(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"missing port": `baud = 9600`,
		"unknown key":  "port = \"/dev/ttyS0\"\ncolor = \"blue\"\n",
		"bad delay":    "port = \"/dev/ttyS0\"\ninter_packet_delay = \"later\"\n",
		"bad max":      "port = \"/dev/ttyS0\"\nmax_packet_size = 1\n",
	}
	for name, body := range cases {
		_, err := LoadSenderConfig(writeConfig(t, "sender.toml", body))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if name == "unknown key" && !strings.Contains(err.Error(), "color") {
			t.Fatalf("unknown key error should name the key: %v", err)
		}
	}
}

func TestDecodeSenderConfigSkipsValidation(t *testing.T) {
	testlog.Start(t)
	cfg, err := DecodeSenderConfig(writeConfig(t, "sender.toml", "baud = 57600\n"))
	if err != nil {
		t.Fatalf("decode sender: %v", err)
	}
	if cfg.Serial.Name != "" || cfg.Serial.Baud != 57600 {
		t.Fatalf("unexpected sender config: %+v", cfg)
	}
	if _, err := DecodeSenderConfig(writeConfig(t, "sender.toml", "baud = 57600\nbuad = 1\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
