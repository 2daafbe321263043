package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "receiver":
		return receiverTemplate, nil
	case "sender":
		return senderTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const receiverTemplate = `# replay = "capture.bin"

[serial]
name = "/dev/ttyUSB0"
baud = 115200
data_bits = 8
parity = "none"
stop_bits = 1
read_timeout = "100ms"

[framing]
max_packet_size = 256
min_inter_packet_delay = "100ms"

[receiver]
poll_interval = "1ms"
reject_overlong_header = true

[reconnect]
initial_delay = "250ms"
multiplier = 2.0
max_delay = "5s"
jitter = true
max_attempts = 0

[admin]
addr = "127.0.0.1:9300"
cors_origins = ["http://localhost:3000"]
`

const senderTemplate = `port = "/dev/ttyUSB0"
baud = 115200
parity = "none"
stop_bits = 1
max_packet_size = 256
inter_packet_delay = "100ms"
`
