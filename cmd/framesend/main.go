package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/pktframe/internal/config"
	"github.com/danmuck/pktframe/internal/observability"
	"github.com/danmuck/pktframe/internal/protocol/frame"
	"github.com/danmuck/pktframe/internal/protocol/source"
	"github.com/rs/zerolog/log"
)

type options struct {
	config  string
	port    string
	typ     string
	payload string
	stdin   bool
	repeat  int
}

type portOpener func(source.SerialConfig) (io.WriteCloser, error)

func main() {
	opts := parseFlags()
	observability.InitLogger("framesend")

	open := func(cfg source.SerialConfig) (io.WriteCloser, error) {
		return source.OpenPort(cfg)
	}
	if err := run(opts, os.Stdin, open); err != nil {
		log.Fatal().Err(err).Msg("framesend failed")
	}
}

func run(opts options, stdin io.Reader, open portOpener) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load sender config: %w", err)
	}

	packets, err := collectPackets(opts, stdin)
	if err != nil {
		return fmt.Errorf("invalid packet input: %w", err)
	}
	if len(packets) == 0 {
		return errors.New("nothing to send (use -type/-hex or -stdin)")
	}

	port, err := open(cfg.Serial)
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	defer port.Close()

	if err := sendAll(port, packets, cfg.Limits, time.Sleep); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	log.Info().Str("port", cfg.Serial.Name).Int("packets", len(packets)).Msg("sent")
	return nil
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.config, "config", "", "sender config path (defaults are used when empty)")
	flag.StringVar(&opts.port, "port", "", "serial port, overrides config")
	flag.StringVar(&opts.typ, "type", "", "packet type (decimal or 0x hex)")
	flag.StringVar(&opts.payload, "hex", "", "packet payload as hex")
	flag.BoolVar(&opts.stdin, "stdin", false, "read \"<type> <hexpayload>\" lines from stdin")
	flag.IntVar(&opts.repeat, "repeat", 1, "send the -type/-hex packet N times")
	flag.Parse()
	return opts
}

func loadConfig(opts options) (config.SenderConfig, error) {
	cfg := config.DefaultSenderConfig()
	if opts.config != "" {
		loaded, err := config.DecodeSenderConfig(opts.config)
		if err != nil {
			return config.SenderConfig{}, err
		}
		cfg = loaded
	}
	if opts.port != "" {
		cfg.Serial.Name = opts.port
	}
	if err := config.ValidateSenderConfig(cfg); err != nil {
		return config.SenderConfig{}, err
	}
	return cfg, nil
}

func collectPackets(opts options, stdin io.Reader) ([]frame.Packet, error) {
	var packets []frame.Packet
	if opts.typ != "" {
		p, err := parsePacket(opts.typ, opts.payload)
		if err != nil {
			return nil, err
		}
		for i := 0; i < opts.repeat; i++ {
			packets = append(packets, p)
		}
	}
	if !opts.stdin {
		return packets, nil
	}

	scanner := bufio.NewScanner(stdin)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		payload := ""
		if len(fields) > 1 {
			payload = strings.Join(fields[1:], "")
		}
		p, err := parsePacket(fields[0], payload)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		packets = append(packets, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return packets, nil
}

func parsePacket(rawType, rawPayload string) (frame.Packet, error) {
	typ, err := strconv.ParseUint(strings.TrimSpace(rawType), 0, 8)
	if err != nil {
		return frame.Packet{}, fmt.Errorf("parse type %q: %w", rawType, err)
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(rawPayload), "0x"))
	if err != nil {
		return frame.Packet{}, fmt.Errorf("parse payload: %w", err)
	}
	return frame.Packet{Type: uint8(typ), Payload: payload}, nil
}

// sendAll writes each packet and waits MinInterPacketDelay between them so
// the receiver can tell packets apart after noise.
func sendAll(w io.Writer, packets []frame.Packet, limits frame.Limits, sleep func(time.Duration)) error {
	for i, p := range packets {
		if i > 0 && limits.MinInterPacketDelay > 0 {
			sleep(limits.MinInterPacketDelay)
		}
		if err := frame.WritePacket(w, p, limits); err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
		log.Debug().Uint8("type", p.Type).Int("len", p.Len()).Msg("packet written")
	}
	return nil
}
