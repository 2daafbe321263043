package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/pktframe/internal/config"
	"github.com/danmuck/pktframe/internal/observability"
	"github.com/danmuck/pktframe/internal/protocol/frame"
	"github.com/danmuck/pktframe/internal/protocol/source"
	"github.com/danmuck/pktframe/internal/receiver"
	"github.com/danmuck/pktframe/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/framectl/config.toml", "receiver config path")
	flag.Parse()

	observability.InitLogger("framectl")

	cfg, err := config.LoadReceiverConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load receiver config")
	}
	log.Info().Str("path", *configPath).Msg("loaded receiver config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatal().Err(err).Msg("framectl stopped")
	}
}

func run(ctx context.Context, cfg config.ReceiverConfig) error {
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	rx, err := receiver.New(src, cfg.Receiver, logPacket)
	if err != nil {
		return err
	}

	if cfg.Admin.Addr != "" {
		admin := server.Appear("framectl", cfg.Admin.Addr, cfg.Admin.CorsOrigins, rx, func() bool {
			return src.Err() == nil
		})
		go func() {
			if err := admin.Serve(ctx); err != nil {
				log.Error().Err(err).Msg("admin stopped")
			}
		}()
	}

	err = rx.Run(ctx)
	stats := rx.Stats()
	log.Info().
		Uint64("valid", stats.Valid).
		Uint64("invalid", stats.Invalid).
		Uint64("stale", stats.Stale).
		Uint64("dropped", stats.Dropped).
		Uint64("bytes", stats.BytesRead).
		Msg("receiver stopped")

	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, io.EOF) && cfg.Replay != "":
		return nil
	default:
		return err
	}
}

func openSource(ctx context.Context, cfg config.ReceiverConfig) (*source.Pump, error) {
	if cfg.Replay != "" {
		return source.OpenReplay(cfg.Replay)
	}
	return source.OpenSerialWithRetry(ctx, cfg.Serial, cfg.Reconnect)
}

func logPacket(p frame.Packet) {
	log.Info().
		Uint8("type", p.Type).
		Int("len", p.Len()).
		Str("payload", hex.EncodeToString(p.Payload)).
		Msg("packet")
}
