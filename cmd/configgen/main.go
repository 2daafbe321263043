package main

import (
	"flag"

	"github.com/danmuck/pktframe/internal/config"
	"github.com/danmuck/pktframe/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	kind := flag.String("kind", "receiver", "config kind: receiver|sender")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	observability.InitLogger("configgen")

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		var err error
		switch *kind {
		case "receiver":
			_, err = config.LoadReceiverConfig(path)
		case "sender":
			_, err = config.LoadSenderConfig(path)
		default:
			log.Fatal().Str("kind", *kind).Msg("unknown kind")
		}
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("config invalid")
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}

func defaultPath(kind string) string {
	switch kind {
	case "receiver":
		return "cmd/framectl/config.toml"
	case "sender":
		return "cmd/framesend/config.toml"
	default:
		log.Fatal().Str("kind", kind).Msg("unknown kind")
		return ""
	}
}
