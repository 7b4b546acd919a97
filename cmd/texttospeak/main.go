// Texttospeak is a Telegram bot daemon that converts text of any length
// into a single voice message.
//
// Usage:
//
//	texttospeak [flags]
//	texttospeak --config /path/to/texttospeak.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NikzGod/Text-To-Speak/internal/bot"
	"github.com/NikzGod/Text-To-Speak/internal/config"
	"github.com/NikzGod/Text-To-Speak/internal/health"
	"github.com/NikzGod/Text-To-Speak/internal/pipeline"
	"github.com/NikzGod/Text-To-Speak/internal/tts/gtts"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/texttospeak.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("texttospeak %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("texttospeak starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Wire the synthesis backend and the conversion pipeline.
	synth := gtts.New(cfg.TTS)
	slog.Info("using translate tts backend", "language", cfg.TTS.Language)

	pipe := pipeline.New(cfg.Pipeline, cfg.TTS.Timeout(),
		pipeline.EngineSynthesizer{Engine: synth}, slog.Default())

	// Create the Telegram front end.
	b, err := bot.New(cfg.Telegram, pipe, slog.Default())
	if err != nil {
		slog.Error("failed to create telegram bot", "error", err)
		os.Exit(1)
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	healthServer.SetReady(true)
	slog.Info("texttospeak ready",
		"bot", b.Username(),
		"chunk_limit", cfg.Pipeline.ChunkLimit,
		"max_audio_mb", cfg.Pipeline.MaxAudioMB,
		"health_port", cfg.Server.HealthPort)

	// Block polling until shutdown signal.
	b.Listen(ctx)

	slog.Info("texttospeak stopped")
}
