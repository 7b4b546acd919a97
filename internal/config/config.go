// Package config handles loading and validating the texttospeak configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the texttospeak daemon.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TelegramConfig holds the Bot API settings.
type TelegramConfig struct {
	// Token is the Bot API token. Supports "${ENV_VAR}" references so the
	// secret can stay out of the config file.
	Token string `mapstructure:"token"`

	// PollTimeoutSec is the long-poll timeout in seconds.
	PollTimeoutSec int `mapstructure:"poll_timeout_sec"`
}

// PollTimeout returns the long-poll timeout as a duration.
func (c TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSec) * time.Second
}

// TTSConfig configures the synthesis backend.
type TTSConfig struct {
	// Endpoint overrides the Translate TTS endpoint. Empty means the default.
	Endpoint string `mapstructure:"endpoint"`

	// Language is the ISO-639-1 tag passed to the synthesis backend.
	// The daemon synthesizes exactly one language.
	Language string `mapstructure:"language"`

	// TimeoutSec bounds each per-segment synthesis call.
	TimeoutSec int `mapstructure:"timeout_sec"`
}

// Timeout returns the per-call synthesis deadline.
func (c TTSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PipelineConfig holds the conversion pipeline limits.
type PipelineConfig struct {
	// ChunkLimit is the maximum segment length in runes.
	ChunkLimit int `mapstructure:"chunk_limit"`

	// MaxTextLength is the maximum total input length in runes. Longer
	// requests are rejected before any chunking happens.
	MaxTextLength int `mapstructure:"max_text_length"`

	// MaxAudioMB is the delivery ceiling for the final encoded clip.
	MaxAudioMB int `mapstructure:"max_audio_mb"`

	// ProgressEvery emits a progress update after every Nth completed chunk.
	// The final chunk always reports regardless of this counter.
	ProgressEvery int `mapstructure:"progress_every"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./texttospeak.yaml, ./configs/texttospeak.yaml,
// /etc/texttospeak/texttospeak.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("telegram.token", "${TELEGRAM_BOT_TOKEN}")
	v.SetDefault("telegram.poll_timeout_sec", 10)
	v.SetDefault("tts.endpoint", "")
	v.SetDefault("tts.language", "ml")
	v.SetDefault("tts.timeout_sec", 30)
	v.SetDefault("pipeline.chunk_limit", 180)
	v.SetDefault("pipeline.max_text_length", 100000)
	v.SetDefault("pipeline.max_audio_mb", 50)
	v.SetDefault("pipeline.progress_every", 5)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("texttospeak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/texttospeak")
	}

	// Environment variables: TEXTTOSPEAK_PIPELINE_CHUNK_LIMIT, TEXTTOSPEAK_TTS_LANGUAGE, etc.
	v.SetEnvPrefix("TEXTTOSPEAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${TELEGRAM_BOT_TOKEN}")
	cfg.Telegram.Token = resolveEnvRef(cfg.Telegram.Token)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.ChunkLimit <= 0 {
		return fmt.Errorf("pipeline.chunk_limit must be positive, got %d", c.Pipeline.ChunkLimit)
	}
	if c.Pipeline.MaxTextLength < c.Pipeline.ChunkLimit {
		return fmt.Errorf("pipeline.max_text_length (%d) must be at least pipeline.chunk_limit (%d)",
			c.Pipeline.MaxTextLength, c.Pipeline.ChunkLimit)
	}
	if c.Pipeline.MaxAudioMB <= 0 {
		return fmt.Errorf("pipeline.max_audio_mb must be positive, got %d", c.Pipeline.MaxAudioMB)
	}
	if c.Pipeline.ProgressEvery <= 0 {
		return fmt.Errorf("pipeline.progress_every must be positive, got %d", c.Pipeline.ProgressEvery)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		return os.Getenv(envKey)
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
