// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/segment"
)

// Static errors for configuration validation.
var (
	// ErrWhisperURLRequired is returned when WHISPER_URL is not set.
	ErrWhisperURLRequired = errors.New("config: WHISPER_URL is required")
	// ErrInvalidMode is returned for an unknown default segmentation mode.
	ErrInvalidMode = errors.New("config: invalid DEFAULT_MODE")
	// ErrInvalidProfile is returned for an unknown quality profile.
	ErrInvalidProfile = errors.New("config: invalid QUALITY_PROFILE")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Transcription service settings
	WhisperURL   string `env:"WHISPER_URL, required" json:"whisper_url"`
	WhisperModel string `env:"WHISPER_MODEL, default=whisper-1" json:"whisper_model"`

	// Processing settings
	FFmpegPath     string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	DatasetDir     string `env:"DATASET_DIR, default=/tmp/ttsdataset/tts_dataset" json:"dataset_dir"`
	UploadDir      string `env:"UPLOAD_DIR, default=/tmp/ttsdataset/uploads" json:"upload_dir"`
	DefaultMode    string `env:"DEFAULT_MODE, default=silence" json:"default_mode"`
	QualityProfile string `env:"QUALITY_PROFILE, default=default" json:"quality_profile"`

	// Optional S3 settings for archive delivery
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`  // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Mode returns the default segmentation mode.
func (c *Config) Mode() segment.Mode { return segment.Mode(c.DefaultMode) }

// Profile returns the configured quality profile.
func (c *Config) Profile() quality.Profile { return quality.Profile(c.QualityProfile) }

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		if strings.Contains(err.Error(), "WHISPER_URL") {
			return nil, ErrWhisperURLRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and coherent.
func (c *Config) Validate() error {
	if c.WhisperURL == "" {
		return ErrWhisperURLRequired
	}
	if !c.Mode().IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.DefaultMode)
	}
	if !c.Profile().IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidProfile, c.QualityProfile)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, WhisperURL: %s, DatasetDir: %s, UploadDir: %s, DefaultMode: %s, QualityProfile: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.WhisperURL,
		c.DatasetDir,
		c.UploadDir,
		c.DefaultMode,
		c.QualityProfile,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
