package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:9000", cfg.WhisperURL)
	assert.Equal(t, "whisper-1", cfg.WhisperModel)
	assert.Equal(t, "/tmp/ttsdataset/tts_dataset", cfg.DatasetDir)
	assert.Equal(t, "/tmp/ttsdataset/uploads", cfg.UploadDir)
	assert.Equal(t, "silence", cfg.DefaultMode)
	assert.Equal(t, "default", cfg.QualityProfile)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://whisper:9000")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_MODE", "paragraph")
	t.Setenv("QUALITY_PROFILE", "voice_cloning")
	t.Setenv("S3_BUCKET", "datasets")
	t.Setenv("S3_REGION", "eu-central-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "paragraph", cfg.DefaultMode)
	assert.Equal(t, "voice_cloning", cfg.QualityProfile)
	assert.True(t, cfg.S3Enabled())
}

func TestLoadMissingWhisperURL(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the variable absent.
	t.Setenv("WHISPER_URL", "")
	os.Unsetenv("WHISPER_URL")

	_, err := Load()
	assert.ErrorIs(t, err, ErrWhisperURLRequired)
}

func TestLoadInvalidMode(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://localhost:9000")
	t.Setenv("DEFAULT_MODE", "chapter")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestLoadInvalidProfile(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://localhost:9000")
	t.Setenv("QUALITY_PROFILE", "studio")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestValidate(t *testing.T) {
	cfg := &Config{WhisperURL: "http://localhost:9000", DefaultMode: "silence", QualityProfile: "default"}
	assert.NoError(t, cfg.Validate())

	cfg.WhisperURL = ""
	assert.ErrorIs(t, cfg.Validate(), ErrWhisperURLRequired)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}

func TestStringMasksCredentials(t *testing.T) {
	cfg := &Config{
		WhisperURL:         "http://localhost:9000",
		AWSAccessKeyID:     "AKIAEXAMPLE",
		AWSSecretAccessKey: "secret",
	}
	s := cfg.String()
	assert.NotContains(t, s, "AKIAEXAMPLE")
	assert.NotContains(t, s, "secret")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogFormat: "json", LogLevel: "debug"}
	assert.NotNil(t, cfg.NewLogger())

	cfg = &Config{LogFormat: "text", LogLevel: "info"}
	assert.NotNil(t, cfg.NewLogger())
}
