package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram
	BotToken string

	// Admin API
	APIPort            string // Empty = admin API disabled
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Filesystem layout
	VoicesDir  string // One normalized sample per user lives under here
	OutputsDir string // Per-request synthesis artifacts (transient)
	TempDir    string // Request-scoped staging directories

	// Synthesis engine (XTTS-style voice cloning CLI)
	TTSBinary   string
	TTSModel    string
	TTSLanguage string

	// Transcoder
	FFmpegBinary string
	SampleRate   int // Canonical sample rate for normalized voice samples

	// Jobs
	MaxConcurrentJobs      int // Bounded worker slots for engine/transcoder calls
	SlotWaitTimeoutSeconds int // How long a job may wait for a slot before Busy

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:               getEnv("BOT_TOKEN", ""),
		APIPort:                getEnv("API_PORT", "8080"),
		BackendAPIKey:          getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:     getEnv("CORS_ALLOWED_ORIGINS", ""),
		VoicesDir:              getEnv("VOICES_DIR", "voices"),
		OutputsDir:             getEnv("OUTPUTS_DIR", "outputs"),
		TempDir:                getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "voiceclone")),
		TTSBinary:              getEnv("TTS_BINARY", "tts"),
		TTSModel:               getEnv("TTS_MODEL", "tts_models/multilingual/multi-dataset/xtts_v2"),
		TTSLanguage:            getEnv("TTS_LANGUAGE", "en"),
		FFmpegBinary:           getEnv("FFMPEG_BINARY", "ffmpeg"),
		SampleRate:             getEnvInt("SAMPLE_RATE", 22050),
		MaxConcurrentJobs:      getEnvInt("MAX_CONCURRENT_JOBS", 2),
		SlotWaitTimeoutSeconds: getEnvInt("SLOT_WAIT_TIMEOUT_SECONDS", 30),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}

	if cfg.MaxConcurrentJobs <= 0 {
		return nil, fmt.Errorf("MAX_CONCURRENT_JOBS must be positive, got %d", cfg.MaxConcurrentJobs)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
