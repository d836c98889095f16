package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Blob storage (finished MP4s)
	BlobStoreURL string
	BlobToken    string

	// ElevenLabs (narration + TTS preview)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// OpenAI (script generation, optional feature)
	OpenAIKey string

	// Render pipeline
	RenderOutputDir string // encoded MP4s land here before upload
	FontDir         string // bundled .ttf files, searched before system fonts
	QRDefaultURL    string // QR target when the spec carries no website URL

	// Timing constants. Tuned against the browser preview renderer, so
	// they are configuration, not compiled-in values.
	SlideSeconds        float64 // minimum display time for a text slide
	ClosingSlideSeconds float64 // minimum display time for the closing slide
	NarrationPadSeconds float64 // trailing pad after each narration clip
	MusicVolume         float64 // default background music attenuation

	// Timeouts
	RenderTimeoutSeconds     int // hard cap on one ffmpeg invocation
	AssetFetchTimeoutSeconds int // per remote asset download

	// Worker
	MaxConcurrentJobs int // render jobs processed in parallel
	SlideWorkers      int // per-job concurrent slide compose/synthesize
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		BlobStoreURL:       getEnv("BLOB_STORE_URL", "https://blob.vercel-storage.com"),
		BlobToken:          getEnv("BLOB_READ_WRITE_TOKEN", ""),
		ElevenLabsKey:      getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:  getEnv("ELEVENLABS_VOICE_ID", ""),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		RenderOutputDir:    getEnv("RENDER_OUTPUT_DIR", "/tmp/reelforge_renders"),
		FontDir:            getEnv("FONT_DIR", "assets/fonts"),
		QRDefaultURL:       getEnv("QR_DEFAULT_URL", "https://checkwellcare.com"),

		SlideSeconds:        getEnvFloat("SLIDE_SECONDS", 2.8),
		ClosingSlideSeconds: getEnvFloat("CLOSING_SLIDE_SECONDS", 4.0),
		NarrationPadSeconds: getEnvFloat("NARRATION_PAD_SECONDS", 1.7),
		MusicVolume:         getEnvFloat("MUSIC_VOLUME", 0.15),

		RenderTimeoutSeconds:     getEnvInt("RENDER_TIMEOUT_SECONDS", 300),
		AssetFetchTimeoutSeconds: getEnvInt("ASSET_FETCH_TIMEOUT_SECONDS", 20),

		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 3),
		SlideWorkers:      getEnvInt("SLIDE_WORKERS", 4),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.WorkerEnabled && cfg.BlobToken == "" {
		return nil, fmt.Errorf("BLOB_READ_WRITE_TOKEN is required when the worker is enabled")
	}

	if cfg.SlideSeconds <= 0 || cfg.ClosingSlideSeconds <= 0 {
		return nil, fmt.Errorf("slide durations must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
