// Package config loads server settings from the environment, with an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// ModelsDir holds downloaded speech model directories.
	ModelsDir string
	// TranscriptsDir receives transcript files.
	TranscriptsDir string
	// AudioDir receives scratch audio during a run.
	AudioDir string
	// StaticDir holds the front end; served only when the directory exists.
	StaticDir string
	// MaxJobs caps concurrently running pipelines.
	MaxJobs int
	// CaptureTimeout bounds the headless-browser capture stage.
	CaptureTimeout time.Duration
	// DownloadTimeout bounds each ffmpeg invocation.
	DownloadTimeout time.Duration
	// NumThreads passed to the speech model runtime. 0 picks a default.
	NumThreads int
}

// Load reads the .env file when present and returns settings from the
// environment, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		ModelsDir:       getEnv("PODSCRIBE_MODELS_DIR", "models"),
		TranscriptsDir:  getEnv("PODSCRIBE_TRANSCRIPTS_DIR", "transcripts"),
		AudioDir:        getEnv("PODSCRIBE_AUDIO_DIR", "audio_temp"),
		StaticDir:       getEnv("PODSCRIBE_STATIC_DIR", "web/static"),
		MaxJobs:         getEnvInt("PODSCRIBE_MAX_JOBS", 2),
		CaptureTimeout:  getEnvDuration("PODSCRIBE_CAPTURE_TIMEOUT", 60*time.Second),
		DownloadTimeout: getEnvDuration("PODSCRIBE_DOWNLOAD_TIMEOUT", 10*time.Minute),
		NumThreads:      getEnvInt("PODSCRIBE_NUM_THREADS", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s", "5m") and bare
// second counts ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
