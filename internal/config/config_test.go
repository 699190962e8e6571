package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ModelsDir != "models" {
		t.Errorf("ModelsDir = %q, want models", cfg.ModelsDir)
	}
	if cfg.TranscriptsDir != "transcripts" {
		t.Errorf("TranscriptsDir = %q, want transcripts", cfg.TranscriptsDir)
	}
	if cfg.StaticDir != "web/static" {
		t.Errorf("StaticDir = %q, want web/static", cfg.StaticDir)
	}
	if cfg.MaxJobs != 2 {
		t.Errorf("MaxJobs = %d, want 2", cfg.MaxJobs)
	}
	if cfg.CaptureTimeout != 60*time.Second {
		t.Errorf("CaptureTimeout = %v, want 60s", cfg.CaptureTimeout)
	}
	if cfg.DownloadTimeout != 10*time.Minute {
		t.Errorf("DownloadTimeout = %v, want 10m", cfg.DownloadTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PODSCRIBE_MAX_JOBS", "4")
	t.Setenv("PODSCRIBE_CAPTURE_TIMEOUT", "90s")
	t.Setenv("PODSCRIBE_DOWNLOAD_TIMEOUT", "120")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.MaxJobs != 4 {
		t.Errorf("MaxJobs = %d, want 4", cfg.MaxJobs)
	}
	if cfg.CaptureTimeout != 90*time.Second {
		t.Errorf("CaptureTimeout = %v, want 90s", cfg.CaptureTimeout)
	}
	if cfg.DownloadTimeout != 120*time.Second {
		t.Errorf("DownloadTimeout = %v, want 120s", cfg.DownloadTimeout)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("PODSCRIBE_MAX_JOBS", "many")
	t.Setenv("PODSCRIBE_CAPTURE_TIMEOUT", "soon")

	cfg := Load()

	if cfg.MaxJobs != 2 {
		t.Errorf("MaxJobs = %d, want default 2", cfg.MaxJobs)
	}
	if cfg.CaptureTimeout != 60*time.Second {
		t.Errorf("CaptureTimeout = %v, want default 60s", cfg.CaptureTimeout)
	}
}
