// Package fetch downloads and transcodes podcast audio. HLS manifests go
// through ffmpeg; non-UCSD URLs fall back to a direct YouTube download.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrDownload indicates the external tool failed to produce audio. The
// wrapped message carries the tool's diagnostic output.
var ErrDownload = errors.New("audio download failed")

// commandResult captures one external command invocation.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Fetcher pulls audio streams to local files.
type Fetcher struct {
	// FFmpegPath and FFprobePath default to the binaries on PATH.
	FFmpegPath  string
	FFprobePath string
	// Timeout bounds one download; HLS pulls of long lectures are slow.
	Timeout time.Duration

	runner commandRunner
}

// New creates a Fetcher using the system ffmpeg with a ten-minute timeout.
func New() *Fetcher {
	return &Fetcher{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     10 * time.Minute,
		runner:      execRunner{},
	}
}

// newWithRunner constructs a Fetcher with an injected command runner.
func newWithRunner(r commandRunner) *Fetcher {
	f := New()
	f.runner = r
	return f
}

// Fetch downloads an HLS manifest and transcodes it to 192k MP3 at outPath.
// ffmpeg writes progress noise to stderr and occasionally exits nonzero after
// producing a complete file, so a non-empty output is accepted as success.
func (f *Fetcher) Fetch(ctx context.Context, manifestURL, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrDownload, err)
	}

	args := []string{
		"-i", manifestURL,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-y",
		outPath,
	}

	result, err := f.runner.Run(ctx, f.FFmpegPath, args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %s", ErrDownload, f.timeout())
		}
		if info, statErr := os.Stat(outPath); statErr == nil && info.Size() > 0 {
			return nil
		}
		return fmt.Errorf("%w: ffmpeg exit %d: %s", ErrDownload, result.ExitCode, tail(result.Stderr))
	}
	return nil
}

// ConvertToWav transcodes any supported audio file to the 16kHz mono WAV the
// speech model expects.
func (f *Fetcher) ConvertToWav(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: input file not found: %s", ErrDownload, inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrDownload, err)
	}

	args := []string{
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"-y",
		outputPath,
	}

	result, err := f.runner.Run(ctx, f.FFmpegPath, args...)
	if err != nil {
		return fmt.Errorf("%w: ffmpeg conversion exit %d: %s", ErrDownload, result.ExitCode, tail(result.Stderr))
	}
	return nil
}

// ProbeDuration returns the audio duration in seconds via ffprobe.
func (f *Fetcher) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}

	result, err := f.runner.Run(ctx, f.FFprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to probe audio duration: %w", err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(result.Stdout), "%f", &duration); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", result.Stdout, err)
	}
	return duration, nil
}

// CheckFFmpeg verifies ffmpeg is installed. Capture and transcription can't
// run without it, so the CLI refuses to start and the server warns loudly.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg")
	}
	return nil
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout <= 0 {
		return 10 * time.Minute
	}
	return f.Timeout
}

// tail keeps error payloads readable; ffmpeg stderr can run to megabytes.
func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 2000
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
