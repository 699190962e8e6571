// Package pipeline composes capture, download, transcription, and cleanup
// into one end-to-end run producing a saved transcript file.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podscribe/internal/asr"
	"podscribe/internal/capture"
	"podscribe/internal/clean"
	"podscribe/internal/fetch"
)

// Stage names. They double as job status values on the web layer.
const (
	StageCapture    = "capturing"
	StageDownload   = "downloading"
	StageTranscribe = "transcribing"
	StageClean      = "cleaning"
	StageSave       = "saving"
)

// StageError tags a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// ManifestCapturer extracts a stream manifest URL from a podcast page.
type ManifestCapturer interface {
	CaptureManifest(ctx context.Context, pageURL string) (string, error)
}

// AudioFetcher pulls stream audio to local files and probes it.
type AudioFetcher interface {
	Fetch(ctx context.Context, manifestURL, outPath string) error
	FetchYouTube(ctx context.Context, videoURL, outBase string) (string, error)
	ConvertToWav(ctx context.Context, inputPath, outputPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Transcriber turns a 16kHz mono WAV file into text.
type Transcriber interface {
	Transcribe(wavPath, tier, language string) (string, error)
}

// Request describes one end-to-end transcription run.
type Request struct {
	URL      string
	Model    string
	Language string
	// OutputPath overrides the default timestamp-derived transcript path.
	OutputPath string
	// KeepAudio retains the downloaded audio file after the run.
	KeepAudio bool

	// OnStage receives stage transitions; OnProgress receives transcription
	// progress as a fraction plus an ETA in minutes. Both may be nil.
	OnStage    func(stage string)
	OnProgress func(fraction, etaMinutes float64)
}

// Result carries the cleaned transcript and artifact locations.
type Result struct {
	Transcript     string
	TranscriptPath string
	// AudioPath is set when KeepAudio was requested.
	AudioPath string
}

// Driver runs the full pipeline. Collaborators are injected so stages can be
// faked in tests; New wires the production implementations.
type Driver struct {
	Capturer    ManifestCapturer
	Fetcher     AudioFetcher
	Transcriber Transcriber

	// TranscriptsDir receives transcript files; AudioDir receives scratch
	// audio that is deleted after the run unless KeepAudio is set.
	TranscriptsDir string
	AudioDir       string
}

// New creates a Driver with production collaborators and default directories.
func New(models *asr.Loader) *Driver {
	return &Driver{
		Capturer:       capture.New(),
		Fetcher:        fetch.New(),
		Transcriber:    models,
		TranscriptsDir: "transcripts",
		AudioDir:       "audio_temp",
	}
}

// Run executes capture → download → transcribe → clean → save and returns
// the cleaned transcript. The first stage failure aborts the run and is
// returned as a *StageError. Temporary audio is removed on every path unless
// KeepAudio is set.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	tier := req.Model
	if tier == "" {
		tier = asr.DefaultTier
	}
	if !asr.IsValidTier(tier) {
		return nil, stageErr(StageTranscribe,
			fmt.Errorf("invalid model %q: must be one of %s", req.Model, asr.TierList()))
	}
	if err := validateURL(req.URL); err != nil {
		return nil, stageErr(StageCapture, err)
	}

	timestamp := time.Now().Format("20060102_150405")

	audioPath, err := d.acquireAudio(ctx, req, timestamp)
	if err != nil {
		return nil, err
	}
	wavPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".wav"
	defer func() {
		os.Remove(wavPath)
		if !req.KeepAudio {
			os.Remove(audioPath)
		}
	}()

	emit(req.OnStage, StageTranscribe)

	// Duration feeds the ETA estimate; when probing fails assume an hour of
	// lecture rather than aborting.
	audioSeconds, probeErr := d.Fetcher.ProbeDuration(ctx, audioPath)
	if probeErr != nil || audioSeconds <= 0 {
		audioSeconds = 3600
	}

	if err := d.Fetcher.ConvertToWav(ctx, audioPath, wavPath); err != nil {
		return nil, stageErr(StageTranscribe, err)
	}

	stopProgress := d.reportProgress(ctx, req.OnProgress, tier, audioSeconds)
	text, err := d.Transcriber.Transcribe(wavPath, tier, req.Language)
	stopProgress()
	if err != nil {
		return nil, stageErr(StageTranscribe, err)
	}

	emit(req.OnStage, StageClean)
	cleaned := clean.Clean(text)

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(d.TranscriptsDir, fmt.Sprintf("transcript_%s.txt", timestamp))
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, stageErr(StageSave, err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(cleaned), 0644); err != nil {
		return nil, stageErr(StageSave, err)
	}

	result := &Result{
		Transcript:     cleaned,
		TranscriptPath: outputPath,
	}
	if req.KeepAudio {
		result.AudioPath = audioPath
	}
	return result, nil
}

// acquireAudio routes the source URL to the right download strategy and
// returns the local audio path.
func (d *Driver) acquireAudio(ctx context.Context, req Request, timestamp string) (string, error) {
	base := filepath.Join(d.AudioDir, "podcast_"+timestamp)

	switch {
	case capture.IsUCSDPodcastURL(req.URL):
		emit(req.OnStage, StageCapture)
		manifestURL, err := d.Capturer.CaptureManifest(ctx, req.URL)
		if err != nil {
			return "", stageErr(StageCapture, err)
		}

		emit(req.OnStage, StageDownload)
		audioPath := base + ".mp3"
		if err := d.Fetcher.Fetch(ctx, manifestURL, audioPath); err != nil {
			return "", stageErr(StageDownload, err)
		}
		return audioPath, nil

	case fetch.IsYouTubeURL(req.URL):
		emit(req.OnStage, StageDownload)
		audioPath, err := d.Fetcher.FetchYouTube(ctx, req.URL, base)
		if err != nil {
			return "", stageErr(StageDownload, err)
		}
		return audioPath, nil

	default:
		// Direct manifest or media URL: ffmpeg ingests it as-is.
		emit(req.OnStage, StageDownload)
		audioPath := base + ".mp3"
		if err := d.Fetcher.Fetch(ctx, capture.CleanManifestURL(req.URL), audioPath); err != nil {
			return "", stageErr(StageDownload, err)
		}
		return audioPath, nil
	}
}

// reportProgress ticks transcription progress estimates to the callback
// until the returned stop function is called.
func (d *Driver) reportProgress(ctx context.Context, onProgress func(fraction, etaMinutes float64), tier string, audioSeconds float64) func() {
	if onProgress == nil {
		return func() {}
	}

	est := asr.NewEstimator(tier, audioSeconds)
	onProgress(0, est.ExpectedMinutes())

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				onProgress(est.Fraction(), est.RemainingMinutes())
			}
		}
	}()
	return func() { close(done) }
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: must start with http", rawURL)
	}
	return nil
}

func emit(onStage func(string), stage string) {
	if onStage != nil {
		onStage(stage)
	}
}
