// Package jobs owns the in-memory job table and runs one pipeline per
// submitted job on a bounded worker pool.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"podscribe/internal/asr"
	"podscribe/internal/pipeline"
)

// ErrJobNotFound is returned for unknown job identifiers.
var ErrJobNotFound = errors.New("job not found")

// ErrNotReady is returned when a transcript is requested before completion.
var ErrNotReady = errors.New("transcription not complete yet")

// previewLen caps the transcript preview carried in status payloads.
const previewLen = 500

// PipelineRunner is the execution surface the manager schedules work onto.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Manager tracks jobs and dispatches their pipelines to background
// goroutines. All table access goes through one mutex; readers get value
// snapshots so status polls never observe a partially updated job.
type Manager struct {
	// TranscriptsDir receives per-job transcript files.
	TranscriptsDir string

	runner PipelineRunner
	sem    chan struct{}

	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// NewManager creates a Manager executing at most maxConcurrent pipelines at
// once. The source system ran unbounded; a cap keeps browser and model
// processes from piling up.
func NewManager(runner PipelineRunner, maxConcurrent int) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Manager{
		TranscriptsDir: "transcripts",
		runner:         runner,
		sem:            make(chan struct{}, maxConcurrent),
		jobs:           make(map[string]*Job),
	}
}

// Submit validates the request, registers a queued job, and schedules its
// pipeline. It returns the new job identifier immediately.
func (m *Manager) Submit(url, model, language string) (string, error) {
	if !strings.HasPrefix(url, "http") {
		return "", fmt.Errorf("invalid URL format")
	}
	if model == "" {
		model = asr.DefaultTier
	}
	if !asr.IsValidTier(model) {
		return "", fmt.Errorf("invalid model: must be one of %s", asr.TierList())
	}

	job := &Job{
		ID:        uuid.NewString(),
		URL:       url,
		Model:     model,
		Language:  language,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(job.ID)

	log.Printf("Job %s submitted (url: %s, model: %s)", job.ID, url, model)
	return job.ID, nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TranscriptFile returns the transcript path for a completed job.
func (m *Manager) TranscriptFile(id string) (string, error) {
	job, err := m.Get(id)
	if err != nil {
		return "", err
	}
	if job.Status != StatusComplete {
		return "", ErrNotReady
	}
	if job.TranscriptPath == "" {
		return "", ErrJobNotFound
	}
	return job.TranscriptPath, nil
}

// Transcript returns the full transcript text for a completed job, reading
// it back from disk when the in-memory copy is gone.
func (m *Manager) Transcript(id string) (Job, string, error) {
	job, err := m.Get(id)
	if err != nil {
		return Job{}, "", err
	}
	if job.Status != StatusComplete {
		return Job{}, "", ErrNotReady
	}
	if job.Transcript != "" {
		return job, job.Transcript, nil
	}

	data, err := os.ReadFile(job.TranscriptPath)
	if err != nil {
		return Job{}, "", fmt.Errorf("transcript not found: %w", err)
	}
	return job, string(data), nil
}

// Wait blocks until all scheduled pipelines finish. Used by tests and
// graceful shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run executes one job's pipeline on the worker pool and folds stage and
// progress callbacks into the job table.
func (m *Manager) run(id string) {
	defer m.wg.Done()

	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	job, err := m.Get(id)
	if err != nil {
		return
	}

	now := time.Now()
	m.update(id, func(j *Job) {
		j.StartedAt = &now
	})

	req := pipeline.Request{
		URL:        job.URL,
		Model:      job.Model,
		Language:   job.Language,
		OutputPath: m.outputPath(id),
		OnStage: func(stage string) {
			m.setStage(id, stage)
		},
		OnProgress: func(fraction, etaMinutes float64) {
			m.setTranscribeProgress(id, fraction, etaMinutes)
		},
	}

	result, err := m.runner.Run(context.Background(), req)
	if err != nil {
		log.Printf("Job %s failed: %v", id, err)
		m.update(id, func(j *Job) {
			j.Status = StatusError
			j.Error = err.Error()
			j.Progress = 0
			j.ETAMinutes = nil
		})
		return
	}

	completed := time.Now()
	zero := 0.0
	m.update(id, func(j *Job) {
		j.Status = StatusComplete
		j.Progress = 100
		j.ETAMinutes = &zero
		j.TranscriptPath = result.TranscriptPath
		j.Transcript = result.Transcript
		j.TranscriptPreview = preview(result.Transcript)
		j.CompletedAt = &completed
	})
	log.Printf("Job %s completed (%s)", id, result.TranscriptPath)
}

// setStage advances status and base progress for a stage, never moving
// backwards. Stage names from the pipeline match status values.
func (m *Manager) setStage(id, stage string) {
	base := map[string]int{
		StatusCapturing:    5,
		StatusDownloading:  10,
		StatusTranscribing: 40,
		StatusCleaning:     85,
	}
	progress, ok := base[stage]
	if !ok {
		return
	}
	m.update(id, func(j *Job) {
		if isTerminal(j.Status) || statusRank[stage] <= statusRank[j.Status] {
			return
		}
		j.Status = stage
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

// setTranscribeProgress maps the transcription fraction onto the 40–80%
// band of overall job progress.
func (m *Manager) setTranscribeProgress(id string, fraction, etaMinutes float64) {
	m.update(id, func(j *Job) {
		if j.Status != StatusTranscribing {
			return
		}
		progress := 40 + int(fraction*40)
		if progress > j.Progress {
			j.Progress = progress
		}
		eta := etaMinutes
		j.ETAMinutes = &eta
	})
}

// update applies fn to a job under the table lock.
func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		fn(job)
	}
}

func (m *Manager) outputPath(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(m.TranscriptsDir, fmt.Sprintf("transcript_%s_%s.txt", timestamp, short))
}

// preview truncates to previewLen bytes without splitting a rune, so the
// JSON payload stays valid UTF-8.
func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
