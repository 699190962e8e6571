// Package handlers exposes the transcription job API over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"podscribe/internal/fetch"
	"podscribe/internal/jobs"
)

// TranscribeRequest is the POST /api/transcribe body.
type TranscribeRequest struct {
	URL      string `json:"url"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// TranscribeHandler serves the job API backed by the job manager.
type TranscribeHandler struct {
	manager *jobs.Manager

	// checkFFmpeg is swappable in tests.
	checkFFmpeg func() error
}

// NewTranscribeHandler creates a TranscribeHandler.
func NewTranscribeHandler(manager *jobs.Manager) *TranscribeHandler {
	return &TranscribeHandler{
		manager:     manager,
		checkFFmpeg: fetch.CheckFFmpeg,
	}
}

// Register mounts the API routes on the echo instance.
func (h *TranscribeHandler) Register(e *echo.Echo) {
	e.POST("/api/transcribe", h.Submit)
	e.GET("/api/status/:id", h.Status)
	e.GET("/api/download/:id", h.Download)
	e.GET("/api/transcript/:id", h.Transcript)
	e.GET("/api/jobs", h.List)
	e.GET("/api/check-dependencies", h.CheckDependencies)
}

// RegisterStatic serves the front end from dir when it exists; a deployment
// without the directory runs API-only.
func RegisterStatic(e *echo.Echo, dir string) {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		e.Static("/", dir)
	}
}

// Submit accepts a transcription request and returns the queued job ID.
func (h *TranscribeHandler) Submit(c echo.Context) error {
	var req TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "URL is required"})
	}

	id, err := h.manager.Submit(req.URL, req.Model, req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"job_id": id,
		"status": jobs.StatusQueued,
	})
}

// Status returns the current state of one job.
func (h *TranscribeHandler) Status(c echo.Context) error {
	job, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Download sends the transcript file as an attachment.
func (h *TranscribeHandler) Download(c echo.Context) error {
	path, err := h.manager.TranscriptFile(c.Param("id"))
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	case errors.Is(err, jobs.ErrNotReady):
		return c.JSON(http.StatusConflict, map[string]string{"error": "transcription not complete yet"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.Attachment(path, filepath.Base(path))
}

// Transcript returns the full transcript text as JSON.
func (h *TranscribeHandler) Transcript(c echo.Context) error {
	job, text, err := h.manager.Transcript(c.Param("id"))
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	case errors.Is(err, jobs.ErrNotReady):
		return c.JSON(http.StatusConflict, map[string]string{"error": "transcription not complete yet"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"job_id":     job.ID,
		"url":        job.URL,
		"model":      job.Model,
		"transcript": text,
	})
}

// CheckDependencies reports whether the external tools transcription needs
// are installed, so the front end can warn before a job is submitted.
func (h *TranscribeHandler) CheckDependencies(c echo.Context) error {
	if err := h.checkFFmpeg(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "All dependencies are installed",
	})
}

// List returns all known jobs, newest first.
func (h *TranscribeHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"jobs": h.manager.List(),
	})
}
