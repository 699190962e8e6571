package jobs

import "time"

// Job statuses, in pipeline order. A job only moves forward through these;
// error is reachable from any non-terminal state. error and complete are
// terminal.
const (
	StatusQueued       = "queued"
	StatusCapturing    = "capturing"
	StatusDownloading  = "downloading"
	StatusTranscribing = "transcribing"
	StatusCleaning     = "cleaning"
	StatusComplete     = "complete"
	StatusError        = "error"
)

// statusRank orders the non-error statuses for monotonicity checks.
var statusRank = map[string]int{
	StatusQueued:       0,
	StatusCapturing:    1,
	StatusDownloading:  2,
	StatusTranscribing: 3,
	StatusCleaning:     4,
	StatusComplete:     5,
}

// isTerminal reports whether a status permits no further transitions.
func isTerminal(status string) bool {
	return status == StatusComplete || status == StatusError
}

// Job tracks one transcription request from submission to completion. The
// table lives in memory only; jobs are never deleted and do not survive a
// process restart.
type Job struct {
	ID       string `json:"job_id"`
	URL      string `json:"url"`
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`

	Status   string `json:"status"`
	Progress int    `json:"progress"`
	// ETAMinutes is nil until an estimate exists.
	ETAMinutes        *float64 `json:"eta_minutes"`
	Error             string   `json:"error,omitempty"`
	TranscriptPreview string   `json:"transcript_preview,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Artifacts are not exposed in status payloads.
	TranscriptPath string `json:"-"`
	Transcript     string `json:"-"`
}
