package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"podscribe/internal/jobs"
	"podscribe/internal/pipeline"
)

// stubRunner completes every pipeline immediately with a fixed transcript.
type stubRunner struct {
	transcript string
	err        error
}

func (r *stubRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err := os.WriteFile(req.OutputPath, []byte(r.transcript), 0644); err != nil {
		return nil, err
	}
	return &pipeline.Result{Transcript: r.transcript, TranscriptPath: req.OutputPath}, nil
}

func newTestAPI(t *testing.T, runner *stubRunner) (*echo.Echo, *jobs.Manager) {
	t.Helper()
	m := jobs.NewManager(runner, 1)
	m.TranscriptsDir = t.TempDir()
	e := echo.New()
	NewTranscribeHandler(m).Register(e)
	return e, m
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func submitJob(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/transcribe",
		`{"url": "https://podcast.ucsd.edu/watch/wi26/cogs108_b00/6", "model": "base"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	if resp["job_id"] == "" {
		t.Fatal("submit response missing job_id")
	}
	if resp["status"] != jobs.StatusQueued {
		t.Errorf("submit status = %q, want queued", resp["status"])
	}
	return resp["job_id"]
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	e, _ := newTestAPI(t, &stubRunner{})

	cases := []struct {
		name string
		body string
	}{
		{"missing URL", `{"model": "base"}`},
		{"bad model", `{"url": "https://podcast.ucsd.edu/x", "model": "huge"}`},
		{"not JSON", `not json at all`},
		{"non-http URL", `{"url": "file:///etc/passwd"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/transcribe", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body: %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatusLifecycle(t *testing.T) {
	e, m := newTestAPI(t, &stubRunner{transcript: "So today we are going to review the midterm results together."})

	id := submitJob(t, e)
	m.Wait()

	rec := doJSON(e, http.MethodGet, "/api/status/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var job jobs.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if job.Status != jobs.StatusComplete {
		t.Errorf("job status = %q, want complete (error: %s)", job.Status, job.Error)
	}
	if job.Progress != 100 {
		t.Errorf("progress = %d, want 100", job.Progress)
	}
	if job.TranscriptPreview == "" {
		t.Error("preview missing from status payload")
	}
	if strings.Contains(rec.Body.String(), "transcript_path") {
		t.Error("status payload should not expose file paths")
	}
}

func TestStatusUnknownJob(t *testing.T) {
	e, _ := newTestAPI(t, &stubRunner{})

	rec := doJSON(e, http.MethodGet, "/api/status/no-such-job", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadTranscript(t *testing.T) {
	text := "So today we are going to cover clustering. It works on unlabeled data."
	e, m := newTestAPI(t, &stubRunner{transcript: text})

	id := submitJob(t, e)
	m.Wait()

	rec := doJSON(e, http.MethodGet, "/api/download/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != text {
		t.Errorf("downloaded body = %q, want the transcript", rec.Body.String())
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
}

func TestDownloadNotReady(t *testing.T) {
	e, m := newTestAPI(t, &stubRunner{err: context.DeadlineExceeded})

	id := submitJob(t, e)
	m.Wait()

	rec := doJSON(e, http.MethodGet, "/api/download/"+id, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/download/no-such-job", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTranscriptEndpoint(t *testing.T) {
	text := "So today we are going to finish the proof from last lecture."
	e, m := newTestAPI(t, &stubRunner{transcript: text})

	id := submitJob(t, e)
	m.Wait()

	rec := doJSON(e, http.MethodGet, "/api/transcript/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding transcript response: %v", err)
	}
	if resp["transcript"] != text {
		t.Errorf("transcript = %q", resp["transcript"])
	}
	if resp["job_id"] != id {
		t.Errorf("job_id = %q, want %q", resp["job_id"], id)
	}
}

func TestCheckDependencies(t *testing.T) {
	h := NewTranscribeHandler(jobs.NewManager(&stubRunner{}, 1))
	h.checkFFmpeg = func() error { return nil }
	e := echo.New()
	h.Register(e)

	rec := doJSON(e, http.MethodGet, "/api/check-dependencies", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want ok", resp["status"])
	}

	h.checkFFmpeg = func() error { return errors.New("ffmpeg not found: please install ffmpeg") }
	rec = doJSON(e, http.MethodGet, "/api/check-dependencies", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "error" || resp["message"] == "" {
		t.Errorf("error payload = %v", resp)
	}
}

func TestRegisterStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>podscribe</html>"), 0644); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	RegisterStatic(e, dir)

	rec := doJSON(e, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "podscribe") {
		t.Errorf("index not served: %q", rec.Body.String())
	}
}

func TestRegisterStaticMissingDir(t *testing.T) {
	e := echo.New()
	RegisterStatic(e, filepath.Join(t.TempDir(), "no-such-dir"))

	rec := doJSON(e, http.MethodGet, "/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no front end is deployed", rec.Code)
	}
}

func TestListJobs(t *testing.T) {
	e, m := newTestAPI(t, &stubRunner{transcript: "So today we wrap up the course with a short review session."})

	first := submitJob(t, e)
	second := submitJob(t, e)
	m.Wait()

	rec := doJSON(e, http.MethodGet, "/api/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(resp.Jobs))
	}
	ids := map[string]bool{resp.Jobs[0].ID: true, resp.Jobs[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Errorf("list missing submitted jobs: %v", ids)
	}
}
