package e2e

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/conceptbridge/transcription-api/internal/model"
)

func seedCompletedJob(ta *testApp, id string) {
	now := time.Now()
	ta.jobs.Create(model.Job{
		ID:        id,
		Status:    model.JobStatusCompleted,
		Filename:  "movie.mp4",
		Params:    model.DefaultParams(),
		CreatedAt: now,
		Result: &model.TranscriptionResult{
			Text:     "Hi there",
			Language: "en",
			Duration: 3.0,
			Segments: []model.Segment{
				{Start: 0.0, End: 1.5, Text: "Hi"},
				{Start: 1.5, End: 3.0, Text: "there"},
			},
		},
		CompletedAt: &now,
	})
}

func TestSubmit_NoFile(t *testing.T) {
	ta := setupApp(t)

	resp, err := doMultipartRequest(t, ta.app, "/transcribe", "", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSubmit_DisallowedExtension(t *testing.T) {
	ta := setupApp(t)

	resp, err := doMultipartRequest(t, ta.app, "/transcribe", "notes.txt", "just text", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSubmit_InvalidTask(t *testing.T) {
	ta := setupApp(t)

	resp, err := doMultipartRequest(t, ta.app, "/transcribe", "movie.mp4", "bytes", map[string]string{
		"task": "summarize",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSubmit_Queued(t *testing.T) {
	requireRedis(t)
	ta := setupApp(t)

	resp, err := doMultipartRequest(t, ta.app, "/transcribe", "movie.mp4", "fake video bytes", map[string]string{
		"language": "en",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	body := parseJSON(t, resp)
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected non-empty job_id")
	}
	if body["status"] != "queued" {
		t.Errorf("status = %v, want queued", body["status"])
	}

	// The record exists immediately; no worker server runs in this test, so
	// the job stays queued.
	statusResp, err := doRequest(ta.app, http.MethodGet, "/transcribe/"+jobID, "", nil)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	assertStatus(t, statusResp, http.StatusOK)
	statusBody := parseJSON(t, statusResp)
	if statusBody["status"] != "queued" {
		t.Errorf("job status = %v, want queued", statusBody["status"])
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/no-such-job", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestStatus_Completed(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-1")

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/done-1", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["transcript"] != "Hi there" {
		t.Errorf("transcript = %v", body["transcript"])
	}
	if body["language"] != "en" {
		t.Errorf("language = %v", body["language"])
	}
	segments, ok := body["segments"].([]interface{})
	if !ok || len(segments) != 2 {
		t.Errorf("segments = %v", body["segments"])
	}
}

func TestStatus_CompletedIsIdempotent(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-2")

	resp1, err := doRequest(ta.app, http.MethodGet, "/transcribe/done-2", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body1 := readBody(t, resp1)

	resp2, err := doRequest(ta.app, http.MethodGet, "/transcribe/done-2", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body2 := readBody(t, resp2)

	if body1 != body2 {
		t.Errorf("terminal job returned different payloads:\n%s\n%s", body1, body2)
	}
}

func TestStatus_Failed(t *testing.T) {
	ta := setupApp(t)
	msg := "Transcription failed: engine exploded"
	now := time.Now()
	ta.jobs.Create(model.Job{
		ID:          "bad-1",
		Status:      model.JobStatusFailed,
		Filename:    "movie.mp4",
		Error:       &msg,
		CreatedAt:   now,
		CompletedAt: &now,
	})

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/bad-1", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusInternalServerError)

	body := parseJSON(t, resp)
	if body["error"] != msg {
		t.Errorf("error = %v, want stored message", body["error"])
	}
}

func TestDownload_UnknownJob(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/no-such-job", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestDownload_NotCompleted(t *testing.T) {
	ta := setupApp(t)
	ta.jobs.Create(model.Job{ID: "busy-1", Status: model.JobStatusProcessing, Filename: "movie.mp4"})

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/busy-1", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestDownload_UnknownFormat(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-3")

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/done-3?format=pdf", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestDownload_TXTDefault(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-4")

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/done-4", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "movie.mp4_transcript.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if body := readBody(t, resp); body != "Hi there" {
		t.Errorf("body = %q", body)
	}
}

func TestDownload_SRT(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-5")

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/done-5?format=srt", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := readBody(t, resp)
	wantPrefix := "1\n00:00:00,000 --> 00:00:01,500\nHi\n\n2\n"
	if !strings.HasPrefix(body, wantPrefix) {
		t.Errorf("srt body = %q, want prefix %q", body, wantPrefix)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "movie.mp4_transcript.srt") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDownload_VTT(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-6")

	resp, err := doRequest(ta.app, http.MethodGet, "/transcribe/download/done-6?format=vtt", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := readBody(t, resp)
	if !strings.HasPrefix(body, "WEBVTT\n\n00:00:00.000 --> 00:00:01.500\nHi\n\n") {
		t.Errorf("vtt body = %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vtt") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestLegacyWhisperPrefix(t *testing.T) {
	ta := setupApp(t)
	seedCompletedJob(ta, "done-7")

	resp, err := doRequest(ta.app, http.MethodGet, "/api/whisper/transcribe/done-7", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["transcript"] != "Hi there" {
		t.Errorf("transcript = %v", body["transcript"])
	}
}
