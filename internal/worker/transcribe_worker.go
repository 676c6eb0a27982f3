package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/conceptbridge/transcription-api/internal/client"
	"github.com/conceptbridge/transcription-api/internal/model"
	"github.com/conceptbridge/transcription-api/internal/service"
	"github.com/conceptbridge/transcription-api/internal/storage"
	"github.com/conceptbridge/transcription-api/internal/store"
)

// TranscribeWorker processes transcription tasks. One task runs per job;
// jobs never block one another and a failing job only marks its own record.
type TranscribeWorker struct {
	jobs      *store.JobStore
	artifacts *storage.LocalStore
	engine    client.TranscriptionEngine
}

func NewTranscribeWorker(jobs *store.JobStore, artifacts *storage.LocalStore, engine client.TranscriptionEngine) *TranscribeWorker {
	return &TranscribeWorker{
		jobs:      jobs,
		artifacts: artifacts,
		engine:    engine,
	}
}

// ProcessTask runs one job to a terminal state. Engine failures are recorded
// on the job and reported as success to asynq: the failure is terminal job
// state, not a retryable task error. The artifact is removed whatever the
// outcome.
func (w *TranscribeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.TranscribeTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := payload.JobID
	log.Printf("Starting transcription job: %s", jobID)

	defer func() {
		if err := w.artifacts.Remove(payload.FilePath); err != nil {
			log.Printf("Cleanup failed for job %s: %v", jobID, err)
		}
	}()

	err := w.jobs.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusProcessing
	})
	if err != nil {
		// Job unknown to this process, e.g. a message left in redis across a
		// restart. Records don't survive restarts, so there is nothing to
		// transition; the deferred cleanup still runs.
		log.Printf("Transcription task for unknown job %s: %v", jobID, err)
		return nil
	}

	// The engine call is the long operation of a job's lifetime. No store
	// lock is held across it; status pollers read the processing snapshot.
	result, err := w.transcribe(ctx, &payload)
	if err != nil {
		w.failJob(jobID, fmt.Sprintf("Transcription failed: %v", err))
		return nil
	}

	segments := make([]model.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = model.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}

	now := time.Now()
	err = w.jobs.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Result = &model.TranscriptionResult{
			Text:     result.Text,
			Segments: segments,
			Language: result.Language,
			Duration: result.Duration,
		}
		j.CompletedAt = &now
	})
	if err != nil {
		return err
	}

	log.Printf("Transcription job %s completed", jobID)
	return nil
}

func (w *TranscribeWorker) transcribe(ctx context.Context, payload *service.TranscribeTaskPayload) (*client.TranscribeResponse, error) {
	if w.engine == nil || !w.engine.IsConfigured() {
		return w.transcribeMock(payload), nil
	}

	return w.engine.Transcribe(ctx, &client.TranscribeRequest{
		FilePath:       payload.FilePath,
		Language:       payload.Params.Language,
		Task:           string(payload.Params.Task),
		WordTimestamps: payload.Params.WordTimestamps,
	})
}

// transcribeMock stands in for the engine in development and tests.
func (w *TranscribeWorker) transcribeMock(payload *service.TranscribeTaskPayload) *client.TranscribeResponse {
	name := filepath.Base(payload.FilePath)
	return &client.TranscribeResponse{
		Text: fmt.Sprintf("Mock transcription of %s. Configure an engine URL for real output.", name),
		Segments: []client.SegmentPayload{
			{Start: 0.0, End: 2.5, Text: fmt.Sprintf("Mock transcription of %s.", name)},
			{Start: 2.5, End: 5.0, Text: "Configure an engine URL for real output."},
		},
		Language: "en",
		Duration: 5.0,
	}
}

func (w *TranscribeWorker) failJob(jobID, msg string) {
	now := time.Now()
	err := w.jobs.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusFailed
		j.Error = &msg
		j.CompletedAt = &now
	})
	if err != nil {
		log.Printf("Failed to mark job %s failed: %v", jobID, err)
	}
}
