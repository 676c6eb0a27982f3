package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/conceptbridge/transcription-api/internal/model"
	"github.com/conceptbridge/transcription-api/internal/storage"
	"github.com/conceptbridge/transcription-api/internal/store"
	"github.com/conceptbridge/transcription-api/internal/transcript"
)

const TaskTypeTranscribe = "transcribe:process"

// ErrFileTypeNotAllowed is returned for uploads outside the extension
// allow-list.
var ErrFileTypeNotAllowed = errors.New("file type not allowed")

// ErrJobNotCompleted is returned when an export is requested before the job
// reaches completed state.
var ErrJobNotCompleted = errors.New("job not completed")

// allowedExtensions is the upload allow-list, matched case-insensitively
// against the suffix after the last dot.
var allowedExtensions = map[string]bool{
	"mp4":  true,
	"mov":  true,
	"avi":  true,
	"mkv":  true,
	"webm": true,
	"wmv":  true,
	"flv":  true,
}

// AllowedFile reports whether the filename carries an allowed extension.
func AllowedFile(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[idx+1:])]
}

// TranscribeTaskPayload is the asynq task body dispatched per job. The
// artifact path travels here rather than in the job record: the worker owns
// the artifact exclusively from dispatch until deletion.
type TranscribeTaskPayload struct {
	JobID    string                    `json:"job_id"`
	FilePath string                    `json:"file_path"`
	Params   model.TranscriptionParams `json:"params"`
}

// TranscriptionService owns the transcription job lifecycle's write side
// (submission) and read side (status, export).
type TranscriptionService struct {
	jobs        *store.JobStore
	artifacts   *storage.LocalStore
	asynqClient *asynq.Client
}

func NewTranscriptionService(jobs *store.JobStore, artifacts *storage.LocalStore, asynqClient *asynq.Client) *TranscriptionService {
	return &TranscriptionService{
		jobs:        jobs,
		artifacts:   artifacts,
		asynqClient: asynqClient,
	}
}

// Submit validates the upload, persists the artifact, creates a queued job
// record and dispatches a background task. It returns as soon as the task is
// enqueued; transcription happens asynchronously.
func (s *TranscriptionService) Submit(ctx context.Context, filename string, file io.Reader, params model.TranscriptionParams) (*model.SubmitResponse, error) {
	if !AllowedFile(filename) {
		return nil, ErrFileTypeNotAllowed
	}

	filePath, err := s.artifacts.Save(filename, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	jobID := uuid.New().String()
	s.jobs.Create(model.Job{
		ID:        jobID,
		Status:    model.JobStatusQueued,
		Filename:  storage.Sanitize(filename),
		Params:    params,
		CreatedAt: time.Now(),
	})

	task, err := newTranscribeTask(jobID, filePath, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// No retries: the worker deletes the artifact in every outcome, so a
	// second attempt would have no input to read.
	_, err = s.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue("transcribe"),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		msg := "failed to queue job"
		now := time.Now()
		_ = s.jobs.Update(jobID, func(j *model.Job) {
			j.Status = model.JobStatusFailed
			j.Error = &msg
			j.CompletedAt = &now
		})
		_ = s.artifacts.Remove(filePath)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SubmitResponse{
		JobID:   jobID,
		Status:  model.JobStatusQueued,
		Message: "Video uploaded and queued for transcription",
	}, nil
}

// GetStatus returns the current state of a job. Terminal jobs always return
// the same payload.
func (s *TranscriptionService) GetStatus(jobID string) (*model.StatusResponse, error) {
	job, err := s.jobs.Get(jobID)
	if err != nil {
		return nil, err
	}

	resp := &model.StatusResponse{
		JobID:  job.ID,
		Status: job.Status,
	}

	switch job.Status {
	case model.JobStatusCompleted:
		resp.Filename = job.Filename
		resp.Transcript = job.Result.Text
		resp.Segments = job.Result.Segments
		resp.Language = job.Result.Language
		resp.Duration = job.Result.Duration
	case model.JobStatusFailed:
		resp.Error = *job.Error
	default:
		resp.Message = "Transcription in progress..."
	}

	return resp, nil
}

// Export renders a completed job's transcript in the requested format.
func (s *TranscriptionService) Export(jobID string, format model.ExportFormat) (*model.ExportDocument, error) {
	job, err := s.jobs.Get(jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusCompleted {
		return nil, ErrJobNotCompleted
	}

	doc := &model.ExportDocument{
		Filename: fmt.Sprintf("%s_transcript.%s", job.Filename, format),
	}

	switch format {
	case model.FormatSRT:
		doc.ContentType = "text/plain"
		doc.Body = transcript.RenderSRT(job.Result)
	case model.FormatVTT:
		doc.ContentType = "text/vtt"
		doc.Body = transcript.RenderVTT(job.Result)
	case model.FormatTXT:
		doc.ContentType = "text/plain"
		doc.Body = transcript.RenderText(job.Result)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}

	return doc, nil
}

func newTranscribeTask(jobID, filePath string, params model.TranscriptionParams) (*asynq.Task, error) {
	data, err := json.Marshal(TranscribeTaskPayload{
		JobID:    jobID,
		FilePath: filePath,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTranscribe, data), nil
}
