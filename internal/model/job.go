package model

import "time"

// TranscriptionParams are the engine options requested at submission.
// They are immutable once the job is created.
type TranscriptionParams struct {
	Language       string   `json:"language" validate:"required"`
	Task           TaskKind `json:"task" validate:"required,oneof=transcribe translate"`
	WordTimestamps bool     `json:"word_timestamps"`
}

// DefaultParams returns the parameters used when the caller specifies none.
func DefaultParams() TranscriptionParams {
	return TranscriptionParams{
		Language:       LanguageAuto,
		Task:           TaskTranscribe,
		WordTimestamps: true,
	}
}

// Segment is a time-bounded span of transcript text. Segments are ordered by
// Start ascending; Start <= End.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the engine output for a completed job.
type TranscriptionResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
}

// Job tracks one transcription request from queued to terminal state.
// Exactly one of Result/Error is set, and only once Status is terminal.
// Result and Error are write-once: the owning worker sets them and never
// mutates them afterwards, so store snapshots may share the pointers.
type Job struct {
	ID          string               `json:"id"`
	Status      JobStatus            `json:"status"`
	Filename    string               `json:"filename"`
	Params      TranscriptionParams  `json:"params"`
	Result      *TranscriptionResult `json:"result,omitempty"`
	Error       *string              `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}
