package model

// Job status
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status allows no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Transcription task kinds
type TaskKind string

const (
	TaskTranscribe TaskKind = "transcribe"
	TaskTranslate  TaskKind = "translate"
)

var ValidTaskKinds = []TaskKind{TaskTranscribe, TaskTranslate}

// LanguageAuto asks the engine to detect the spoken language.
const LanguageAuto = "auto"

// Export formats
type ExportFormat string

const (
	FormatTXT ExportFormat = "txt"
	FormatSRT ExportFormat = "srt"
	FormatVTT ExportFormat = "vtt"
)

// ParseExportFormat validates a format query value. An empty value defaults
// to txt.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch ExportFormat(s) {
	case "":
		return FormatTXT, true
	case FormatTXT, FormatSRT, FormatVTT:
		return ExportFormat(s), true
	default:
		return "", false
	}
}
