package model

// SubmitResponse is returned by POST /transcribe with status 202.
type SubmitResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// StatusResponse is returned by GET /transcribe/:jobId. Result fields are
// present only for completed jobs, Error only for failed ones.
type StatusResponse struct {
	JobID      string    `json:"job_id"`
	Status     JobStatus `json:"status"`
	Filename   string    `json:"filename,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Segments   []Segment `json:"segments,omitempty"`
	Language   string    `json:"language,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Error      string    `json:"error,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// ExportDocument is a rendered transcript ready to be served as an
// attachment.
type ExportDocument struct {
	Filename    string
	ContentType string
	Body        string
}
