package model

import "time"

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job reached a terminal state.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// GenerationRequest holds everything one generation needs.
type GenerationRequest struct {
	DatasetPath  string
	TemplatePath string
	OutputPath   string
	Headline     string
	Images       map[string]string // image key -> file path
	Batch        string
	Client       string
	ReportDate   string
}

// Job tracks a queued generation.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"-"`
	Report     *Report   `json:"report,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// BatchRecord is a persisted record of a prior generation.
type BatchRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Client     string    `json:"client,omitempty"`
	ReportDate string    `json:"report_date,omitempty"`
	InputFile  string    `json:"input_file"`
	OutputPath string    `json:"output_path"`
	CreatedAt  time.Time `json:"created_at"`
	Summary    Summary   `json:"summary"`
}

// Task is the unit of work flowing from the job queue to the workers.
type Task struct {
	JobID   string
	Request GenerationRequest
}
