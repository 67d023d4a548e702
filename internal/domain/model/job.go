package model

import "time"

// AnalysisJob asks for one asynchronous analysis of a stored dataset.
type AnalysisJob struct {
	ID          string    `json:"id"`
	DatasetID   string    `json:"dataset_id"`
	Filter      Filter    `json:"filter"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// JobStatus is the lifecycle state of an AnalysisJob.
type JobStatus string

// Job states.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job has finished.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}
