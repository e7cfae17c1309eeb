package api

import (
	"fmt"
	"time"
)

// JobStatus represents the evaluation job status reported by the service
type JobStatus string

const (
	JobStatusNotStarted JobStatus = "NotStarted"
	JobStatusQueued     JobStatus = "Queued"
	JobStatusRunning    JobStatus = "Running"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
)

func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is expected. Only
// Completed and Failed are terminal, unknown values are not.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func GetJobStatus(s string) (JobStatus, error) {
	switch s {
	case string(JobStatusNotStarted):
		return JobStatusNotStarted, nil
	case string(JobStatusQueued):
		return JobStatusQueued, nil
	case string(JobStatusRunning):
		return JobStatusRunning, nil
	case string(JobStatusCompleted):
		return JobStatusCompleted, nil
	case string(JobStatusFailed):
		return JobStatusFailed, nil
	default:
		return JobStatus(s), fmt.Errorf("invalid job status: %s", s)
	}
}

// DataMapping maps evaluator input fields to dataset column expressions
type DataMapping map[string]string

// EvaluatorConfiguration represents one named evaluator registered on a job
type EvaluatorConfiguration struct {
	ID          string         `json:"id" validate:"required"`
	InitParams  map[string]any `json:"initParams,omitempty"`
	DataMapping DataMapping    `json:"dataMapping,omitempty"`
}

// Dataset is a reference to an uploaded dataset
type Dataset struct {
	Type string `json:"type"`
	ID   string `json:"id" validate:"required"`
}

// Evaluation represents the evaluation job request and the service response
type Evaluation struct {
	ID          string                             `json:"id,omitempty"`
	DisplayName string                             `json:"displayName" validate:"required"`
	Description string                             `json:"description,omitempty"`
	Data        Dataset                            `json:"data" validate:"required"`
	Evaluators  map[string]*EvaluatorConfiguration `json:"evaluators" validate:"required,min=1,dive"`
	Status      JobStatus                          `json:"status,omitempty"`
	Tags        map[string]string                  `json:"tags,omitempty"`
	Properties  map[string]string                  `json:"properties,omitempty"`
	SystemData  *SystemData                        `json:"systemData,omitempty"`
}

// SystemData holds the server side bookkeeping attached to an evaluation
type SystemData struct {
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	LastModifiedAt *time.Time `json:"lastModifiedAt,omitempty"`
}

// JobHandle is what the submitter hands to the poller
type JobHandle struct {
	ID          string    `json:"id" validate:"required"`
	DisplayName string    `json:"display_name"`
	Status      JobStatus `json:"status"`
}
