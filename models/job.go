package models

import (
	"time"

	"fileconverter/formats"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// SourceFile is the input to a conversion: the raw bytes plus what the
// caller declared about them.
type SourceFile struct {
	Name string
	Size int64
	MIME string
	Data []byte
}

// Job is one conversion request for a single file and target format. The
// queue is the sole writer of its mutable fields; everything handed to
// callers is a copy.
type Job struct {
	ID           string
	Source       SourceFile
	Category     formats.Category
	SourceFormat string
	TargetFormat string
	Status       JobStatus
	Progress     int
	ErrorMessage string
	Result       []byte
	ResultName   string
	ResultMIME   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone returns a copy safe to hand to readers. Result bytes are shared
// since they are written once and never mutated afterwards.
func (j *Job) Clone() Job {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
