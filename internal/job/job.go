// Package job keeps the in-memory table of translation jobs and enforces
// their lifecycle.
package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further change is accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	ErrDuplicateJob        = errors.New("job already exists")
	ErrJobNotFound         = errors.New("job not found")
	ErrInvalidTransition   = errors.New("invalid job transition")
	ErrResultPathInvariant = errors.New("result path must be set exactly when a job is completed")
)

// Job is one translation request. Values returned by Store are snapshots.
type Job struct {
	ID         string
	Filename   string
	Status     Status
	Progress   float64
	Message    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResultPath string
}

// New returns a pending job with a fresh id.
func New(filename string) Job {
	now := time.Now().UTC()
	return Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasResult reports whether a translated file can be downloaded.
func (j Job) HasResult() bool {
	return j.Status == StatusCompleted && j.ResultPath != ""
}

// Changes lists the fields an update sets; nil fields are left alone.
type Changes struct {
	Status     *Status
	Progress   *float64
	Message    *string
	ResultPath *string
}

// WithStatus sets Status.
func (c Changes) WithStatus(s Status) Changes {
	c.Status = &s
	return c
}

// WithProgress sets Progress.
func (c Changes) WithProgress(p float64) Changes {
	c.Progress = &p
	return c
}

// WithMessage sets Message.
func (c Changes) WithMessage(m string) Changes {
	c.Message = &m
	return c
}

// WithResultPath sets ResultPath.
func (c Changes) WithResultPath(p string) Changes {
	c.ResultPath = &p
	return c
}

func validTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}
