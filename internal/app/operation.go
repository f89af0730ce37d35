package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation tracks one CLI invocation. Its ID tags every log line written
// while it runs.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation creates a new operation that started at now.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        uuid.NewString(),
		Name:      name,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Succeeded reports whether no failure has been recorded.
func (op *Operation) Succeeded() bool {
	return op.Status == "success"
}

// Duration returns how long the operation has run as of now.
func (op *Operation) Duration(now time.Time) time.Duration {
	return now.Sub(op.StartedAt)
}
