package jobs

import (
	"time"

	"github.com/subgemma/subtrans/internal/service"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// RunJob is one queued translation run.
type RunJob struct {
	ID        string                   `json:"id"`
	Source    string                   `json:"source"` // "api", "cron", "cli"
	DedupeKey string                   `json:"dedupe_key"`
	Config    service.RunConfiguration `json:"config"`
	Status    Status                   `json:"status"`
	Error     string                   `json:"error,omitempty"`
	Progress  service.Progress         `json:"progress"`
	Report    *service.RunReport       `json:"report,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// EnqueueRequest asks the queue to schedule a run.
type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Config    service.RunConfiguration
}
