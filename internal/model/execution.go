package model

import "time"

// ExecutionStatus is the terminal and non-terminal state of a plan run.
type ExecutionStatus string

const (
	StatusPending        ExecutionStatus = "pending"
	StatusRunning        ExecutionStatus = "running"
	StatusCompleted      ExecutionStatus = "completed"
	StatusPartialSuccess ExecutionStatus = "partial_success"
	StatusFailed         ExecutionStatus = "failed"
	StatusCancelled      ExecutionStatus = "cancelled"
)

// Terminal reports whether the status will never change again.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartialSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ExecutionPhase is the per-item sub-state while a plan is Running.
type ExecutionPhase string

const (
	PhaseBackingUp ExecutionPhase = "backing_up"
	PhaseDeleting  ExecutionPhase = "deleting"
	PhaseVerifying ExecutionPhase = "verifying"
)

// ErrorClass buckets per-item failures so retry/skip/abort policy can be
// applied uniformly.
type ErrorClass string

const (
	ClassNotFound         ErrorClass = "not_found"
	ClassPermissionDenied ErrorClass = "permission_denied"
	ClassFileInUse        ErrorClass = "file_in_use"
	ClassDiskOrIO         ErrorClass = "disk_or_io"
	ClassBackupFailed     ErrorClass = "backup_failed"
	ClassUnknown          ErrorClass = "unknown"
)

// FailureInfo captures one failed item. Many may exist per plan.
type FailureInfo struct {
	ItemID      string     `json:"item_id"`
	Path        string     `json:"path"`
	Class       ErrorClass `json:"class"`
	Message     string     `json:"message"`
	Remediation string     `json:"remediation,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// ExecutionResult aggregates a single run of a plan. Created with zero
// counts and status Running, mutated only by the execution engine, frozen
// once a terminal status is reached.
type ExecutionResult struct {
	PlanID     string          `json:"plan_id"`
	Status     ExecutionStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`

	TotalItems int `json:"total_items"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`

	TotalSize  int64 `json:"total_size"`
	FreedSize  int64 `json:"freed_size"`
	FailedSize int64 `json:"failed_size"`

	Failures []FailureInfo `json:"failures,omitempty"`
}

// Processed is the number of items the run has fully accounted for.
func (r ExecutionResult) Processed() int {
	return r.Succeeded + r.Failed + r.Skipped
}
