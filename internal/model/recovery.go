package model

import "time"

// RecoveryStatus is the outcome of a single restore attempt.
type RecoveryStatus string

const (
	RecoveryPending RecoveryStatus = "pending"
	RecoverySuccess RecoveryStatus = "success"
	RecoveryFailed  RecoveryStatus = "failed"
	RecoveryPartial RecoveryStatus = "partial"
)

// RecoveryRecord is produced once per restore attempt. An item may carry
// several if a failed restore is retried.
type RecoveryRecord struct {
	ID         string         `json:"id"`
	BackupID   string         `json:"backup_id"`
	ItemID     string         `json:"item_id"`
	TargetPath string         `json:"target_path"`
	Status     RecoveryStatus `json:"status"`
	Message    string         `json:"message,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RecoveryStats aggregates a best-effort batch restore.
type RecoveryStats struct {
	Total        int   `json:"total"`
	Succeeded    int   `json:"succeeded"`
	Failed       int   `json:"failed"`
	Partial      int   `json:"partial"`
	RestoredSize int64 `json:"restored_size"`
}
