package model

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// ScanRequest asks the built-in scanner to walk a root. External scanners
// may instead submit items directly via CreatePlanRequest.
type ScanRequest struct {
	Root     string `json:"root"`
	MaxDepth int    `json:"max_depth,omitempty"`
}

// ScanItemInput is the scanner-facing shape of an item; classification
// fields are filled in by the plan builder.
type ScanItemInput struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Kind    ItemKind  `json:"kind"`
	ModTime time.Time `json:"mod_time"`
}

type CreatePlanRequest struct {
	Items []ScanItemInput `json:"items"`
}

type RestoreRequest struct {
	BackupIDs  []string `json:"backup_ids"`
	TargetPath string   `json:"target_path,omitempty"` // single restore only
}

type CleanupExpiredRequest struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

type FeedbackRequest struct {
	Path string `json:"path"`
	Tier string `json:"tier"`
}
