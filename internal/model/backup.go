package model

import "time"

// BackupKind is the protection strategy applied before deletion.
type BackupKind string

const (
	BackupNone     BackupKind = "none"
	BackupHardLink BackupKind = "hardlink"
	BackupFullCopy BackupKind = "fullcopy"
)

// KindForTier maps an effective risk tier to its backup policy.
func KindForTier(tier RiskTier) BackupKind {
	switch tier {
	case TierSafe:
		return BackupNone
	case TierDangerous:
		return BackupFullCopy
	default:
		return BackupHardLink
	}
}

// BackupRecord is the sole source of truth enabling recovery of a deleted
// item. It is created and made durable before the paired delete is
// attempted, and removed only by an explicit restore, retention expiry,
// or the user clearing the backup store.
type BackupRecord struct {
	ID           string     `json:"id"`
	ItemID       string     `json:"item_id"`
	PlanID       string     `json:"plan_id,omitempty"`
	OriginalPath string     `json:"original_path"`
	Kind         BackupKind `json:"kind"`
	BackupPath   string     `json:"backup_path,omitempty"`
	Size         int64      `json:"size"`
	Checksum     string     `json:"checksum,omitempty"`
	Tier         RiskTier   `json:"tier"`
	CreatedAt    time.Time  `json:"created_at"`
	RestoredAt   *time.Time `json:"restored_at,omitempty"`
}

// BackupFilter narrows ListBackups results. Zero values mean "no filter".
type BackupFilter struct {
	Tier            RiskTier
	Kind            BackupKind
	From            time.Time
	To              time.Time
	IncludeRestored bool
	Limit           int
	Offset          int
}

// BackupStats summarises the backup store contents.
type BackupStats struct {
	TotalBackups    int   `json:"total_backups"`
	HardLinkBackups int   `json:"hardlink_backups"`
	FullCopyBackups int   `json:"fullcopy_backups"`
	RestoredCount   int   `json:"restored_count"`
	TotalSize       int64 `json:"total_size"`
}
