package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go-disk-cleaner/internal/event"
	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/recovery"
	"go-disk-cleaner/pkg/apierror"
)

// BackupService is the API-facing wrapper around the recovery manager,
// adding events and audit entries to every mutating operation.
type BackupService struct {
	recovery *recovery.Manager
	bus      event.Bus
	audit    *AuditService
}

func NewBackupService(rec *recovery.Manager, bus event.Bus, audit *AuditService) *BackupService {
	return &BackupService{recovery: rec, bus: bus, audit: audit}
}

func (s *BackupService) List(ctx context.Context, filter model.BackupFilter) ([]model.BackupRecord, error) {
	return s.recovery.ListBackups(ctx, filter)
}

func (s *BackupService) Stats(ctx context.Context) (model.BackupStats, error) {
	return s.recovery.Stats(ctx)
}

// Restore restores one backup, or a best-effort batch when several ids
// are given. A target path override is only valid for a single restore.
func (s *BackupService) Restore(ctx context.Context, req model.RestoreRequest, actor model.Actor) (model.RecoveryStats, []model.RecoveryRecord, error) {
	if len(req.BackupIDs) == 0 {
		return model.RecoveryStats{}, nil, apierror.New("BAD_REQUEST", "at least one backup id is required", "backup_ids", http.StatusBadRequest)
	}
	if req.TargetPath != "" && len(req.BackupIDs) > 1 {
		return model.RecoveryStats{}, nil, apierror.New("BAD_REQUEST", "target_path is only valid for a single restore", "target_path", http.StatusBadRequest)
	}

	if len(req.BackupIDs) == 1 {
		record, err := s.recovery.Restore(ctx, req.BackupIDs[0], req.TargetPath)
		if err != nil {
			s.audit.Log(ctx, "backup.restore", actor, "failed", req.BackupIDs[0], nil, err.Error())
			return model.RecoveryStats{}, nil, err
		}
		stats := model.RecoveryStats{Total: 1}
		if record.Status == model.RecoveryPartial {
			stats.Partial = 1
		} else {
			stats.Succeeded = 1
		}
		s.publish(event.TypeBackupRestored, record, actor)
		s.audit.Log(ctx, "backup.restore", actor, string(record.Status), req.BackupIDs[0], record.TargetPath, "")
		return stats, []model.RecoveryRecord{record}, nil
	}

	stats, records := s.recovery.RestoreBatch(ctx, req.BackupIDs, "")
	s.publish(event.TypeBackupRestored, stats, actor)
	s.audit.Log(ctx, "backup.restore_batch", actor, "done", "", stats, "")
	return stats, records, nil
}

// CleanupExpired deletes backups past the retention window. Refused with
// a conflict while any plan is executing.
func (s *BackupService) CleanupExpired(ctx context.Context, retentionDays int, actor model.Actor) (int, int64, error) {
	if retentionDays <= 0 {
		return 0, 0, apierror.New("BAD_REQUEST", "retention_days must be positive", "retention_days", http.StatusBadRequest)
	}

	removed, freed, err := s.recovery.CleanupExpired(ctx, time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		s.audit.Log(ctx, "backup.cleanup", actor, "failed", "", nil, err.Error())
		return 0, 0, err
	}

	s.publish(event.TypeBackupsExpired, map[string]any{"removed": removed, "freed": freed}, actor)
	s.audit.Log(ctx, "backup.cleanup", actor, "success", "", map[string]any{"removed": removed, "freed": freed}, "")
	return removed, freed, nil
}

func (s *BackupService) publish(eventType event.Type, payload any, actor model.Actor) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actor.UserID,
	})
}
