package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// BackupRepository is the durable backup index. A row here is the
// contract that the paired delete was (or may be) performed; rows are
// removed only by restore cleanup or retention expiry.
type BackupRepository struct {
	pool *pgxpool.Pool
}

func NewBackupRepository(pool *pgxpool.Pool) *BackupRepository {
	return &BackupRepository{pool: pool}
}

func (r *BackupRepository) Create(ctx context.Context, rec model.BackupRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO backup_records
		 (id, item_id, plan_id, original_path, kind, backup_path, size, checksum, tier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.ItemID, rec.PlanID, rec.OriginalPath, rec.Kind,
		rec.BackupPath, rec.Size, rec.Checksum, rec.Tier, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create backup record: %w", err)
	}
	return nil
}

// FindActiveByItemID returns the newest unrestored backup for an item,
// used to keep Protect idempotent across retried plans.
func (r *BackupRepository) FindActiveByItemID(ctx context.Context, itemID string) (model.BackupRecord, error) {
	return r.findOne(ctx,
		`SELECT id, item_id, plan_id, original_path, kind, backup_path, size, checksum, tier, created_at, restored_at
		 FROM backup_records
		 WHERE item_id = $1 AND restored_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, itemID)
}

func (r *BackupRepository) FindByID(ctx context.Context, id string) (model.BackupRecord, error) {
	return r.findOne(ctx,
		`SELECT id, item_id, plan_id, original_path, kind, backup_path, size, checksum, tier, created_at, restored_at
		 FROM backup_records
		 WHERE id = $1`, id)
}

func (r *BackupRepository) findOne(ctx context.Context, query string, arg any) (model.BackupRecord, error) {
	var rec model.BackupRecord
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&rec.ID, &rec.ItemID, &rec.PlanID, &rec.OriginalPath, &rec.Kind,
			&rec.BackupPath, &rec.Size, &rec.Checksum, &rec.Tier, &rec.CreatedAt, &rec.RestoredAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.BackupRecord{}, model.ErrBackupNotFound
	}
	if err != nil {
		return model.BackupRecord{}, fmt.Errorf("find backup record: %w", err)
	}
	return rec, nil
}

func (r *BackupRepository) List(ctx context.Context, filter model.BackupFilter) ([]model.BackupRecord, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if !filter.IncludeRestored {
		where = append(where, "restored_at IS NULL")
	}
	if filter.Tier != "" {
		where = append(where, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.Kind != "" {
		where = append(where, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, filter.Kind)
		argIdx++
	}
	if !filter.From.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, filter.To)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(
		`SELECT id, item_id, plan_id, original_path, kind, backup_path, size, checksum, tier, created_at, restored_at
		 FROM backup_records %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list backup records: %w", err)
	}
	defer rows.Close()

	records := make([]model.BackupRecord, 0)
	for rows.Next() {
		var rec model.BackupRecord
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.PlanID, &rec.OriginalPath, &rec.Kind,
			&rec.BackupPath, &rec.Size, &rec.Checksum, &rec.Tier, &rec.CreatedAt, &rec.RestoredAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *BackupRepository) MarkRestored(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE backup_records SET restored_at = $2 WHERE id = $1 AND restored_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("mark backup restored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBackupNotFound
	}
	return nil
}

func (r *BackupRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM backup_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backup record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBackupNotFound
	}
	return nil
}

// ListExpired returns unrestored backups created before the cutoff.
func (r *BackupRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]model.BackupRecord, error) {
	return r.List(ctx, model.BackupFilter{To: cutoff, Limit: 10000})
}

func (r *BackupRepository) Stats(ctx context.Context) (model.BackupStats, error) {
	var stats model.BackupStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE kind = 'hardlink'),
		        COUNT(*) FILTER (WHERE kind = 'fullcopy'),
		        COUNT(*) FILTER (WHERE restored_at IS NOT NULL),
		        COALESCE(SUM(size) FILTER (WHERE restored_at IS NULL), 0)
		 FROM backup_records`).
		Scan(&stats.TotalBackups, &stats.HardLinkBackups, &stats.FullCopyBackups,
			&stats.RestoredCount, &stats.TotalSize)
	if err != nil {
		return model.BackupStats{}, fmt.Errorf("backup stats: %w", err)
	}
	return stats, nil
}
