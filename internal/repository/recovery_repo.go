package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// RecoveryRepository logs restore attempts, one row per attempt.
type RecoveryRepository struct {
	pool *pgxpool.Pool
}

func NewRecoveryRepository(pool *pgxpool.Pool) *RecoveryRepository {
	return &RecoveryRepository{pool: pool}
}

func (r *RecoveryRepository) Create(ctx context.Context, rec model.RecoveryRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO recovery_records
		 (id, backup_id, item_id, target_path, status, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.BackupID, rec.ItemID, rec.TargetPath, rec.Status, rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create recovery record: %w", err)
	}
	return nil
}

func (r *RecoveryRepository) ListByBackupID(ctx context.Context, backupID string) ([]model.RecoveryRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, backup_id, item_id, target_path, status, message, created_at
		 FROM recovery_records
		 WHERE backup_id = $1
		 ORDER BY created_at DESC`, backupID)
	if err != nil {
		return nil, fmt.Errorf("list recovery records: %w", err)
	}
	defer rows.Close()

	return scanRecoveryRows(rows)
}

func (r *RecoveryRepository) ListRecent(ctx context.Context, limit int) ([]model.RecoveryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, backup_id, item_id, target_path, status, message, created_at
		 FROM recovery_records
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent recovery records: %w", err)
	}
	defer rows.Close()

	return scanRecoveryRows(rows)
}

func scanRecoveryRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.RecoveryRecord, error) {
	records := make([]model.RecoveryRecord, 0)
	for rows.Next() {
		var rec model.RecoveryRecord
		if err := rows.Scan(&rec.ID, &rec.BackupID, &rec.ItemID, &rec.TargetPath,
			&rec.Status, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recovery record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
