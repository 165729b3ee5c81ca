package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// ClassificationRepository is the persisted tier of the classification
// cache. Rows carry an expires_at column computed at write time so the
// retention sweep is a single indexed delete.
type ClassificationRepository struct {
	pool *pgxpool.Pool
}

func NewClassificationRepository(pool *pgxpool.Pool) *ClassificationRepository {
	return &ClassificationRepository{pool: pool}
}

func (r *ClassificationRepository) Get(ctx context.Context, signature string) (model.ClassificationRecord, error) {
	var rec model.ClassificationRecord
	var ttlNanos int64
	err := r.pool.QueryRow(ctx,
		`SELECT signature, tier, confidence, reason, created_at, ttl_ns
		 FROM classification_records
		 WHERE signature = $1`, signature).
		Scan(&rec.Signature, &rec.Tier, &rec.Confidence, &rec.Reason, &rec.CreatedAt, &ttlNanos)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClassificationRecord{}, model.ErrCacheMiss
	}
	if err != nil {
		return model.ClassificationRecord{}, fmt.Errorf("get classification: %w", err)
	}
	rec.TTL = time.Duration(ttlNanos)
	return rec, nil
}

func (r *ClassificationRepository) Put(ctx context.Context, rec model.ClassificationRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO classification_records (signature, tier, confidence, reason, created_at, ttl_ns, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (signature) DO UPDATE
		 SET tier = EXCLUDED.tier, confidence = EXCLUDED.confidence, reason = EXCLUDED.reason,
		     created_at = EXCLUDED.created_at, ttl_ns = EXCLUDED.ttl_ns, expires_at = EXCLUDED.expires_at`,
		rec.Signature, rec.Tier, rec.Confidence, rec.Reason, rec.CreatedAt,
		int64(rec.TTL), rec.CreatedAt.Add(rec.TTL))
	if err != nil {
		return fmt.Errorf("put classification: %w", err)
	}
	return nil
}

func (r *ClassificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM classification_records WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired classifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ClassificationRepository) MostRecent(ctx context.Context, limit int) ([]model.ClassificationRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT signature, tier, confidence, reason, created_at, ttl_ns
		 FROM classification_records
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent classifications: %w", err)
	}
	defer rows.Close()

	records := make([]model.ClassificationRecord, 0)
	for rows.Next() {
		var rec model.ClassificationRecord
		var ttlNanos int64
		if err := rows.Scan(&rec.Signature, &rec.Tier, &rec.Confidence, &rec.Reason, &rec.CreatedAt, &ttlNanos); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		rec.TTL = time.Duration(ttlNanos)
		records = append(records, rec)
	}
	return records, rows.Err()
}
