package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// FeedbackRepository stores user tier overrides keyed by path. An
// override beats every other classification source.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

func (r *FeedbackRepository) Upsert(ctx context.Context, override model.FeedbackOverride) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO feedback_overrides (path, tier, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (path) DO UPDATE
		 SET tier = EXCLUDED.tier, created_at = EXCLUDED.created_at`,
		override.Path, override.Tier, override.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert feedback override: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Get(ctx context.Context, path string) (model.FeedbackOverride, error) {
	var override model.FeedbackOverride
	err := r.pool.QueryRow(ctx,
		`SELECT path, tier, created_at FROM feedback_overrides WHERE path = $1`, path).
		Scan(&override.Path, &override.Tier, &override.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.FeedbackOverride{}, model.ErrOverrideNotFound
	}
	if err != nil {
		return model.FeedbackOverride{}, fmt.Errorf("get feedback override: %w", err)
	}
	return override, nil
}

func (r *FeedbackRepository) List(ctx context.Context) ([]model.FeedbackOverride, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT path, tier, created_at FROM feedback_overrides ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list feedback overrides: %w", err)
	}
	defer rows.Close()

	overrides := make([]model.FeedbackOverride, 0)
	for rows.Next() {
		var override model.FeedbackOverride
		if err := rows.Scan(&override.Path, &override.Tier, &override.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback override: %w", err)
		}
		overrides = append(overrides, override)
	}
	return overrides, rows.Err()
}

func (r *FeedbackRepository) Delete(ctx context.Context, path string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feedback_overrides WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("delete feedback override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOverrideNotFound
	}
	return nil
}
