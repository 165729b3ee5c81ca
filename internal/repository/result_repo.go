package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// ResultRepository persists execution results. The engine writes the
// whole result after every item, so SaveResult replaces failures
// wholesale rather than appending.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result model.ExecutionResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save result: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO execution_results
		 (plan_id, status, started_at, finished_at,
		  total_items, succeeded, failed, skipped, total_size, freed_size, failed_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (plan_id) DO UPDATE
		 SET status = EXCLUDED.status, started_at = EXCLUDED.started_at,
		     finished_at = EXCLUDED.finished_at, total_items = EXCLUDED.total_items,
		     succeeded = EXCLUDED.succeeded, failed = EXCLUDED.failed, skipped = EXCLUDED.skipped,
		     total_size = EXCLUDED.total_size, freed_size = EXCLUDED.freed_size,
		     failed_size = EXCLUDED.failed_size`,
		result.PlanID, result.Status, result.StartedAt, result.FinishedAt,
		result.TotalItems, result.Succeeded, result.Failed, result.Skipped,
		result.TotalSize, result.FreedSize, result.FailedSize)
	if err != nil {
		return fmt.Errorf("upsert execution result: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM execution_failures WHERE plan_id = $1`, result.PlanID)
	if err != nil {
		return fmt.Errorf("clear execution failures: %w", err)
	}

	for position, failure := range result.Failures {
		_, err = tx.Exec(ctx,
			`INSERT INTO execution_failures
			 (plan_id, position, item_id, path, class, message, remediation, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			result.PlanID, position, failure.ItemID, failure.Path,
			failure.Class, failure.Message, failure.Remediation, failure.OccurredAt)
		if err != nil {
			return fmt.Errorf("insert execution failure %d: %w", position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save result: %w", err)
	}
	return nil
}

func (r *ResultRepository) FindByPlanID(ctx context.Context, planID string) (model.ExecutionResult, error) {
	var result model.ExecutionResult
	err := r.pool.QueryRow(ctx,
		`SELECT plan_id, status, started_at, finished_at,
		        total_items, succeeded, failed, skipped, total_size, freed_size, failed_size
		 FROM execution_results WHERE plan_id = $1`, planID).
		Scan(&result.PlanID, &result.Status, &result.StartedAt, &result.FinishedAt,
			&result.TotalItems, &result.Succeeded, &result.Failed, &result.Skipped,
			&result.TotalSize, &result.FreedSize, &result.FailedSize)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ExecutionResult{}, model.ErrResultNotFound
	}
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("find execution result: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT item_id, path, class, message, remediation, occurred_at
		 FROM execution_failures
		 WHERE plan_id = $1
		 ORDER BY position`, planID)
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("load execution failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var failure model.FailureInfo
		if err := rows.Scan(&failure.ItemID, &failure.Path, &failure.Class,
			&failure.Message, &failure.Remediation, &failure.OccurredAt); err != nil {
			return model.ExecutionResult{}, fmt.Errorf("scan execution failure: %w", err)
		}
		result.Failures = append(result.Failures, failure)
	}
	return result, rows.Err()
}

// ListRecent returns result summaries newest first, without failure
// details.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]model.ExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT plan_id, status, started_at, finished_at,
		        total_items, succeeded, failed, skipped, total_size, freed_size, failed_size
		 FROM execution_results
		 ORDER BY started_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list execution results: %w", err)
	}
	defer rows.Close()

	results := make([]model.ExecutionResult, 0)
	for rows.Next() {
		var result model.ExecutionResult
		if err := rows.Scan(&result.PlanID, &result.Status, &result.StartedAt, &result.FinishedAt,
			&result.TotalItems, &result.Succeeded, &result.Failed, &result.Skipped,
			&result.TotalSize, &result.FreedSize, &result.FailedSize); err != nil {
			return nil, fmt.Errorf("scan execution result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
