package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-disk-cleaner/internal/model"
)

// PlanRepository persists cleanup plans and their ordered item lists.
// Plans are written once and never updated; execution state lives in
// execution_results.
type PlanRepository struct {
	pool *pgxpool.Pool
}

func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

func (r *PlanRepository) Create(ctx context.Context, plan model.CleanupPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create plan: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO plans
		 (id, created_at, total_items, total_size, safe_items, suspicious_items, dangerous_items)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		plan.ID, plan.CreatedAt, plan.Totals.TotalItems, plan.Totals.TotalSize,
		plan.Totals.SafeItems, plan.Totals.SuspiciousItems, plan.Totals.DangerousItems)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	for position, item := range plan.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO plan_items
			 (plan_id, position, item_id, path, size, kind, extension, mod_time,
			  original_tier, assisted_tier, assisted_confidence, reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			plan.ID, position, item.ID, item.Path, item.Size, item.Kind, item.Extension,
			item.ModTime, item.OriginalTier, item.AssistedTier, item.AssistedConfidence, item.Reason)
		if err != nil {
			return fmt.Errorf("insert plan item %d: %w", position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (model.CleanupPlan, error) {
	var plan model.CleanupPlan
	err := r.pool.QueryRow(ctx,
		`SELECT id, created_at, total_items, total_size, safe_items, suspicious_items, dangerous_items
		 FROM plans WHERE id = $1`, id).
		Scan(&plan.ID, &plan.CreatedAt, &plan.Totals.TotalItems, &plan.Totals.TotalSize,
			&plan.Totals.SafeItems, &plan.Totals.SuspiciousItems, &plan.Totals.DangerousItems)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.CleanupPlan{}, model.ErrPlanNotFound
	}
	if err != nil {
		return model.CleanupPlan{}, fmt.Errorf("find plan: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT item_id, path, size, kind, extension, mod_time,
		        original_tier, assisted_tier, assisted_confidence, reason
		 FROM plan_items
		 WHERE plan_id = $1
		 ORDER BY position`, id)
	if err != nil {
		return model.CleanupPlan{}, fmt.Errorf("load plan items: %w", err)
	}
	defer rows.Close()

	plan.Items = make([]model.Item, 0, plan.Totals.TotalItems)
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Path, &item.Size, &item.Kind, &item.Extension,
			&item.ModTime, &item.OriginalTier, &item.AssistedTier, &item.AssistedConfidence, &item.Reason); err != nil {
			return model.CleanupPlan{}, fmt.Errorf("scan plan item: %w", err)
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, rows.Err()
}

// List returns plan summaries newest first, without item lists.
func (r *PlanRepository) List(ctx context.Context, limit int, offset int) ([]model.CleanupPlan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_at, total_items, total_size, safe_items, suspicious_items, dangerous_items
		 FROM plans
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]model.CleanupPlan, 0)
	for rows.Next() {
		var plan model.CleanupPlan
		if err := rows.Scan(&plan.ID, &plan.CreatedAt, &plan.Totals.TotalItems, &plan.Totals.TotalSize,
			&plan.Totals.SafeItems, &plan.Totals.SuspiciousItems, &plan.Totals.DangerousItems); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPlanNotFound
	}
	return nil
}
