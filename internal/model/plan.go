package model

import "time"

// PlanTotals are aggregate counts computed once when the plan is built.
type PlanTotals struct {
	TotalItems      int   `json:"total_items"`
	TotalSize       int64 `json:"total_size"`
	SafeItems       int   `json:"safe_items"`
	SuspiciousItems int   `json:"suspicious_items"`
	DangerousItems  int   `json:"dangerous_items"`
}

// CleanupPlan is an immutable ordered batch of classified items submitted
// for execution together. A plan is never mutated, only superseded.
type CleanupPlan struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []Item     `json:"items,omitempty"`
	Totals    PlanTotals `json:"totals"`
}

// ComputeTotals derives plan aggregates from the item list using each
// item's effective tier.
func ComputeTotals(items []Item) PlanTotals {
	totals := PlanTotals{TotalItems: len(items)}
	for _, item := range items {
		totals.TotalSize += item.Size
		switch item.EffectiveTier() {
		case TierSafe:
			totals.SafeItems++
		case TierDangerous:
			totals.DangerousItems++
		default:
			totals.SuspiciousItems++
		}
	}
	return totals
}
