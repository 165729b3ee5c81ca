package model

import "time"

// DefaultClassificationTTL is how long a cached assisted opinion stays
// trustworthy.
const DefaultClassificationTTL = 7 * 24 * time.Hour

// ClassificationRecord is a cached assisted-classification opinion keyed
// by item signature. Never mutated after creation; superseded records are
// replaced wholesale.
type ClassificationRecord struct {
	Signature  string        `json:"signature"`
	Tier       RiskTier      `json:"tier"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	TTL        time.Duration `json:"ttl"`
}

// Expired reports whether the record's TTL has elapsed at the given time.
func (r ClassificationRecord) Expired(now time.Time) bool {
	return now.Sub(r.CreatedAt) > r.TTL
}

// FeedbackOverride is a user-supplied tier for a specific path, consulted
// before any rule evaluation.
type FeedbackOverride struct {
	Path      string    `json:"path"`
	Tier      RiskTier  `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}
