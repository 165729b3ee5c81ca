package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ItemKind distinguishes files from directories. Symlinks are never
// scanned into plans.
type ItemKind string

const (
	KindFile      ItemKind = "file"
	KindDirectory ItemKind = "directory"
)

// RiskTier is the deletion-risk classification of an item.
type RiskTier string

const (
	TierSafe       RiskTier = "safe"
	TierSuspicious RiskTier = "suspicious"
	TierDangerous  RiskTier = "dangerous"
)

// ParseRiskTier maps a stored string back to a tier. Unknown values fall
// back to Suspicious, the conservative default.
func ParseRiskTier(raw string) RiskTier {
	switch RiskTier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierSafe:
		return TierSafe
	case TierDangerous:
		return TierDangerous
	default:
		return TierSuspicious
	}
}

// Item is a single filesystem entry under consideration for cleanup.
// Immutable once scanned.
type Item struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Kind      ItemKind  `json:"kind"`
	Extension string    `json:"extension"`
	ModTime   time.Time `json:"mod_time"`

	// OriginalTier comes from the deterministic rules; AssistedTier from
	// the classification cache / assisted service when available.
	OriginalTier       RiskTier `json:"original_tier"`
	AssistedTier       RiskTier `json:"assisted_tier,omitempty"`
	AssistedConfidence float64  `json:"assisted_confidence,omitempty"`
	Reason             string   `json:"reason,omitempty"`
}

// EffectiveTier is the tier actually used for backup and execution
// decisions: the assisted opinion when one was fresh at classification
// time, the deterministic tier otherwise.
func (i Item) EffectiveTier() RiskTier {
	if i.AssistedTier != "" {
		return i.AssistedTier
	}
	return i.OriginalTier
}

// Signature is a stable identity for cache lookups: same path, size and
// mtime means the same classification still applies.
func (i Item) Signature() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", i.Path, i.Size, i.ModTime.Unix())))
	return hex.EncodeToString(sum[:])
}

// Name returns the base name of the item path.
func (i Item) Name() string {
	return filepath.Base(i.Path)
}
