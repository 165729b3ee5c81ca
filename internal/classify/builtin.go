package classify

import "go-disk-cleaner/internal/model"

// Priority bands: dangerous rules run first so a cache-looking path under
// a system directory still classifies as dangerous.
const (
	priorityDangerous  = 10
	prioritySuspicious = 20
	prioritySafe       = 30
)

// BuiltinRules is the default ruleset. Reconstructed cleanup heuristics:
// disposable artifacts are safe, data-bearing or ambiguous entries are
// suspicious, system and user-data locations are dangerous.
func BuiltinRules() []Rule {
	return []Rule{
		// ── Dangerous ───────────────────────────────────────────
		{
			Name: "system-directories", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a system-critical directory",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/system32/"}},
		},
		{
			Name: "system-directories-wow64", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a system-critical directory",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/syswow64/"}},
		},
		{
			Name: "boot-files", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "boot or startup related",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/boot"}},
		},
		{
			Name: "drivers", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "system driver location",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/drivers/"}},
		},
		{
			Name: "driver-store", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "system driver location",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/driverstore/"}},
		},
		{
			Name: "executables", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "executable or program component",
			All:    []Condition{{Type: CondExtension, Op: OpIn, Text: ".exe,.dll,.sys,.bat,.cmd,.ps1,.msi"}},
		},
		{
			Name: "user-documents", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user document tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/documents/"}},
		},
		{
			Name: "user-desktop", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user document tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/desktop/"}},
		},
		{
			Name: "user-downloads", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user document tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/downloads/"}},
		},
		{
			Name: "user-pictures", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user media tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/pictures/"}},
		},
		{
			Name: "user-music", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user media tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/music/"}},
		},
		{
			Name: "user-videos", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "inside a user media tree",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/videos/"}},
		},
		{
			Name: "registry-export", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "registry export file",
			All:    []Condition{{Type: CondExtension, Op: OpEquals, Text: ".reg"}},
		},
		{
			Name: "large-file", Tier: model.TierDangerous, Priority: priorityDangerous,
			Reason: "large file, may hold important data",
			All: []Condition{
				{Type: CondKind, Op: OpEquals, Text: "file"},
				{Type: CondSize, Op: OpAtLeast, Number: 100 << 20},
			},
		},

		// ── Suspicious ──────────────────────────────────────────
		{
			Name: "database-files", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "database file, may hold important data",
			All:    []Condition{{Type: CondExtension, Op: OpIn, Text: ".db,.sqlite,.sqlite3,.mdb"}},
			Excludes: []Condition{
				{Type: CondPath, Op: OpContains, Text: "cache"},
			},
		},
		{
			Name: "config-files", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "small configuration file",
			All: []Condition{
				{Type: CondExtension, Op: OpIn, Text: ".ini,.conf,.cfg"},
				{Type: CondSize, Op: OpAtMost, Number: 10 << 10},
			},
		},
		{
			Name: "data-directories", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "may contain user data",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/userdata/"}},
		},
		{
			Name: "documents", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "document file, may hold important content",
			All:    []Condition{{Type: CondExtension, Op: OpIn, Text: ".doc,.docx,.xls,.xlsx,.ppt,.pptx"}},
			Excludes: []Condition{
				{Type: CondPath, Op: OpContains, Text: "/logs/"},
			},
		},
		{
			Name: "pdf-documents", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "document file, may hold important content",
			All:    []Condition{{Type: CondExtension, Op: OpEquals, Text: ".pdf"}},
		},
		{
			Name: "medium-unknown", Tier: model.TierSuspicious, Priority: prioritySuspicious,
			Reason: "medium-sized file of unknown purpose",
			All: []Condition{
				{Type: CondKind, Op: OpEquals, Text: "file"},
				{Type: CondSize, Op: OpAtLeast, Number: 1 << 20},
				{Type: CondSize, Op: OpAtMost, Number: 10 << 20},
			},
		},

		// ── Safe ────────────────────────────────────────────────
		{
			Name: "cache-paths", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "cache location, regenerated automatically",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "cache"}},
		},
		{
			Name: "temp-paths", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "temporary location",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/tmp"}},
		},
		{
			Name: "temp-paths-alt", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "temporary location",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/temp"}},
		},
		{
			Name: "log-paths", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "log output",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/log"}},
		},
		{
			Name: "log-files", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "log output",
			All:    []Condition{{Type: CondExtension, Op: OpEquals, Text: ".log"}},
		},
		{
			Name: "prefetch", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "prefetch data, regenerated automatically",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/prefetch/"}},
		},
		{
			Name: "thumbnails", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "thumbnail cache",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "thumbnail"}},
		},
		{
			Name: "temp-files", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "temporary or backup artifact",
			All:    []Condition{{Type: CondExtension, Op: OpIn, Text: ".tmp,.temp"}},
		},
		{
			Name: "backup-artifacts", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "temporary or backup artifact",
			All:    []Condition{{Type: CondExtension, Op: OpEquals, Text: ".bak"}},
		},
		{
			Name: "old-artifacts", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "temporary or backup artifact",
			All:    []Condition{{Type: CondExtension, Op: OpEquals, Text: ".old"}},
		},
		{
			Name: "update-download-cache", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "update download cache",
			All:    []Condition{{Type: CondPath, Op: OpContains, Text: "/softwaredistribution/download/"}},
		},
		{
			Name: "residual-empty", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "residual entry under 1 KiB",
			All: []Condition{
				{Type: CondKind, Op: OpEquals, Text: "directory"},
				{Type: CondSize, Op: OpAtMost, Number: 1 << 10},
			},
		},
		{
			Name: "stale-files", Tier: model.TierSafe, Priority: prioritySafe,
			Reason: "untouched for over 90 days",
			All: []Condition{
				{Type: CondKind, Op: OpEquals, Text: "file"},
				{Type: CondAgeDays, Op: OpAtLeast, Number: 90},
			},
		},
	}
}
