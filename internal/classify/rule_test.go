package classify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

func TestEngineClassify(t *testing.T) {
	t.Parallel()

	engine := NewDefaultEngine()

	t.Run("dangerous rules win over safe ones on the same path", func(t *testing.T) {
		// A cache directory under system32 must still classify dangerous.
		tier, reason := engine.Classify(model.Item{
			Path: "/mnt/c/Windows/System32/cache/stale.dat",
			Kind: model.KindFile,
		})

		require.Equal(t, model.TierDangerous, tier)
		require.Equal(t, "inside a system-critical directory", reason)
	})

	t.Run("cache paths are safe", func(t *testing.T) {
		tier, _ := engine.Classify(model.Item{
			Path: "/home/user/.cache/app/blob",
			Kind: model.KindFile,
		})

		require.Equal(t, model.TierSafe, tier)
	})

	t.Run("executables are dangerous regardless of location", func(t *testing.T) {
		tier, _ := engine.Classify(model.Item{
			Path:      "/opt/tools/run.exe",
			Kind:      model.KindFile,
			Extension: ".exe",
		})

		require.Equal(t, model.TierDangerous, tier)
	})

	t.Run("database file outside a cache directory is suspicious", func(t *testing.T) {
		tier, _ := engine.Classify(model.Item{
			Path:      "/srv/app/data/users.db",
			Kind:      model.KindFile,
			Extension: ".db",
		})

		require.Equal(t, model.TierSuspicious, tier)
	})

	t.Run("database file inside a cache directory hits the exclude", func(t *testing.T) {
		// The exclude knocks out the suspicious rule; the safe
		// cache-path rule matches instead.
		tier, _ := engine.Classify(model.Item{
			Path:      "/home/user/.cache/index.db",
			Kind:      model.KindFile,
			Extension: ".db",
		})

		require.Equal(t, model.TierSafe, tier)
	})

	t.Run("large files are dangerous", func(t *testing.T) {
		tier, _ := engine.Classify(model.Item{
			Path: "/data/export.bin",
			Kind: model.KindFile,
			Size: 200 << 20,
		})

		require.Equal(t, model.TierDangerous, tier)
	})

	t.Run("unmatched items default to suspicious", func(t *testing.T) {
		tier, reason := engine.Classify(model.Item{
			Path: "/data/mystery.xyz",
			Kind: model.KindFile,
			Size: 100,
		})

		require.Equal(t, model.TierSuspicious, tier)
		require.Equal(t, "no matching rule", reason)
	})

	t.Run("empty path defaults to suspicious", func(t *testing.T) {
		tier, reason := engine.Classify(model.Item{Path: "   "})

		require.Equal(t, model.TierSuspicious, tier)
		require.Equal(t, "unrecognized item", reason)
	})
}

func TestEngineAgeRule(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDefaultEngine()
	engine.now = func() time.Time { return now }

	t.Run("files untouched beyond the stale window are safe", func(t *testing.T) {
		tier, reason := engine.Classify(model.Item{
			Path:    "/data/archive.xyz",
			Kind:    model.KindFile,
			Size:    100,
			ModTime: now.AddDate(0, 0, -120),
		})

		require.Equal(t, model.TierSafe, tier)
		require.Equal(t, "untouched for over 90 days", reason)
	})

	t.Run("zero mod time never matches the age rule", func(t *testing.T) {
		tier, _ := engine.Classify(model.Item{
			Path: "/data/archive.xyz",
			Kind: model.KindFile,
			Size: 100,
		})

		require.Equal(t, model.TierSuspicious, tier)
	})
}

func TestEnginePriorityOrdering(t *testing.T) {
	t.Parallel()

	engine := NewEngine([]Rule{
		{Name: "late", Tier: model.TierSafe, Priority: 20, Reason: "late",
			All: []Condition{{Type: CondPath, Op: OpContains, Text: "shared"}}},
		{Name: "early", Tier: model.TierDangerous, Priority: 10, Reason: "early",
			All: []Condition{{Type: CondPath, Op: OpContains, Text: "shared"}}},
	})

	tier, reason := engine.Classify(model.Item{Path: "/shared/file"})

	require.Equal(t, model.TierDangerous, tier)
	require.Equal(t, "early", reason)
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	t.Run("custom rules override built-ins of the same name", func(t *testing.T) {
		custom := []Rule{
			{
				Name: "cache-paths", Tier: model.TierSuspicious, Priority: 5,
				Reason: "site policy: review caches",
				All:    []Condition{{Type: CondPath, Op: OpContains, Text: "cache"}},
			},
		}
		path := writeRules(t, custom)

		merged, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, merged, len(BuiltinRules()))

		engine := NewEngine(merged)
		tier, reason := engine.Classify(model.Item{Path: "/home/user/.cache/blob"})
		require.Equal(t, model.TierSuspicious, tier)
		require.Equal(t, "site policy: review caches", reason)
	})

	t.Run("unknown tiers in the file fall back to suspicious", func(t *testing.T) {
		custom := []Rule{
			{
				Name: "typo-rule", Tier: "critical", Priority: 1,
				All: []Condition{{Type: CondPath, Op: OpContains, Text: "whatever"}},
			},
		}
		path := writeRules(t, custom)

		merged, err := LoadRules(path)
		require.NoError(t, err)
		require.Equal(t, model.TierSuspicious, merged[0].Tier)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})

	t.Run("malformed file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := LoadRules(path)
		require.Error(t, err)
	})
}

func writeRules(t *testing.T, rules []Rule) string {
	t.Helper()
	data, err := json.Marshal(rules)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
