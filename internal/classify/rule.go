package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-disk-cleaner/internal/model"
)

// ConditionType enumerates the item attributes a rule can test. The set
// is closed: evaluation is an exhaustive switch, so adding a type is a
// compile-time change, not runtime reflection.
type ConditionType string

const (
	CondPath      ConditionType = "path"      // full path, normalized to lower-case slash form
	CondName      ConditionType = "name"      // base name
	CondExtension ConditionType = "extension" // including the dot, lower-case
	CondKind      ConditionType = "kind"      // file | directory
	CondSize      ConditionType = "size"      // bytes
	CondAgeDays   ConditionType = "age_days"  // days since last modification
)

// Operator enumerates the comparisons a condition can apply.
type Operator string

const (
	OpContains Operator = "contains" // text: substring
	OpGlob     Operator = "glob"     // text: filepath.Match pattern
	OpEquals   Operator = "equals"   // text or number
	OpIn       Operator = "in"       // text: member of comma-separated set
	OpAtLeast  Operator = "at_least" // number: >=
	OpAtMost   Operator = "at_most"  // number: <=
)

// Condition is one (type, operator, value) triple. Text holds the value
// for string-typed conditions, Number for size/age ones.
type Condition struct {
	Type   ConditionType `json:"type"`
	Op     Operator      `json:"op"`
	Text   string        `json:"text,omitempty"`
	Number int64         `json:"number,omitempty"`
}

// Rule assigns a tier when all of its conditions match and none of its
// excludes do. Lower priority numbers are evaluated first; ties keep
// declaration order.
type Rule struct {
	Name     string         `json:"name"`
	Tier     model.RiskTier `json:"tier"`
	Priority int            `json:"priority"`
	Reason   string         `json:"reason"`
	All      []Condition    `json:"all"`
	Excludes []Condition    `json:"excludes,omitempty"`
}

// Engine evaluates rules over item metadata. It does no I/O and never
// errors: unparseable input classifies as Suspicious.
type Engine struct {
	rules []Rule
	now   func() time.Time
}

// NewEngine builds an engine over the given rules, sorted by priority
// with declaration order preserved inside a priority band.
func NewEngine(rules []Rule) *Engine {
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Engine{rules: sorted, now: time.Now}
}

// NewDefaultEngine builds an engine over the built-in ruleset.
func NewDefaultEngine() *Engine {
	return NewEngine(BuiltinRules())
}

// Rules returns the evaluation-ordered rule list.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Classify assigns the deterministic tier for an item. The first matching
// rule in priority order wins; no match defaults to Suspicious.
func (e *Engine) Classify(item model.Item) (model.RiskTier, string) {
	normPath := normalize(item.Path)
	if normPath == "" {
		return model.TierSuspicious, "unrecognized item"
	}

	for _, rule := range e.rules {
		if e.matches(rule, item, normPath) {
			return rule.Tier, rule.Reason
		}
	}
	return model.TierSuspicious, "no matching rule"
}

func (e *Engine) matches(rule Rule, item model.Item, normPath string) bool {
	for _, cond := range rule.Excludes {
		if e.eval(cond, item, normPath) {
			return false
		}
	}
	if len(rule.All) == 0 {
		return false
	}
	for _, cond := range rule.All {
		if !e.eval(cond, item, normPath) {
			return false
		}
	}
	return true
}

// eval is the single exhaustive match over the condition union. Unknown
// type/operator combinations never match.
func (e *Engine) eval(cond Condition, item model.Item, normPath string) bool {
	switch cond.Type {
	case CondPath:
		return evalText(cond.Op, normPath, strings.ToLower(cond.Text))
	case CondName:
		return evalText(cond.Op, strings.ToLower(item.Name()), strings.ToLower(cond.Text))
	case CondExtension:
		ext := strings.ToLower(item.Extension)
		if ext == "" {
			ext = strings.ToLower(filepath.Ext(item.Path))
		}
		return evalText(cond.Op, ext, strings.ToLower(cond.Text))
	case CondKind:
		return evalText(cond.Op, string(item.Kind), strings.ToLower(cond.Text))
	case CondSize:
		return evalNumber(cond.Op, item.Size, cond.Number)
	case CondAgeDays:
		if item.ModTime.IsZero() {
			return false
		}
		age := int64(e.now().Sub(item.ModTime).Hours() / 24)
		return evalNumber(cond.Op, age, cond.Number)
	}
	return false
}

func evalText(op Operator, value string, want string) bool {
	switch op {
	case OpContains:
		return want != "" && strings.Contains(value, want)
	case OpEquals:
		return value == want
	case OpGlob:
		ok, err := filepath.Match(want, value)
		return err == nil && ok
	case OpIn:
		for _, member := range strings.Split(want, ",") {
			if value == strings.TrimSpace(member) {
				return true
			}
		}
	}
	return false
}

func evalNumber(op Operator, value int64, want int64) bool {
	switch op {
	case OpEquals:
		return value == want
	case OpAtLeast:
		return value >= want
	case OpAtMost:
		return value <= want
	}
	return false
}

// normalize lower-cases and slash-normalizes a path for matching. Returns
// "" for input that cannot be treated as a path.
func normalize(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(filepath.ToSlash(trimmed))
}

// LoadRules reads custom rules from a JSON file. Custom rules override
// built-ins of the same name; the rest of the built-in set stays active.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var custom []Rule
	if err := json.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	byName := make(map[string]bool, len(custom))
	for i := range custom {
		custom[i].Tier = model.ParseRiskTier(string(custom[i].Tier))
		byName[custom[i].Name] = true
	}

	merged := custom
	for _, rule := range BuiltinRules() {
		if !byName[rule.Name] {
			merged = append(merged, rule)
		}
	}
	return merged, nil
}
