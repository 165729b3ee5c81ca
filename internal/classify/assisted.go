package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"go-disk-cleaner/internal/model"
)

const assistedSystemPrompt = `You review disk-cleanup candidates. For the given filesystem entry and the
deterministic verdict already computed, answer with a JSON object only:
{"tier":"safe|suspicious|dangerous","confidence":0.0-1.0,"reason":"short explanation"}
Prefer "dangerous" whenever the entry could hold user data or is needed by the
operating system. Keep the reason under 120 characters.`

// Opinion is the assisted service's answer for one item.
type Opinion struct {
	Tier       model.RiskTier `json:"tier"`
	Confidence float64        `json:"confidence"`
	Reason     string         `json:"reason"`
}

// Assisted asks an external model for a second opinion on a candidate.
// Every failure mode (transport, auth, parse) is reported as an error the
// caller treats as "no opinion available".
type Assisted struct {
	client anthropic.Client
	model  string
}

const defaultAssistedModel = "claude-sonnet-4-5-20250929"

// NewAssisted builds an assisted classifier.
func NewAssisted(apiKey string, modelName string) *Assisted {
	if modelName == "" {
		modelName = defaultAssistedModel
	}
	return &Assisted{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}
}

// Assess requests an opinion for one item. The request carries only a
// metadata summary, never file contents.
func (a *Assisted) Assess(ctx context.Context, item model.Item, ruleTier model.RiskTier, ruleReason string) (Opinion, error) {
	userPrompt := fmt.Sprintf(
		"path: %s\nkind: %s\nsize_bytes: %d\nmodified: %s\nrule_verdict: %s\nrule_reason: %s",
		item.Path, item.Kind, item.Size, item.ModTime.Format("2006-01-02"), ruleTier, ruleReason,
	)

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: assistedSystemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Opinion{}, fmt.Errorf("assisted classification request: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return parseOpinion(block.Text)
		}
	}
	return Opinion{}, fmt.Errorf("assisted classification: no text content in response")
}

// parseOpinion extracts the JSON answer, tolerating surrounding prose or
// fenced code blocks.
func parseOpinion(raw string) (Opinion, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Opinion{}, fmt.Errorf("assisted classification: no JSON object in %q", truncate(raw, 80))
	}

	var opinion Opinion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &opinion); err != nil {
		return Opinion{}, fmt.Errorf("parse assisted opinion: %w", err)
	}

	opinion.Tier = model.ParseRiskTier(string(opinion.Tier))
	if opinion.Confidence < 0 || opinion.Confidence > 1 {
		slog.Warn("assisted opinion confidence out of range, clamping", "confidence", opinion.Confidence)
		if opinion.Confidence < 0 {
			opinion.Confidence = 0
		} else {
			opinion.Confidence = 1
		}
	}
	return opinion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
