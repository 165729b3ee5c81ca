package service

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-disk-cleaner/internal/cache"
	"go-disk-cleaner/internal/classify"
	"go-disk-cleaner/internal/event"
	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/repository"
	"go-disk-cleaner/internal/scanner"
	"go-disk-cleaner/pkg/apierror"
)

// Assessor is the assisted classifier as the plan builder sees it.
type Assessor interface {
	Assess(ctx context.Context, item model.Item, ruleTier model.RiskTier, ruleReason string) (classify.Opinion, error)
}

// PlanService builds classified cleanup plans. Classification sources are
// consulted in fixed order: user override, deterministic rules, cached
// assisted opinion, live assisted opinion. A missing or failing assisted
// service degrades to the deterministic verdict, never blocks.
type PlanService struct {
	rules    *classify.Engine
	cache    *cache.Cache
	assisted Assessor
	feedback *repository.FeedbackRepository
	plans    *repository.PlanRepository
	scan     *scanner.Scanner
	bus      event.Bus
	audit    *AuditService
}

func NewPlanService(
	rules *classify.Engine,
	classCache *cache.Cache,
	assisted Assessor,
	feedback *repository.FeedbackRepository,
	plans *repository.PlanRepository,
	scan *scanner.Scanner,
	bus event.Bus,
	audit *AuditService,
) *PlanService {
	return &PlanService{
		rules:    rules,
		cache:    classCache,
		assisted: assisted,
		feedback: feedback,
		plans:    plans,
		scan:     scan,
		bus:      bus,
		audit:    audit,
	}
}

// Scan walks a root and returns classified candidates without creating a
// plan. The assisted service is skipped here: previews stay cheap.
func (s *PlanService) Scan(ctx context.Context, req model.ScanRequest, actor model.Actor) ([]model.Item, error) {
	root := strings.TrimSpace(req.Root)
	if root == "" {
		return nil, apierror.New("BAD_REQUEST", "scan root is required", "root", http.StatusBadRequest)
	}

	walker := s.scan
	if req.MaxDepth > 0 {
		walker = scanner.New(scanner.Options{MaxDepth: req.MaxDepth})
	}

	items, err := walker.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i] = s.classifyDeterministic(ctx, items[i])
	}

	s.publish(event.TypeScanCompleted, map[string]any{"root": root, "items": len(items)}, actor)
	s.audit.Log(ctx, "scan", actor, "success", root, map[string]any{"items": len(items)}, "")
	return items, nil
}

// CreatePlan classifies the submitted items through every source and
// persists the resulting plan.
func (s *PlanService) CreatePlan(ctx context.Context, req model.CreatePlanRequest, actor model.Actor) (model.CleanupPlan, error) {
	if len(req.Items) == 0 {
		return model.CleanupPlan{}, apierror.New("BAD_REQUEST", "plan requires at least one item", "items", http.StatusBadRequest)
	}

	items := make([]model.Item, 0, len(req.Items))
	for _, input := range req.Items {
		if strings.TrimSpace(input.Path) == "" {
			return model.CleanupPlan{}, apierror.New("BAD_REQUEST", "item path is required", "items.path", http.StatusBadRequest)
		}
		item := model.Item{
			ID:        uuid.NewString(),
			Path:      input.Path,
			Size:      input.Size,
			Kind:      input.Kind,
			Extension: strings.ToLower(filepath.Ext(input.Path)),
			ModTime:   input.ModTime,
		}
		if item.Kind == "" {
			item.Kind = model.KindFile
		}
		items = append(items, s.classifyFull(ctx, item))
	}

	plan := model.CleanupPlan{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Items:     items,
		Totals:    model.ComputeTotals(items),
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return model.CleanupPlan{}, err
	}

	s.publish(event.TypePlanCreated, map[string]any{"plan_id": plan.ID, "totals": plan.Totals}, actor)
	s.audit.Log(ctx, "plan.create", actor, "success", plan.ID, plan.Totals, "")
	return plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context, id string) (model.CleanupPlan, error) {
	return s.plans.FindByID(ctx, id)
}

func (s *PlanService) ListPlans(ctx context.Context, limit int, offset int) ([]model.CleanupPlan, error) {
	return s.plans.List(ctx, limit, offset)
}

func (s *PlanService) DeletePlan(ctx context.Context, id string, actor model.Actor) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, "plan.delete", actor, "success", id, nil, "")
	return nil
}

// SubmitFeedback records a user tier override for a path. Overrides win
// over every other classification source on the next plan build.
func (s *PlanService) SubmitFeedback(ctx context.Context, req model.FeedbackRequest, actor model.Actor) (model.FeedbackOverride, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return model.FeedbackOverride{}, apierror.New("BAD_REQUEST", "feedback path is required", "path", http.StatusBadRequest)
	}

	override := model.FeedbackOverride{
		Path:      path,
		Tier:      model.ParseRiskTier(req.Tier),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.feedback.Upsert(ctx, override); err != nil {
		return model.FeedbackOverride{}, err
	}

	s.audit.Log(ctx, "classify.feedback", actor, "success", path, map[string]any{"tier": override.Tier}, "")
	return override, nil
}

func (s *PlanService) ListFeedback(ctx context.Context) ([]model.FeedbackOverride, error) {
	return s.feedback.List(ctx)
}

func (s *PlanService) DeleteFeedback(ctx context.Context, path string, actor model.Actor) error {
	if err := s.feedback.Delete(ctx, path); err != nil {
		return err
	}
	s.audit.Log(ctx, "classify.feedback.delete", actor, "success", path, nil, "")
	return nil
}

// InvalidateCache sweeps expired classification records from both cache
// tiers and reports how many were evicted.
func (s *PlanService) InvalidateCache(ctx context.Context, actor model.Actor) int {
	evicted := s.cache.InvalidateExpired(ctx)
	s.publish(event.TypeCacheInvalidate, map[string]any{"evicted": evicted}, actor)
	s.audit.Log(ctx, "cache.invalidate", actor, "success", "", map[string]any{"evicted": evicted}, "")
	return evicted
}

// classifyDeterministic applies overrides and rules only.
func (s *PlanService) classifyDeterministic(ctx context.Context, item model.Item) model.Item {
	// Any override lookup failure, including a repository outage, falls
	// through to the rules.
	if override, err := s.feedback.Get(ctx, item.Path); err == nil {
		item.OriginalTier = override.Tier
		item.Reason = "user override"
		return item
	}

	tier, reason := s.rules.Classify(item)
	item.OriginalTier = tier
	item.Reason = reason
	return item
}

// classifyFull adds the cached or live assisted opinion on top of the
// deterministic verdict.
func (s *PlanService) classifyFull(ctx context.Context, item model.Item) model.Item {
	item = s.classifyDeterministic(ctx, item)
	if item.Reason == "user override" {
		return item
	}

	signature := item.Signature()
	if record, err := s.cache.Get(ctx, signature); err == nil {
		item.AssistedTier = record.Tier
		item.AssistedConfidence = record.Confidence
		if record.Reason != "" {
			item.Reason = record.Reason
		}
		return item
	}

	if s.assisted == nil {
		return item
	}

	opinion, err := s.assisted.Assess(ctx, item, item.OriginalTier, item.Reason)
	if err != nil {
		// No opinion available: the deterministic tier stands.
		return item
	}

	s.cache.Put(ctx, signature, opinion.Tier, opinion.Confidence, opinion.Reason, cache.DefaultTTL)
	item.AssistedTier = opinion.Tier
	item.AssistedConfidence = opinion.Confidence
	if opinion.Reason != "" {
		item.Reason = opinion.Reason
	}
	return item
}

func (s *PlanService) publish(eventType event.Type, payload any, actor model.Actor) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actor.UserID,
	})
}
