package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-disk-cleaner/internal/engine"
	"go-disk-cleaner/internal/event"
	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/repository"
)

type queuedExecution struct {
	planID string
	actor  model.Actor
}

// ExecutionService runs plans asynchronously on a single worker. Submit
// returns as soon as the plan is queued; progress flows over the event
// bus and the final result lands in the result repository.
type ExecutionService struct {
	engine  *engine.Engine
	plans   *repository.PlanRepository
	results *repository.ResultRepository
	bus     event.Bus
	audit   *AuditService

	mu     sync.Mutex
	queued map[string]bool
	queue  chan queuedExecution
}

func NewExecutionService(
	eng *engine.Engine,
	plans *repository.PlanRepository,
	results *repository.ResultRepository,
	bus event.Bus,
	audit *AuditService,
) *ExecutionService {
	s := &ExecutionService{
		engine:  eng,
		plans:   plans,
		results: results,
		bus:     bus,
		audit:   audit,
		queued:  map[string]bool{},
		queue:   make(chan queuedExecution, 64),
	}

	go s.workerLoop()
	return s
}

// Submit queues a plan for execution. A plan that is already queued or
// running is rejected, so each plan id has at most one execution in
// flight.
func (s *ExecutionService) Submit(ctx context.Context, planID string, actor model.Actor) (model.ExecutionResult, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return model.ExecutionResult{}, err
	}

	s.mu.Lock()
	if s.queued[planID] || s.engine.Running(planID) {
		s.mu.Unlock()
		return model.ExecutionResult{}, model.ErrPlanAlreadyRunning
	}
	s.queued[planID] = true
	s.mu.Unlock()

	s.queue <- queuedExecution{planID: plan.ID, actor: actor}

	s.audit.Log(ctx, "plan.execute", actor, "queued", planID, plan.Totals, "")
	return model.ExecutionResult{
		PlanID:     plan.ID,
		Status:     model.StatusPending,
		TotalItems: plan.Totals.TotalItems,
		TotalSize:  plan.Totals.TotalSize,
	}, nil
}

// Cancel requests cooperative cancellation of a running plan. Plans that
// are queued but not yet started cannot be cancelled.
func (s *ExecutionService) Cancel(ctx context.Context, planID string, actor model.Actor) error {
	if !s.engine.Cancel(planID) {
		return model.ErrResultNotFound
	}
	s.audit.Log(ctx, "plan.cancel", actor, "requested", planID, nil, "")
	return nil
}

func (s *ExecutionService) GetResult(ctx context.Context, planID string) (model.ExecutionResult, error) {
	return s.results.FindByPlanID(ctx, planID)
}

func (s *ExecutionService) History(ctx context.Context, limit int) ([]model.ExecutionResult, error) {
	return s.results.ListRecent(ctx, limit)
}

// Running reports whether the plan currently executes.
func (s *ExecutionService) Running(planID string) bool {
	return s.engine.Running(planID)
}

func (s *ExecutionService) workerLoop() {
	for next := range s.queue {
		s.process(next.planID, next.actor)
	}
}

func (s *ExecutionService) process(planID string, actor model.Actor) {
	defer func() {
		s.mu.Lock()
		delete(s.queued, planID)
		s.mu.Unlock()
	}()

	ctx := context.Background()
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		slog.Error("queued plan vanished", "plan_id", planID, "error", err)
		return
	}

	s.publish(event.TypePlanStarted, map[string]any{"plan_id": planID, "totals": plan.Totals}, actor)

	result, err := s.engine.Execute(ctx, plan, func(progress engine.Progress) {
		switch progress.Status {
		case "success":
			s.publish(event.TypeItemDeleted, progress, actor)
		case "failed":
			s.publish(event.TypeItemFailed, progress, actor)
		default:
			s.publish(event.TypePlanProgress, progress, actor)
		}
	})
	if err != nil {
		s.publish(event.TypePlanFailed, map[string]any{"plan_id": planID, "error": err.Error()}, actor)
		s.audit.Log(ctx, "plan.execute", actor, "failed", planID, nil, err.Error())
		return
	}

	payload := map[string]any{
		"plan_id":   planID,
		"status":    result.Status,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"freed":     result.FreedSize,
	}
	switch result.Status {
	case model.StatusCancelled:
		s.publish(event.TypePlanCancelled, payload, actor)
	case model.StatusFailed:
		s.publish(event.TypePlanFailed, payload, actor)
	default:
		s.publish(event.TypePlanCompleted, payload, actor)
	}
	s.audit.Log(ctx, "plan.execute", actor, string(result.Status), planID, payload, "")
}

func (s *ExecutionService) publish(eventType event.Type, payload any, actor model.Actor) {
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
