package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/repository"
	"go-disk-cleaner/pkg/apierror"
)

// AuditService records who did what to which resource. Logging is best
// effort; a failed write never fails the audited operation.
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(ctx context.Context, action string, actor model.Actor, status string, resource string, detail any, errText string) {
	if s == nil || s.repo == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Detail:     detail,
		Error:      errText,
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Warn("audit entry not written", "action", action, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if from := strings.TrimSpace(query.From); from != "" {
		if _, err := parseAuditTime(from); err != nil {
			return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'from' datetime format", query.From, http.StatusBadRequest)
		}
	}
	if to := strings.TrimSpace(query.To); to != "" {
		if _, err := parseAuditTime(to); err != nil {
			return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'to' datetime format", query.To, http.StatusBadRequest)
		}
	}

	return s.repo.Query(ctx, query)
}

func parseAuditTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}
