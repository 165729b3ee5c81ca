package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/service"
	"go-disk-cleaner/pkg/apierror"
)

type BackupHandler struct {
	backups *service.BackupService
}

func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.BackupFilter{
		IncludeRestored: query.Get("include_restored") == "true",
	}
	if tier := query.Get("tier"); tier != "" {
		filter.Tier = model.ParseRiskTier(tier)
	}
	if kind := query.Get("kind"); kind != "" {
		filter.Kind = model.BackupKind(kind)
	}
	if from := query.Get("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = parsed
		}
	}
	if to := query.Get("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = parsed
		}
	}
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))

	records, err := h.backups.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, records, nil)
}

func (h *BackupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backups.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	stats, records, err := h.backups.Restore(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"stats": stats, "records": records}, nil)
}

func (h *BackupHandler) CleanupExpired(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CleanupExpiredRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	removed, freed, err := h.backups.CleanupExpired(r.Context(), payload.RetentionDays, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"removed": removed, "freed_bytes": freed}, nil)
}
