package handler

import (
	"encoding/json"
	"net/http"

	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/service"
	"go-disk-cleaner/pkg/apierror"
)

type ClassifyHandler struct {
	plans *service.PlanService
}

func NewClassifyHandler(plans *service.PlanService) *ClassifyHandler {
	return &ClassifyHandler{plans: plans}
}

func (h *ClassifyHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	override, err := h.plans.SubmitFeedback(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, override, nil)
}

func (h *ClassifyHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.plans.ListFeedback(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, overrides, nil)
}

func (h *ClassifyHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, apierror.New("BAD_REQUEST", "path query parameter is required", "path", http.StatusBadRequest))
		return
	}

	if err := h.plans.DeleteFeedback(r.Context(), path, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *ClassifyHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	evicted := h.plans.InvalidateCache(r.Context(), actorFromRequest(r))
	writeSuccess(w, http.StatusOK, map[string]any{"evicted": evicted}, nil)
}
