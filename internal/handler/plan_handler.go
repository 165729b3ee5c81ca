package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/internal/service"
	"go-disk-cleaner/pkg/apierror"
)

type PlanHandler struct {
	plans      *service.PlanService
	executions *service.ExecutionService
}

func NewPlanHandler(plans *service.PlanService, executions *service.ExecutionService) *PlanHandler {
	return &PlanHandler{plans: plans, executions: executions}
}

func (h *PlanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	items, err := h.plans.Scan(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"items": items, "total": len(items)}, nil)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	plan, err := h.plans.CreatePlan(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, plan, nil)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.plans.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, plan, nil)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	plans, err := h.plans.ListPlans(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, plans, nil)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.DeletePlan(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *PlanHandler) Execute(w http.ResponseWriter, r *http.Request) {
	result, err := h.executions.Submit(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, result, nil)
}

func (h *PlanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.executions.Cancel(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"cancel_requested": true}, nil)
}

func (h *PlanHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.executions.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *PlanHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.executions.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, results, nil)
}
