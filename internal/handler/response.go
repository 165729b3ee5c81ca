package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"go-disk-cleaner/internal/model"
	"go-disk-cleaner/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrPlanNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Plan not found"
	} else if errors.Is(err, model.ErrPlanAlreadyRunning) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Plan is already executing"
	} else if errors.Is(err, model.ErrResultNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Execution result not found"
	} else if errors.Is(err, model.ErrBackupNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Backup record not found"
	} else if errors.Is(err, model.ErrAlreadyRestored) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Backup already restored"
	} else if errors.Is(err, model.ErrExecutionInProgress) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "An execution is in progress"
	} else if errors.Is(err, model.ErrBackupVerifyFailed) {
		status = http.StatusInternalServerError
		body.Code = "BACKUP_FAILED"
		body.Message = "Backup verification failed"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrOverrideNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Feedback override not found"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else if errors.Is(err, os.ErrPermission) {
		status = http.StatusForbidden
		body.Code = "PERMISSION_DENIED"
		body.Message = "Permission denied on the filesystem"
		body.Details = err.Error()
	} else if errors.Is(err, os.ErrNotExist) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Path not found"
		body.Details = err.Error()
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
