package model

import "errors"

var (
	// Auth
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Plans and executions
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPlanAlreadyRunning = errors.New("plan is already executing")
	ErrResultNotFound     = errors.New("execution result not found")

	// Backup and recovery
	ErrBackupNotFound      = errors.New("backup record not found")
	ErrBackupVerifyFailed  = errors.New("backup verification failed")
	ErrAlreadyRestored     = errors.New("backup already restored")
	ErrExecutionInProgress = errors.New("an execution is in progress")

	// Classification cache
	ErrCacheMiss        = errors.New("classification cache miss")
	ErrOverrideNotFound = errors.New("feedback override not found")

	// Generic
	ErrInvalidInput = errors.New("invalid input")
)
