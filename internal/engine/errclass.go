package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"

	"go-disk-cleaner/internal/model"
)

// ClassifyError buckets a per-item failure so the retry policy can be
// applied uniformly across phases. "File already gone" is an expected
// outcome here, not an exception.
func ClassifyError(err error) model.ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrBackupVerifyFailed):
		return model.ClassBackupFailed
	case errors.Is(err, os.ErrNotExist):
		return model.ClassNotFound
	case errors.Is(err, os.ErrPermission):
		return model.ClassPermissionDenied
	case errors.Is(err, context.DeadlineExceeded):
		// A blown per-item budget is treated as a disk problem.
		return model.ClassDiskOrIO
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EBUSY, syscall.ETXTBSY:
			return model.ClassFileInUse
		case syscall.EIO, syscall.ENOSPC, syscall.EROFS:
			return model.ClassDiskOrIO
		}
	}

	// Windows reports locked files through free-text messages rather
	// than POSIX errnos.
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "used by another process") || strings.Contains(message, "sharing violation") {
		return model.ClassFileInUse
	}

	return model.ClassUnknown
}

// Remediation suggests the operator action for a failure class.
func Remediation(class model.ErrorClass) string {
	switch class {
	case model.ClassPermissionDenied:
		return "retry with elevated rights"
	case model.ClassFileInUse:
		return "close the program holding the file and retry"
	case model.ClassDiskOrIO:
		return "check disk health and free space, then retry"
	case model.ClassBackupFailed:
		return "verify the backup store volume and retry"
	default:
		return ""
	}
}
