package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want model.ErrorClass
	}{
		{"nil", nil, ""},
		{"not exist", os.ErrNotExist, model.ClassNotFound},
		{"wrapped not exist", fmt.Errorf("lstat: %w", os.ErrNotExist), model.ClassNotFound},
		{"permission", os.ErrPermission, model.ClassPermissionDenied},
		{"backup verify", fmt.Errorf("%w: checksum mismatch", model.ErrBackupVerifyFailed), model.ClassBackupFailed},
		{"deadline", context.DeadlineExceeded, model.ClassDiskOrIO},
		{"ebusy", syscall.EBUSY, model.ClassFileInUse},
		{"etxtbsy", syscall.ETXTBSY, model.ClassFileInUse},
		{"eio", syscall.EIO, model.ClassDiskOrIO},
		{"enospc", syscall.ENOSPC, model.ClassDiskOrIO},
		{"erofs", syscall.EROFS, model.ClassDiskOrIO},
		{"wrapped errno", &os.PathError{Op: "remove", Path: "/x", Err: syscall.EBUSY}, model.ClassFileInUse},
		{"windows sharing violation", errors.New("The process cannot access the file because it is being used by another process."), model.ClassFileInUse},
		{"unrecognized", errors.New("something odd"), model.ClassUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}

func TestRemediation(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Remediation(model.ClassPermissionDenied))
	require.NotEmpty(t, Remediation(model.ClassFileInUse))
	require.NotEmpty(t, Remediation(model.ClassDiskOrIO))
	require.NotEmpty(t, Remediation(model.ClassBackupFailed))
	require.Empty(t, Remediation(model.ClassUnknown))
	require.Empty(t, Remediation(model.ClassNotFound))
}
