package posix

import (
	"context"
	"errors"
	"syscall"

	"github.com/driftlab/driftfs/pkg/fs"
)

// errnoOf translates a core filesystem error into the errno surfaced to
// callers. Unrecognized errors (backend infrastructure failures) come
// out as EIO; context cancellation passes through unchanged so callers
// can distinguish it from filesystem state.
func errnoOf(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var fsErr *fs.Error
	if !errors.As(err, &fsErr) {
		return syscall.EIO
	}

	switch fsErr.Code {
	case fs.ErrNotFound:
		return syscall.ENOENT
	case fs.ErrNotDirectory:
		return syscall.ENOTDIR
	case fs.ErrIsDirectory:
		return syscall.EISDIR
	case fs.ErrAlreadyExists:
		return syscall.EEXIST
	case fs.ErrInvalidArgument:
		return syscall.EINVAL
	case fs.ErrBadDescriptor:
		return syscall.EBADF
	case fs.ErrNotEmpty:
		return syscall.ENOTEMPTY
	case fs.ErrBusy:
		return syscall.EBUSY
	case fs.ErrAccessDenied:
		return syscall.EACCES
	default:
		return syscall.EIO
	}
}
