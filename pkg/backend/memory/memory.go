// Package memory implements an in-memory storage backend.
//
// This is the baseline backend: each file's bytes live in a byte slice
// owned by the file. It is designed for:
//   - Testing and development
//   - Ephemeral filesystems (scratch space, build sandboxes)
//   - The base layer under the proxy backend
//
// Characteristics:
//   - Fast: all operations are memory speed
//   - Volatile: data is lost when the process exits
//   - Memory-bound: limited by available RAM
package memory

import (
	"context"

	"github.com/driftlab/driftfs/pkg/fs"
)

// Backend creates files whose content is held in process memory.
type Backend struct{}

// New creates an in-memory backend. It carries no state of its own; all
// bytes live in the files it creates.
func New() *Backend {
	return &Backend{}
}

// CreateFile creates an empty in-memory data file.
func (b *Backend) CreateFile(ctx context.Context, mode uint32) (*fs.DataFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.NewDataFile(mode, b, &content{}), nil
}

// CreateDirectory creates a directory node. Directories store their
// entries in the node itself, so nothing lives in this backend.
func (b *Backend) CreateDirectory(ctx context.Context, mode uint32) (*fs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.NewDirectory(mode, b), nil
}

// content is the byte store of one in-memory file. It needs no lock of
// its own: content operations are always invoked with the owning node's
// lock held.
type content struct {
	data []byte
}

// ReadAt copies bytes starting at off into p. Callers clamp p to the
// current size; any tail of p beyond the end of the data is zero-filled.
func (c *content) ReadAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative read offset"}
	}

	for i := range p {
		p[i] = 0
	}
	if off < int64(len(c.data)) {
		copy(p, c.data[off:])
	}
	return nil
}

// WriteAt copies p into the data at off, growing it with a zero gap if
// off is past the current end.
func (c *content) WriteAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative write offset"}
	}

	if need := off + int64(len(p)); need > int64(len(c.data)) {
		grown := make([]byte, need)
		copy(grown, c.data)
		c.data = grown
	}
	copy(c.data[off:], p)
	return nil
}

// Size returns the current content length.
func (c *content) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(c.data)), nil
}
