package fs

import (
	"context"
	"sync"
)

// FS is the root state of one filesystem instance: the root directory,
// the current working directory, and the set of attached backends.
//
// The node graph hanging off the root is guarded by the per-node locks;
// the FS mutex guards only the fields below.
type FS struct {
	mu sync.Mutex

	root     *Directory
	cwd      *Directory
	backends []Backend
}

// New creates a filesystem whose root directory lives in the given
// backend. The working directory starts at the root.
func New(ctx context.Context, root Backend) (*FS, error) {
	dir, err := root.CreateDirectory(ctx, 0o777)
	if err != nil {
		return nil, err
	}
	return &FS{
		root:     dir,
		cwd:      dir,
		backends: []Backend{root},
	}, nil
}

// Root returns the root directory. The root never changes after New.
func (fsys *FS) Root() *Directory {
	return fsys.root
}

// CWD returns the current working directory. Two threads may mutate the
// working directory concurrently, so access goes through the FS lock.
func (fsys *FS) CWD() *Directory {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.cwd
}

// SetCWD replaces the current working directory.
func (fsys *FS) SetCWD(dir *Directory) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.cwd = dir
}

// AddBackend attaches an additional backend so nodes can be created in
// it explicitly by the create calls that take a backend override.
// Attaching the same backend twice is a no-op. Returns the backend for
// convenience.
func (fsys *FS) AddBackend(b Backend) Backend {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	for _, attached := range fsys.backends {
		if attached == b {
			return b
		}
	}
	fsys.backends = append(fsys.backends, b)
	return b
}

// Backends returns a snapshot of the attached backends.
func (fsys *FS) Backends() []Backend {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	out := make([]Backend, len(fsys.backends))
	copy(out, fsys.backends)
	return out
}
