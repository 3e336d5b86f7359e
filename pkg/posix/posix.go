// Package posix exposes the virtual filesystem through a POSIX-style
// system-call surface: pathname-based operations, integer file
// descriptors, and syscall.Errno error values.
//
// The package is a thin orchestration layer. All tree state lives in
// pkg/fs and is reached through locked handles; this layer adds the
// descriptor table, flag handling, and errno translation.
package posix

import (
	"context"
	"syscall"
	"time"

	"github.com/driftlab/driftfs/pkg/fs"
	"github.com/driftlab/driftfs/pkg/metrics"
)

// VFS is one filesystem instance with its open-descriptor table.
type VFS struct {
	fsys    *fs.FS
	table   fileTable
	metrics metrics.FSMetrics
}

// New wraps a filesystem in the system-call surface. A nil FSMetrics
// disables metrics collection.
func New(fsys *fs.FS, m metrics.FSMetrics) *VFS {
	if m == nil {
		m = metrics.NewNoopFSMetrics()
	}
	return &VFS{fsys: fsys, metrics: m}
}

// FS returns the underlying filesystem.
func (v *VFS) FS() *fs.FS { return v.fsys }

// record reports one completed operation to the metrics sink.
func (v *VFS) record(op string, start time.Time, err error) {
	v.metrics.RecordOperation(op, time.Since(start), err)
}

// openCount returns the number of live descriptors, for the gauge.
func (v *VFS) openCount() int64 {
	v.table.mu.Lock()
	defer v.table.mu.Unlock()
	var n int64
	for _, of := range v.table.entries {
		if of != nil {
			n++
		}
	}
	return n
}

// Open opens the file named by path and returns a new file descriptor.
//
// Flags outside the supported set are a programming error and panic;
// state-dependent failures (missing files, wrong node kinds) come back
// as errnos.
//
// Errors: ENOENT if the file does not exist and O_CREAT is not given,
// EEXIST for O_CREAT|O_EXCL on an existing file, ENOTDIR for
// O_DIRECTORY on a non-directory, EINVAL for an empty path.
//
// O_DIRECTORY combined with O_CREAT on a missing path creates a regular
// file, matching the documented open(2) behavior on Linux.
func (v *VFS) Open(ctx context.Context, path string, flags OpenFlag, mode uint32) (fd int, err error) {
	start := time.Now()
	defer func() { v.record("open", start, err) }()
	return v.doOpen(ctx, path, flags, mode, nil)
}

// OpenWithBackend is Open with an explicit backend for a file created
// by O_CREAT, instead of inheriting the parent's. The backend is
// attached to the filesystem on first use, so children created under
// the new node later inherit it. A nil backend is a programming error
// and panics.
func (v *VFS) OpenWithBackend(ctx context.Context, path string, flags OpenFlag, mode uint32, backend fs.Backend) (fd int, err error) {
	start := time.Now()
	defer func() { v.record("open", start, err) }()

	if backend == nil {
		panic("posix: OpenWithBackend: nil backend")
	}
	return v.doOpen(ctx, path, flags, mode, backend)
}

// doOpen implements Open. A non-nil override selects the backend for a
// created file; nil means the parent's backend.
func (v *VFS) doOpen(ctx context.Context, path string, flags OpenFlag, mode uint32, override fs.Backend) (fd int, err error) {
	if flags&^supportedFlags != 0 {
		panic("posix: Open: unsupported flags")
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	parts := fs.SplitPath(path)
	parsed, perr := v.fsys.ParsePath(parts, nil)
	if perr != nil {
		return -1, errnoOf(perr)
	}
	defer parsed.Parent.Unlock()

	node := parsed.Child
	if node != nil {
		if flags&O_DIRECTORY != 0 && node.Kind() != fs.KindDirectory {
			return -1, syscall.ENOTDIR
		}
		if flags&O_CREAT != 0 && flags&O_EXCL != 0 {
			return -1, syscall.EEXIST
		}
	} else {
		if flags&O_CREAT == 0 {
			return -1, syscall.ENOENT
		}

		// The new file lives in the same backend as its parent unless
		// the caller picked one explicitly.
		backend := override
		if backend == nil {
			backend = parsed.Parent.Node().Backend()
		} else {
			v.fsys.AddBackend(backend)
		}
		file, cerr := backend.CreateFile(ctx, mode&modeMaskFile)
		if cerr != nil {
			return -1, errnoOf(cerr)
		}
		parsed.Parent.SetEntry(parts[len(parts)-1], file)

		now := time.Now()
		parsed.Parent.SetMtime(now)
		parsed.Parent.SetCtime(now)
		node = file
	}

	fd = v.table.add(&openFile{node: node, flags: flags})
	v.metrics.SetOpenDescriptors(v.openCount())
	return fd, nil
}

// Close releases the file descriptor. The shared open-file state
// survives as long as other descriptors from Dup still point at it.
//
// Errors: EBADF if fd is not open.
func (v *VFS) Close(fd int) (err error) {
	start := time.Now()
	defer func() { v.record("close", start, err) }()

	if v.table.remove(fd) == nil {
		return syscall.EBADF
	}
	v.metrics.SetOpenDescriptors(v.openCount())
	return nil
}

// Dup duplicates fd onto the lowest free descriptor. Both descriptors
// share the same open-file state, including the file offset.
//
// Errors: EBADF if fd is not open.
func (v *VFS) Dup(fd int) (newfd int, err error) {
	start := time.Now()
	defer func() { v.record("dup", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return -1, syscall.EBADF
	}
	newfd = v.table.add(of)
	v.metrics.SetOpenDescriptors(v.openCount())
	return newfd, nil
}

// Dup3 duplicates oldfd onto exactly newfd, silently closing whatever
// newfd referred to.
//
// Errors: EINVAL if oldfd == newfd, EBADF if oldfd is not open or newfd
// is negative.
func (v *VFS) Dup3(oldfd, newfd int) (fd int, err error) {
	start := time.Now()
	defer func() { v.record("dup3", start, err) }()

	if oldfd == newfd {
		return -1, syscall.EINVAL
	}
	if newfd < 0 {
		return -1, syscall.EBADF
	}
	of := v.table.get(oldfd)
	if of == nil {
		return -1, syscall.EBADF
	}
	v.table.addAt(newfd, of)
	v.metrics.SetOpenDescriptors(v.openCount())
	return newfd, nil
}
