package posix

import (
	"context"
	"strings"
	"syscall"
	"time"

	"github.com/driftlab/driftfs/pkg/fs"
)

// Mkdir creates a directory at path with the given permission bits. The
// mode is masked so callers cannot smuggle in file type bits; the new
// directory is created in the same backend as its parent.
//
// Errors: EEXIST if the path already names a node, plus the usual path
// resolution errnos.
func (v *VFS) Mkdir(ctx context.Context, path string, mode uint32) (err error) {
	start := time.Now()
	defer func() { v.record("mkdir", start, err) }()
	return v.doMkdir(ctx, path, mode, nil)
}

// MkdirWithBackend is Mkdir with an explicit backend for the new
// directory, rooting a subtree in a different store than its parent.
// The backend is attached to the filesystem on first use. A nil
// backend is a programming error and panics.
func (v *VFS) MkdirWithBackend(ctx context.Context, path string, mode uint32, backend fs.Backend) (err error) {
	start := time.Now()
	defer func() { v.record("mkdir", start, err) }()

	if backend == nil {
		panic("posix: MkdirWithBackend: nil backend")
	}
	return v.doMkdir(ctx, path, mode, backend)
}

// doMkdir implements Mkdir. A non-nil override selects the backend for
// the new directory; nil means the parent's backend.
func (v *VFS) doMkdir(ctx context.Context, path string, mode uint32, override fs.Backend) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parts := fs.SplitPath(path)
	parsed, perr := v.fsys.ParsePath(parts, nil)
	if perr != nil {
		return errnoOf(perr)
	}
	defer parsed.Parent.Unlock()

	if parsed.Child != nil {
		return syscall.EEXIST
	}

	backend := parsed.Parent.Node().Backend()
	if override != nil {
		backend = v.fsys.AddBackend(override)
	}
	dir, cerr := backend.CreateDirectory(ctx, mode&modeMaskDir)
	if cerr != nil {
		return errnoOf(cerr)
	}
	parsed.Parent.SetEntry(parts[len(parts)-1], dir)

	now := time.Now()
	parsed.Parent.SetMtime(now)
	parsed.Parent.SetCtime(now)
	return nil
}

// unlinkMode selects between unlink and rmdir semantics in doUnlink.
type unlinkMode int

const (
	modeUnlink unlinkMode = iota
	modeRmdir
)

// doUnlink removes the directory entry named by path.
func (v *VFS) doUnlink(ctx context.Context, path string, mode unlinkMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parts := fs.SplitPath(path)
	parsed, perr := v.fsys.ParsePath(parts, nil)
	if perr != nil {
		return errnoOf(perr)
	}
	defer parsed.Parent.Unlock()

	if parsed.Child == nil {
		return syscall.ENOENT
	}

	// The root directory can never be removed.
	if parsed.Child == v.fsys.Root() {
		return syscall.EBUSY
	}

	dir, isDir := parsed.Child.(*fs.Directory)
	if mode == modeRmdir {
		if !isDir {
			return syscall.ENOTDIR
		}
		// Only empty directories can be removed. The parent lock is
		// already held, so locking the child keeps the usual
		// parent-then-child order.
		h := dir.Locked()
		n := h.CountEntries()
		h.Unlock()
		if n > 0 {
			return syscall.ENOTEMPTY
		}
	} else {
		if isDir {
			return syscall.EISDIR
		}
	}

	if parsed.Parent.Mode()&permWrite == 0 {
		return syscall.EACCES
	}

	parsed.Parent.UnlinkEntry(parts[len(parts)-1])

	now := time.Now()
	parsed.Parent.SetMtime(now)
	parsed.Parent.SetCtime(now)
	return nil
}

// Unlink removes the file named by path. The node stays alive while
// open descriptors reference it; only the directory entry goes away.
//
// Errors: ENOENT if absent, EISDIR for a directory, EBUSY for the root,
// EACCES when the parent directory is not writable.
func (v *VFS) Unlink(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { v.record("unlink", start, err) }()
	return v.doUnlink(ctx, path, modeUnlink)
}

// Rmdir removes the empty directory named by path.
//
// Errors: ENOENT if absent, ENOTDIR for a non-directory, ENOTEMPTY for
// a directory with entries, EBUSY for the root, EACCES when the parent
// directory is not writable.
func (v *VFS) Rmdir(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { v.record("rmdir", start, err) }()
	return v.doUnlink(ctx, path, modeRmdir)
}

// Chdir changes the current working directory to path.
//
// Errors: ENOENT if absent, ENOTDIR for a non-directory.
func (v *VFS) Chdir(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { v.record("chdir", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	parsed, perr := v.fsys.ParsePath(fs.SplitPath(path), nil)
	if perr != nil {
		return errnoOf(perr)
	}
	node := parsed.Child
	parsed.Parent.Unlock()

	if node == nil {
		return syscall.ENOENT
	}
	dir, ok := node.(*fs.Directory)
	if !ok {
		return syscall.ENOTDIR
	}
	v.fsys.SetCWD(dir)
	return nil
}

// Getcwd returns the absolute pathname of the current working
// directory, reconstructed by walking parent links up to the root.
//
// Errors: ENOENT if the working directory or one of its ancestors has
// been unlinked.
func (v *VFS) Getcwd() (path string, err error) {
	start := time.Now()
	defer func() { v.record("getcwd", start, err) }()

	curr := v.fsys.CWD()
	root := v.fsys.Root()

	var sb strings.Builder
	var components []string
	for curr != root {
		h := fs.Lock(curr)
		parent := h.Parent()
		h.Unlock()

		// The working directory or an ancestor was unlinked out from
		// under us.
		if parent == nil {
			return "", syscall.ENOENT
		}

		ph := parent.Locked()
		name := ph.NameOf(curr)
		ph.Unlock()

		components = append(components, name)
		curr = parent
	}

	if len(components) == 0 {
		return "/", nil
	}
	for i := len(components) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(components[i])
	}
	return sb.String(), nil
}

// Dirent is one directory entry as returned by ReadDir.
type Dirent struct {
	// Name is the entry's name within the directory.
	Name string

	// Ino is the entry's inode number.
	Ino uint64

	// Kind is the entry's node kind.
	Kind fs.Kind
}

// ReadDir returns the entries of the directory open on fd, starting at
// the descriptor's current position and advancing it past everything
// returned. The synthesized "." and ".." entries come first; in the
// root directory ".." refers to the root itself.
//
// Errors: EBADF if fd is not open, ENOTDIR for a non-directory, ENOENT
// if the directory has been unlinked.
func (v *VFS) ReadDir(ctx context.Context, fd int) (entries []Dirent, err error) {
	start := time.Now()
	defer func() { v.record("readdir", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	of := v.table.get(fd)
	if of == nil {
		return nil, syscall.EBADF
	}
	dir, ok := of.node.(*fs.Directory)
	if !ok {
		return nil, syscall.ENOTDIR
	}

	// Hold the directory lock so the listing is a consistent snapshot.
	h := dir.Locked()
	defer h.Unlock()

	dotdot := fs.Node(dir)
	if dir != v.fsys.Root() {
		parent := h.Parent()
		// An unlinked directory has nothing to report ".." against.
		if parent == nil {
			return nil, syscall.ENOENT
		}
		dotdot = parent
	}

	all := []Dirent{
		{Name: ".", Ino: dir.Ino(), Kind: fs.KindDirectory},
		{Name: "..", Ino: dotdot.Ino(), Kind: fs.KindDirectory},
	}
	for _, e := range h.Entries() {
		all = append(all, Dirent{Name: e.Name, Ino: e.Node.Ino(), Kind: e.Node.Kind()})
	}

	// A directory descriptor's position indexes into this listing, so a
	// second call picks up where the previous one stopped.
	pos := of.position()
	if pos >= int64(len(all)) {
		return nil, nil
	}
	of.setPosition(int64(len(all)))
	return all[pos:], nil
}
