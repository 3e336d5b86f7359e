package posix

import (
	"context"
	"syscall"
	"time"

	"github.com/driftlab/driftfs/pkg/fs"
)

// Stat is the metadata snapshot returned by the stat family. Field
// meanings follow struct stat.
type Stat struct {
	// Dev is the device number. There is a single virtual device.
	Dev uint64

	// Ino is the node's process-unique inode number.
	Ino uint64

	// Mode combines the file type bits with the permission bits.
	Mode uint32

	// Nlink is the link count. Hard links are not supported, so this
	// is always 1.
	Nlink uint64

	// Size is the content length for regular files and a fixed
	// constant for directories.
	Size int64

	// Blksize is the preferred I/O block size.
	Blksize int64

	// Blocks is the number of 512-byte blocks allocated.
	Blocks int64

	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

// doStat snapshots node metadata under the node's lock.
func doStat(ctx context.Context, node fs.Node) (Stat, error) {
	h := fs.Lock(node)
	defer h.Unlock()

	size, err := h.Size(ctx)
	if err != nil {
		return Stat{}, errnoOf(err)
	}

	mode := h.Mode()
	switch node.Kind() {
	case fs.KindDirectory:
		mode |= S_IFDIR
	case fs.KindSymlink:
		mode |= S_IFLNK
	default:
		mode |= S_IFREG
	}

	return Stat{
		Dev:     1,
		Ino:     node.Ino(),
		Mode:    mode,
		Nlink:   1,
		Size:    size,
		Blksize: fs.DirectorySize,
		Blocks:  (size + 511) / 512,
		Atime:   h.Atime(),
		Mtime:   h.Mtime(),
		Ctime:   h.Ctime(),
	}, nil
}

// Stat returns metadata for the file named by path.
//
// Errors: ENOENT if the file does not exist, plus the usual path
// resolution errnos.
func (v *VFS) Stat(ctx context.Context, path string) (st Stat, err error) {
	start := time.Now()
	defer func() { v.record("stat", start, err) }()

	parsed, perr := v.fsys.ParsePath(fs.SplitPath(path), nil)
	if perr != nil {
		return Stat{}, errnoOf(perr)
	}
	node := parsed.Child
	parsed.Parent.Unlock()

	if node == nil {
		return Stat{}, syscall.ENOENT
	}
	return doStat(ctx, node)
}

// Lstat is identical to Stat while symlinks remain unsupported; it
// exists so callers written against the full surface keep working.
func (v *VFS) Lstat(ctx context.Context, path string) (Stat, error) {
	return v.Stat(ctx, path)
}

// Fstat returns metadata for an open descriptor.
//
// Errors: EBADF if fd is not open.
func (v *VFS) Fstat(ctx context.Context, fd int) (st Stat, err error) {
	start := time.Now()
	defer func() { v.record("fstat", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return Stat{}, syscall.EBADF
	}
	return doStat(ctx, of.node)
}
