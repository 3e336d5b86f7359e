package posix

import (
	"context"
	"io"
	"syscall"
	"time"

	"github.com/driftlab/driftfs/pkg/fs"
)

// doRead reads up to len(p) bytes from node at off. Reads past the end
// of the file are clamped; a read starting at or beyond the end returns
// 0 bytes.
func doRead(ctx context.Context, of *openFile, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, syscall.EINVAL
	}
	if of.node.Kind() == fs.KindDirectory {
		return 0, syscall.EISDIR
	}
	if !of.readable() {
		return 0, syscall.EBADF
	}

	file := of.node.(*fs.DataFile)
	h := file.Locked()
	defer h.Unlock()

	size, err := h.Size(ctx)
	if err != nil {
		return 0, errnoOf(err)
	}
	if off >= size {
		return 0, nil
	}
	n := len(p)
	if int64(n) > size-off {
		n = int(size - off)
	}

	if err := h.Read(ctx, p[:n], off); err != nil {
		return 0, errnoOf(err)
	}
	h.SetAtime(time.Now())
	return n, nil
}

// doWrite writes len(p) bytes to node at off, growing the file as
// needed.
func doWrite(ctx context.Context, of *openFile, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, syscall.EINVAL
	}
	if of.node.Kind() == fs.KindDirectory {
		return 0, syscall.EISDIR
	}
	if !of.writable() {
		return 0, syscall.EBADF
	}

	file := of.node.(*fs.DataFile)
	h := file.Locked()
	defer h.Unlock()

	if err := h.Write(ctx, p, off); err != nil {
		return 0, errnoOf(err)
	}
	now := time.Now()
	h.SetMtime(now)
	h.SetCtime(now)
	return len(p), nil
}

// Read reads from the descriptor's current offset and advances it by the
// number of bytes read.
//
// Errors: EBADF if fd is not open or not open for reading, EISDIR for a
// directory.
func (v *VFS) Read(ctx context.Context, fd int, p []byte) (n int, err error) {
	start := time.Now()
	defer func() { v.record("read", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return 0, syscall.EBADF
	}
	pos := of.position()
	n, err = doRead(ctx, of, p, pos)
	if err != nil {
		return 0, err
	}
	of.setPosition(pos + int64(n))
	v.metrics.RecordBytes("read", n)
	return n, nil
}

// Pread reads at an explicit offset without moving the descriptor's
// offset.
func (v *VFS) Pread(ctx context.Context, fd int, p []byte, off int64) (n int, err error) {
	start := time.Now()
	defer func() { v.record("pread", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return 0, syscall.EBADF
	}
	n, err = doRead(ctx, of, p, off)
	if err != nil {
		return 0, err
	}
	v.metrics.RecordBytes("read", n)
	return n, nil
}

// Write writes at the descriptor's current offset and advances it by the
// number of bytes written.
//
// Errors: EBADF if fd is not open or not open for writing, EISDIR for a
// directory.
func (v *VFS) Write(ctx context.Context, fd int, p []byte) (n int, err error) {
	start := time.Now()
	defer func() { v.record("write", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return 0, syscall.EBADF
	}
	pos := of.position()
	n, err = doWrite(ctx, of, p, pos)
	if err != nil {
		return 0, err
	}
	of.setPosition(pos + int64(n))
	v.metrics.RecordBytes("write", n)
	return n, nil
}

// Pwrite writes at an explicit offset without moving the descriptor's
// offset.
func (v *VFS) Pwrite(ctx context.Context, fd int, p []byte, off int64) (n int, err error) {
	start := time.Now()
	defer func() { v.record("pwrite", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return 0, syscall.EBADF
	}
	n, err = doWrite(ctx, of, p, off)
	if err != nil {
		return 0, err
	}
	v.metrics.RecordBytes("write", n)
	return n, nil
}

// Seek repositions the descriptor's offset. Whence is one of
// io.SeekStart, io.SeekCurrent, or io.SeekEnd. Seeking past the end is
// allowed; a later write there leaves a zero-filled gap.
//
// Errors: EBADF if fd is not open, EINVAL for an unknown whence or a
// resulting offset that is negative.
func (v *VFS) Seek(ctx context.Context, fd int, offset int64, whence int) (pos int64, err error) {
	start := time.Now()
	defer func() { v.record("seek", start, err) }()

	of := v.table.get(fd)
	if of == nil {
		return 0, syscall.EBADF
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = of.position()
	case io.SeekEnd:
		h := fs.Lock(of.node)
		size, serr := h.Size(ctx)
		h.Unlock()
		if serr != nil {
			return 0, errnoOf(serr)
		}
		base = size
	default:
		return 0, syscall.EINVAL
	}

	pos = base + offset
	if pos < 0 {
		return 0, syscall.EINVAL
	}
	of.setPosition(pos)
	return pos, nil
}
