package fs

import (
	"context"
	"sort"
	"time"
)

// Handle is a scoped, locked view of a node. Every read or mutation of a
// node's metadata, content delegate, or child map happens through one.
//
// A handle is acquired with Lock (blocking) or TryLock (non-blocking) and
// must be released with Unlock. Handles are not reentrant: acquiring a
// second handle on a node already held by the same call chain deadlocks.
// Call chains therefore hold at most one handle at a time; the only
// exception is the parent-then-child pair taken inside SetEntry and
// UnlinkEntry.
type Handle struct {
	node Node
	f    *File
}

// Lock blocks until the node's lock is free and returns a handle on it.
func Lock(n Node) Handle {
	f := n.header()
	f.mu.Lock()
	return Handle{node: n, f: f}
}

// TryLock attempts a non-blocking acquisition. It exists for algorithms
// that must never block while already holding a different node's lock,
// such as locking a rename destination.
func TryLock(n Node) (Handle, bool) {
	f := n.header()
	if !f.mu.TryLock() {
		return Handle{}, false
	}
	return Handle{node: n, f: f}, true
}

// Unlock releases the handle. The handle must not be used afterwards.
func (h Handle) Unlock() {
	h.f.mu.Unlock()
}

// Node returns the underlying node, still locked by this handle.
func (h Handle) Node() Node { return h.node }

// Size returns the node's size: the content length for data files, a
// fixed constant for directories.
func (h Handle) Size(ctx context.Context) (int64, error) {
	switch n := h.node.(type) {
	case *DataFile:
		return n.content.Size(ctx)
	case *Directory:
		return DirectorySize, nil
	default:
		return 0, &Error{Code: ErrInvalidArgument, Message: "size of unsupported node kind"}
	}
}

// Mode returns the permission bits.
func (h Handle) Mode() uint32 { return h.f.mode }

// SetMode replaces the permission bits.
func (h Handle) SetMode(mode uint32) { h.f.mode = mode }

// Ctime returns the node-change time.
func (h Handle) Ctime() time.Time { return h.f.ctime }

// SetCtime sets the node-change time.
func (h Handle) SetCtime(t time.Time) { h.f.ctime = t }

// Mtime returns the content-modification time.
func (h Handle) Mtime() time.Time { return h.f.mtime }

// SetMtime sets the content-modification time.
func (h Handle) SetMtime(t time.Time) { h.f.mtime = t }

// Atime returns the access time.
func (h Handle) Atime() time.Time { return h.f.atime }

// SetAtime sets the access time.
func (h Handle) SetAtime(t time.Time) { h.f.atime = t }

// Parent returns the directory currently containing this node, or nil if
// the node is unlinked or the root.
func (h Handle) Parent() *Directory { return h.f.parent }

// ============================================================================
// DataFile handles
// ============================================================================

// DataFileHandle is a locked view of a data file, adding the
// backend-delegated content operations.
type DataFileHandle struct {
	Handle

	file *DataFile
}

// Locked blocks until the file's lock is free and returns a typed handle.
func (f *DataFile) Locked() DataFileHandle {
	return DataFileHandle{Handle: Lock(f), file: f}
}

// TryLocked attempts a non-blocking acquisition.
func (f *DataFile) TryLocked() (DataFileHandle, bool) {
	h, ok := TryLock(f)
	if !ok {
		return DataFileHandle{}, false
	}
	return DataFileHandle{Handle: h, file: f}, true
}

// Read reads len(p) bytes at off from the file's content. Callers clamp
// p to the current size first.
func (h DataFileHandle) Read(ctx context.Context, p []byte, off int64) error {
	return h.file.content.ReadAt(ctx, p, off)
}

// Write writes len(p) bytes at off, growing the content as needed.
func (h DataFileHandle) Write(ctx context.Context, p []byte, off int64) error {
	return h.file.content.WriteAt(ctx, p, off)
}

// ============================================================================
// Directory handles
// ============================================================================

// DirHandle is a locked view of a directory, adding entry operations.
type DirHandle struct {
	Handle

	dir *Directory
}

// Locked blocks until the directory's lock is free and returns a typed
// handle.
func (d *Directory) Locked() DirHandle {
	return DirHandle{Handle: Lock(d), dir: d}
}

// TryLocked attempts a non-blocking acquisition.
func (d *Directory) TryLocked() (DirHandle, bool) {
	h, ok := TryLock(d)
	if !ok {
		return DirHandle{}, false
	}
	return DirHandle{Handle: h, dir: d}, true
}

// Entry returns the child with the given name, or nil if absent.
func (h DirHandle) Entry(name string) Node {
	return h.dir.entries[name]
}

// SetEntry links child into the directory under name.
//
// The child must currently be unlinked; linking an already-parented child
// is a contract violation. The child's lock is taken second, after the
// parent handle already held, and both sides of the parent/child relation
// are updated before it is released, so no other thread can observe the
// entry map and the child's parent pointer disagreeing.
func (h DirHandle) SetEntry(name string, child Node) {
	cf := child.header()
	cf.mu.Lock()
	defer cf.mu.Unlock()

	if cf.parent != nil {
		panic("fs: SetEntry: child is already linked into a directory")
	}
	h.dir.entries[name] = child
	cf.parent = h.dir
}

// UnlinkEntry removes the named child, symmetrically with SetEntry: the
// child's parent pointer is cleared under the child's lock, then the
// entry is removed from the map.
func (h DirHandle) UnlinkEntry(name string) {
	child := h.dir.entries[name]
	if child == nil {
		panic("fs: UnlinkEntry: no entry named " + name)
	}

	cf := child.header()
	cf.mu.Lock()
	cf.parent = nil
	cf.mu.Unlock()

	delete(h.dir.entries, name)
}

// NameOf returns the name under which target is linked in this
// directory, or "" if it is not a child. Linear scan; used for
// diagnostics and for reconstructing working-directory paths.
func (h DirHandle) NameOf(target Node) string {
	for name, child := range h.dir.entries {
		if child == target {
			return name
		}
	}
	return ""
}

// CountEntries returns the number of children.
func (h DirHandle) CountEntries() int {
	return len(h.dir.entries)
}

// Entries returns a point-in-time snapshot of the directory's (name,
// child) pairs. The slice is sorted by name for stable output, but
// enumeration order is not a guaranteed contract.
func (h DirHandle) Entries() []DirEntry {
	entries := make([]DirEntry, 0, len(h.dir.entries))
	for name, child := range h.dir.entries {
		entries = append(entries, DirEntry{Name: name, Node: child})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
