// Package fs implements the in-process virtual filesystem engine: the
// file/directory node graph, the per-node locking handles used to read and
// mutate it, and the path resolver that maps POSIX-style pathnames onto it.
//
// The general locking strategy is to hold at most one node lock at a time.
// The single audited exception is linking and unlinking a child, where the
// parent directory's lock is already held and the child's lock is taken
// second, always in that order.
package fs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Kind tags which variant a node is. It never changes after construction.
type Kind int

const (
	// KindDataFile is a regular file whose bytes live in a backend
	KindDataFile Kind = iota

	// KindDirectory is a directory owning a name-to-child mapping
	KindDirectory

	// KindSymlink is reserved. No operation creates or traverses
	// symlinks yet; the kind exists so stat-style type bits can be
	// allocated for it.
	KindSymlink
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindDataFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// DirectorySize is the fixed metadata size reported for directories,
// matching the ext4 block size. Directory size does not track content.
const DirectorySize = 4096

// Backend creates files and directories whose content it owns.
//
// A backend is attached to every node it creates and is immutable after
// construction. Backends that complete I/O asynchronously present this
// synchronous contract by funneling operations through a bridge.Bridge.
type Backend interface {
	// CreateFile creates an empty data file whose bytes will live in
	// this backend.
	CreateFile(ctx context.Context, mode uint32) (*DataFile, error)

	// CreateDirectory creates an empty directory associated with this
	// backend. Directory entries live in the node itself, not in the
	// backend.
	CreateDirectory(ctx context.Context, mode uint32) (*Directory, error)
}

// Content is the byte store behind a DataFile. All of a file's bytes live
// here; the node holds only metadata.
//
// Implementations are always invoked with the owning node's lock held, so
// they do not need their own per-file synchronization. Implementations
// backed by shared stores (a database, an object bucket) still guard their
// shared state.
type Content interface {
	// ReadAt reads len(p) bytes starting at off. Callers clamp p to the
	// current size first; ReadAt does not report EOF.
	ReadAt(ctx context.Context, p []byte, off int64) error

	// WriteAt writes len(p) bytes starting at off, growing the content
	// with a zero gap if off is past the current end.
	WriteAt(ctx context.Context, p []byte, off int64) error

	// Size returns the current content length in bytes.
	Size(ctx context.Context) (int64, error)
}

// Node is a file-tree node: a *DataFile, *Directory, or (reserved)
// symlink. All metadata access goes through a locked Handle.
type Node interface {
	// Kind returns the immutable variant tag.
	Kind() Kind

	// Backend returns the backend this node was created by. May be nil
	// for nodes with no content delegate.
	Backend() Backend

	// Ino returns the node's process-unique inode number.
	Ino() uint64

	// header gives handle code access to the shared node state. Keeping
	// it unexported closes the Node set to this package's variants.
	header() *File
}

// ino numbers are allocated from a process-wide counter, never reused, and
// never zero.
var inoCounter atomic.Uint64

// File is the shared state embedded in every node variant.
//
// Every field below the mutex is protected by it, including the
// variant-specific state of the embedding type. Mutation is only legal
// through a locked Handle.
type File struct {
	mu sync.Mutex

	kind    Kind
	backend Backend
	ino     uint64

	mode  uint32
	ctime time.Time
	mtime time.Time
	atime time.Time

	// parent is the directory currently containing this node, nil when
	// unlinked or for the root. It is maintained symmetrically with the
	// parent's entry map: set only by DirHandle.SetEntry, cleared only
	// by DirHandle.UnlinkEntry, both under this node's lock.
	parent *Directory
}

func newFile(kind Kind, mode uint32, backend Backend) File {
	now := time.Now()
	return File{
		kind:    kind,
		backend: backend,
		ino:     inoCounter.Add(1),
		mode:    mode,
		ctime:   now,
		mtime:   now,
		atime:   now,
	}
}

// Kind returns the immutable variant tag.
func (f *File) Kind() Kind { return f.kind }

// Backend returns the backend this node was created by.
func (f *File) Backend() Backend { return f.backend }

// Ino returns the node's process-unique inode number.
func (f *File) Ino() uint64 { return f.ino }

func (f *File) header() *File { return f }

// DataFile is a regular file. It stores no bytes itself; reads and writes
// are delegated to the backend-provided Content.
type DataFile struct {
	File

	content Content
}

// NewDataFile constructs a data file node over the given content
// delegate. Backends call this from CreateFile.
func NewDataFile(mode uint32, backend Backend, content Content) *DataFile {
	if content == nil {
		panic("fs: NewDataFile requires a content delegate")
	}
	return &DataFile{
		File:    newFile(KindDataFile, mode, backend),
		content: content,
	}
}

// Directory is a directory node owning its children.
type Directory struct {
	File

	// entries maps a path component name to the child node. Names are
	// unique within the directory; enumeration order is not part of
	// the contract.
	entries map[string]Node
}

// NewDirectory constructs an empty directory node. Backends call this
// from CreateDirectory.
func NewDirectory(mode uint32, backend Backend) *Directory {
	return &Directory{
		File:    newFile(KindDirectory, mode, backend),
		entries: make(map[string]Node),
	}
}

// DirEntry is the (name, child) pair exposed when enumerating a
// directory's contents.
type DirEntry struct {
	Name string
	Node Node
}
