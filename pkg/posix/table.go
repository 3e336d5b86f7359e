package posix

import (
	"sync"

	"github.com/driftlab/driftfs/pkg/fs"
)

// openFile is the shared state behind one or more file descriptors.
// dup'd descriptors point at the same openFile, so the position moves
// for all of them together, as POSIX requires.
type openFile struct {
	mu    sync.Mutex
	node  fs.Node
	flags OpenFlag
	pos   int64
}

// position returns the current offset under the openFile's own lock.
func (of *openFile) position() int64 {
	of.mu.Lock()
	defer of.mu.Unlock()
	return of.pos
}

// setPosition stores a new offset under the openFile's own lock.
func (of *openFile) setPosition(pos int64) {
	of.mu.Lock()
	defer of.mu.Unlock()
	of.pos = pos
}

// writable reports whether the descriptor was opened with an access
// mode that permits writing.
func (of *openFile) writable() bool {
	return of.flags&O_ACCMODE != O_RDONLY
}

// readable reports whether the descriptor was opened with an access
// mode that permits reading.
func (of *openFile) readable() bool {
	return of.flags&O_ACCMODE != O_WRONLY
}

// fileTable maps file descriptors to open files. Slots are reused
// lowest-first, matching the descriptor allocation order callers of
// open(2) observe everywhere else.
type fileTable struct {
	mu      sync.Mutex
	entries []*openFile
}

// add places of in the lowest free slot and returns its descriptor.
func (t *fileTable) add(of *openFile) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for fd, entry := range t.entries {
		if entry == nil {
			t.entries[fd] = of
			return fd
		}
	}
	t.entries = append(t.entries, of)
	return len(t.entries) - 1
}

// addAt places of at exactly fd, growing the table as needed and
// replacing whatever the slot held. Used by dup3-style operations.
func (t *fileTable) addAt(fd int, of *openFile) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.entries) <= fd {
		t.entries = append(t.entries, nil)
	}
	t.entries[fd] = of
}

// get returns the open file behind fd, or nil if the descriptor is not
// open.
func (t *fileTable) get(fd int) *openFile {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= len(t.entries) {
		return nil
	}
	return t.entries[fd]
}

// remove frees fd and returns the open file it held, or nil if the
// descriptor was not open.
func (t *fileTable) remove(fd int) *openFile {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= len(t.entries) {
		return nil
	}
	of := t.entries[fd]
	t.entries[fd] = nil
	return of
}
