package posix

import (
	"context"
	"syscall"
	"time"

	"github.com/driftlab/driftfs/pkg/fs"
)

// renameResolved, when non-nil, runs after the destination parent has
// been resolved and before any parent lock is taken. Tests use it to
// drive concurrent topology changes into that window.
var renameResolved func()

// Rename moves the node at oldPath to newPath, atomically replacing an
// existing destination where the overwrite rules allow it.
//
// Locking strategy: the source parent is resolved first and its entry
// captured, then all locks are dropped while the destination parent is
// resolved, with the source node forbidden as an ancestor so a
// directory cannot be moved under itself. The source parent is then
// re-locked and its entry revalidated; the destination parent is
// try-locked second so two renames crossing in opposite directions
// cannot deadlock, failing with EBUSY instead. When source and
// destination share a parent the single held lock serves both sides.
// Because the forbidden-ancestor walk ran without locks, the
// destination's ancestry is walked again under the held locks before
// anything is relinked: a concurrent rename could have moved the
// destination parent into the source's subtree in the meantime.
//
// Errors: ENOENT if the source is absent (or disappeared during the
// resolution window), EBUSY for the root source or a lock conflict,
// ENOTEMPTY when the destination is the root or a non-empty directory,
// EINVAL when the destination would be inside the source, EACCES when
// either parent is not writable, EISDIR when overwriting a directory
// with a file, ENOTDIR when overwriting a file with a directory.
func (v *VFS) Rename(ctx context.Context, oldPath, newPath string) (err error) {
	start := time.Now()
	defer func() { v.record("rename", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	oldParts := fs.SplitPath(oldPath)
	oldParsed, perr := v.fsys.ParsePath(oldParts, nil)
	if perr != nil {
		return errnoOf(perr)
	}
	oldChild := oldParsed.Child
	oldParent, _ := oldParsed.Parent.Node().(*fs.Directory)
	oldParsed.Parent.Unlock()

	if oldChild == nil {
		return syscall.ENOENT
	}
	if oldChild == v.fsys.Root() {
		return syscall.EBUSY
	}
	oldBase := oldParts[len(oldParts)-1]

	newParts := fs.SplitPath(newPath)
	if len(newParts) == 0 {
		return syscall.EINVAL
	}
	// Renaming anything onto the root directory: the root always has the
	// source as an entry somewhere beneath it, so this reports the same
	// error as moving onto any other non-empty directory.
	if len(newParts) == 1 && newParts[0] == "/" {
		return syscall.ENOTEMPTY
	}
	newBase := newParts[len(newParts)-1]

	// Resolve the destination parent with no locks held. The source node
	// is forbidden as a path component so the destination cannot end up
	// inside the subtree being moved.
	newParent, rerr := v.fsys.ResolveDir(newParts[:len(newParts)-1], oldChild)
	if rerr != nil {
		return errnoOf(rerr)
	}
	// A relative destination can resolve to the working directory without
	// walking any component, so check the starting point too.
	if fs.Node(newParent) == oldChild {
		return syscall.EINVAL
	}

	if renameResolved != nil {
		renameResolved()
	}

	oldH := oldParent.Locked()
	defer oldH.Unlock()

	// Both parents were resolved without their locks held, so revalidate
	// the source entry before touching anything.
	if oldH.Entry(oldBase) != oldChild {
		return syscall.ENOENT
	}

	newH := oldH
	if newParent != oldParent {
		h, ok := newParent.TryLocked()
		if !ok {
			return syscall.EBUSY
		}
		defer h.Unlock()
		newH = h

		// The destination parent may have been unlinked during the
		// resolution window.
		if newParent != v.fsys.Root() && newH.Parent() == nil {
			return syscall.ENOENT
		}
	}

	// The forbidden-ancestor walk happened before any lock was taken, so
	// a rename that completed inside the resolution window can have
	// legally moved the destination parent underneath the source. Walk
	// the destination's ancestry again now that both parents are held;
	// linking without this check would close a parent/child cycle
	// detached from the root.
	if _, isDir := oldChild.(*fs.Directory); isDir && newParent != oldParent && newParent != v.fsys.Root() {
		curr := newH.Parent()
		for curr != nil && curr != v.fsys.Root() {
			if fs.Node(curr) == oldChild {
				return syscall.EINVAL
			}
			// The source parent's lock is already held by this call.
			if curr == oldParent {
				curr = oldH.Parent()
				continue
			}
			h, ok := fs.TryLock(curr)
			if !ok {
				return syscall.EBUSY
			}
			next := h.Parent()
			h.Unlock()
			curr = next
		}
		// The chain ended before reaching the root: an ancestor of the
		// destination parent was unlinked.
		if curr == nil {
			return syscall.ENOENT
		}
	}

	existing := newH.Entry(newBase)

	// Old and new paths name the same node: nothing to do.
	if existing == oldChild {
		return nil
	}

	if oldH.Mode()&permWrite == 0 {
		return syscall.EACCES
	}
	if newH.Mode()&permWrite == 0 {
		return syscall.EACCES
	}

	if existing != nil {
		switch oldChild.(type) {
		case *fs.DataFile:
			if existing.Kind() == fs.KindDirectory {
				return syscall.EISDIR
			}
		case *fs.Directory:
			dir, ok := existing.(*fs.Directory)
			if !ok {
				return syscall.ENOTDIR
			}
			// Covers moving a directory onto its own ancestor too; the
			// ancestor necessarily still contains the source.
			h := dir.Locked()
			n := h.CountEntries()
			h.Unlock()
			if n > 0 {
				return syscall.ENOTEMPTY
			}
		}
		newH.UnlinkEntry(newBase)
	}

	oldH.UnlinkEntry(oldBase)
	newH.SetEntry(newBase, oldChild)

	now := time.Now()
	oldH.SetMtime(now)
	oldH.SetCtime(now)
	if newParent != oldParent {
		newH.SetMtime(now)
		newH.SetCtime(now)
	}
	return nil
}
