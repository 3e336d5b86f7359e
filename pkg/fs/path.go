package fs

import "strings"

// SplitPath returns the '/'-delimited components of a pathname. The first
// element is "/" iff the path is absolute. Duplicate separators and a
// trailing separator are collapsed; an empty pathname yields no
// components, which the resolver rejects as invalid.
func SplitPath(pathname string) []string {
	var parts []string
	if strings.HasPrefix(pathname, "/") {
		parts = append(parts, "/")
	}
	for _, part := range strings.Split(pathname, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// ParsedPath is the result of resolving a pathname to its parent
// directory and final component.
type ParsedPath struct {
	// Parent is a locked handle on the resolved parent directory. The
	// caller must Unlock it.
	Parent DirHandle

	// Child is the node named by the final component, or nil when the
	// parent resolved but the final component is absent. A missing
	// child is not an error; callers decide whether it is fatal.
	Child Node
}

// ParsePath resolves the given path components to a locked parent
// directory handle and the final child node, if present.
//
// Traversal starts at the root for absolute paths and at the current
// working directory otherwise. Each non-terminal component must resolve
// to a directory. At most one directory lock is held at a time during
// descent: the current directory is locked for the lookup and released
// before moving to the next component.
//
// If forbidden is non-nil and any intermediate component resolves to it,
// the walk aborts with ErrInvalidArgument. Rename uses this to refuse
// making a directory a descendant of itself.
//
// Errors: ErrInvalidArgument for an empty path or a forbidden ancestor,
// ErrNotFound when an intermediate component is absent, ErrNotDirectory
// when a non-terminal component is not a directory.
func (fsys *FS) ParsePath(parts []string, forbidden Node) (ParsedPath, error) {
	if len(parts) == 0 {
		return ParsedPath{}, &Error{Code: ErrInvalidArgument, Message: "empty pathname"}
	}

	var curr *Directory
	if parts[0] == "/" {
		curr = fsys.Root()
		parts = parts[1:]
		// The pathname is the root directory itself: the root is both
		// parent and child.
		if len(parts) == 0 {
			return ParsedPath{Parent: curr.Locked(), Child: curr}, nil
		}
	} else {
		curr = fsys.CWD()
	}

	for _, part := range parts[:len(parts)-1] {
		h := curr.Locked()
		entry := h.Entry(part)
		h.Unlock()

		if forbidden != nil && entry == forbidden {
			return ParsedPath{}, &Error{Code: ErrInvalidArgument, Message: "path passes through forbidden ancestor", Path: part}
		}
		if entry == nil {
			return ParsedPath{}, &Error{Code: ErrNotFound, Message: "no such entry", Path: part}
		}

		dir, ok := entry.(*Directory)
		if !ok {
			// TODO: revisit when symlink traversal is implemented.
			return ParsedPath{}, &Error{Code: ErrNotDirectory, Message: "intermediate component is not a directory", Path: part}
		}
		curr = dir
	}

	parent := curr.Locked()
	child := parent.Entry(parts[len(parts)-1])
	return ParsedPath{Parent: parent, Child: child}, nil
}

// ResolveDir resolves the given path components to a directory, for pure
// directory lookups such as finding a rename destination's parent. Unlike
// ParsePath it requires every component, including the last, to resolve
// to an existing directory, and it returns the directory unlocked.
//
// The forbidden parameter behaves as in ParsePath, except it is checked
// against every resolved component.
func (fsys *FS) ResolveDir(parts []string, forbidden Node) (*Directory, error) {
	var curr Node
	if len(parts) > 0 && parts[0] == "/" {
		curr = fsys.Root()
		parts = parts[1:]
	} else {
		curr = fsys.CWD()
	}

	for _, part := range parts {
		dir, ok := curr.(*Directory)
		if !ok {
			return nil, &Error{Code: ErrNotDirectory, Message: "component is not a directory", Path: part}
		}

		h := dir.Locked()
		next := h.Entry(part)
		h.Unlock()

		if forbidden != nil && next == forbidden {
			return nil, &Error{Code: ErrInvalidArgument, Message: "path passes through forbidden ancestor", Path: part}
		}
		if next == nil {
			return nil, &Error{Code: ErrNotFound, Message: "no such entry", Path: part}
		}
		curr = next
	}

	dir, ok := curr.(*Directory)
	if !ok {
		return nil, &Error{Code: ErrNotDirectory, Message: "target is not a directory"}
	}
	return dir, nil
}
