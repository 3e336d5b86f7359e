package fs

// Error represents a domain error from filesystem operations.
//
// These are expected, caller-facing conditions (path absent, wrong node
// type, name collision) as opposed to internal invariant breaches, which
// panic. Callers such as the POSIX call surface translate the Code into
// their own error vocabulary (errno values, protocol status codes).
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the pathname or path component related to the error,
	// if applicable. This helps with debugging and error reporting.
	Path string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a filesystem domain error.
//
// These are generic categories that map to POSIX errno values at the
// call-surface boundary.
type ErrorCode int

const (
	// ErrNotFound indicates an intermediate or final path component
	// does not exist
	ErrNotFound ErrorCode = iota

	// ErrNotDirectory indicates a non-terminal path component, or an
	// operand that must be a directory, resolved to a non-directory node
	ErrNotDirectory

	// ErrIsDirectory indicates a data-file operation was attempted on
	// a directory node
	ErrIsDirectory

	// ErrAlreadyExists indicates a name collision in a directory
	ErrAlreadyExists

	// ErrInvalidArgument indicates invalid caller input: an empty
	// pathname, a walk that reached a forbidden ancestor, a bad seek
	ErrInvalidArgument

	// ErrBadDescriptor indicates an unknown or closed file descriptor
	ErrBadDescriptor

	// ErrNotEmpty indicates a directory that must be empty is not
	ErrNotEmpty

	// ErrBusy indicates the node is in use and the operation cannot
	// proceed (removing the root, losing a rename lock race)
	ErrBusy

	// ErrAccessDenied indicates a permission-bit check failed
	ErrAccessDenied

	// ErrIOError indicates a backend failed to read or write content
	ErrIOError
)
