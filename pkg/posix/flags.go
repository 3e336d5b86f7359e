package posix

// OpenFlag is the set of open(2)-style flags understood by Open.
// Values follow the common Linux encoding.
type OpenFlag int

const (
	// O_RDONLY opens for reading only
	O_RDONLY OpenFlag = 0x0

	// O_WRONLY opens for writing only
	O_WRONLY OpenFlag = 0x1

	// O_RDWR opens for reading and writing
	O_RDWR OpenFlag = 0x2

	// O_ACCMODE masks the access mode bits
	O_ACCMODE OpenFlag = 0x3

	// O_CREAT creates the file if it does not exist
	O_CREAT OpenFlag = 0x40

	// O_EXCL combined with O_CREAT fails if the file exists
	O_EXCL OpenFlag = 0x80

	// O_TRUNC is accepted and currently ignored
	// TODO: truncate on open once content stores expose truncation
	O_TRUNC OpenFlag = 0x200

	// O_APPEND is accepted and currently ignored
	O_APPEND OpenFlag = 0x400

	// O_DIRECTORY fails if the target is not a directory
	O_DIRECTORY OpenFlag = 0x10000
)

// supportedFlags is everything Open knows how to handle. Anything else
// is a contract violation from the caller.
const supportedFlags = O_RDONLY | O_WRONLY | O_RDWR | O_CREAT | O_EXCL |
	O_TRUNC | O_APPEND | O_DIRECTORY

// File type bits for Stat.Mode, POSIX encoding.
const (
	S_IFMT  uint32 = 0o170000
	S_IFREG uint32 = 0o100000
	S_IFDIR uint32 = 0o040000

	// S_IFLNK is reserved; no operation produces it yet
	S_IFLNK uint32 = 0o120000
)

// Permission masks applied to caller-supplied modes.
const (
	// modeMaskFile keeps rwx for user/group/other plus setuid, setgid
	// and sticky bits on file creation
	modeMaskFile uint32 = 0o7777

	// modeMaskDir keeps rwx for user/group/other plus the sticky bit
	// on directory creation, so a caller cannot smuggle type bits in
	modeMaskDir uint32 = 0o1777

	// permWrite is any write permission bit; used for parent-directory
	// checks on unlink and rename
	permWrite uint32 = 0o222
)
