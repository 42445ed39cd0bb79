package persistent

import "errors"

var (
	// ErrIncompleteRecord means fewer bytes are present than the framed
	// record declares; recovery stops reading here rather than erroring.
	ErrIncompleteRecord = errors.New("persistent: incomplete record")
	// ErrCorruptRecord means the record's CRC did not match its payload;
	// recovery truncates the segment at this point (spec.md §5 recovery).
	ErrCorruptRecord = errors.New("persistent: corrupt record")
	// ErrNotFound is returned by store lookups that find nothing.
	ErrNotFound = errors.New("persistent: not found")
	// ErrClosed is returned by operations against a closed WAL or store.
	ErrClosed = errors.New("persistent: closed")
	// ErrLocked means another process already holds the data directory lock.
	ErrLocked = errors.New("persistent: data directory already locked by another process")
)
