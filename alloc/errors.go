package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRegion indicates a zero-sized, overflowing or overlapping region.
	ErrInvalidRegion = errors.New("alloc: invalid region")

	// ErrInvalidAlignment indicates an alignment that is zero or not a power of two.
	ErrInvalidAlignment = errors.New("alloc: invalid alignment")

	// ErrInvalidSize indicates a zero-byte allocation request.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrOutOfSpace indicates that no free range can hold the request.
	ErrOutOfSpace = errors.New("alloc: out of space")

	// ErrDuplicateID indicates an allocate call for an ID that is still live.
	ErrDuplicateID = errors.New("alloc: duplicate id")

	// ErrUnknownID indicates a free call for an ID that is not allocated.
	ErrUnknownID = errors.New("alloc: unknown id")
)

// ErrorKind is the stable name of an allocator failure.
type ErrorKind string

const (
	KindNone             ErrorKind = "ok"
	KindInvalidRegion    ErrorKind = "InvalidRegion"
	KindInvalidAlignment ErrorKind = "InvalidAlignment"
	KindInvalidSize      ErrorKind = "InvalidSize"
	KindOutOfSpace       ErrorKind = "OutOfSpace"
	KindDuplicateID      ErrorKind = "DuplicateId"
	KindUnknownID        ErrorKind = "UnknownIdError"
	KindOther            ErrorKind = "Other"
)

// KindOf maps err onto its ErrorKind. A nil error is KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRegion):
		return KindInvalidRegion
	case errors.Is(err, ErrInvalidAlignment):
		return KindInvalidAlignment
	case errors.Is(err, ErrInvalidSize):
		return KindInvalidSize
	case errors.Is(err, ErrOutOfSpace):
		return KindOutOfSpace
	case errors.Is(err, ErrDuplicateID):
		return KindDuplicateID
	case errors.Is(err, ErrUnknownID):
		return KindUnknownID
	default:
		return KindOther
	}
}

// AllocError describes a failed allocator call.
type AllocError struct {
	Op    string // "add", "alloc", "alloc-at" or "free"
	ID    ID
	Base  uint64
	Size  uint64
	Align uint64

	// Overconstrained is set on ErrOutOfSpace when the free bytes in total
	// would have covered the request but no single range could.
	Overconstrained bool

	Err error
}

func (e *AllocError) Error() string {
	switch e.Op {
	case "add":
		return fmt.Sprintf("%v: add region base=%#x size=%d", e.Err, e.Base, e.Size)
	case "free":
		return fmt.Sprintf("%v: free id=%d", e.Err, e.ID)
	case "alloc-at":
		return fmt.Sprintf("%v: alloc id=%d at base=%#x size=%d", e.Err, e.ID, e.Base, e.Size)
	}
	msg := fmt.Sprintf("%v: alloc id=%d size=%d align=%d", e.Err, e.ID, e.Size, e.Align)
	if e.Overconstrained {
		msg += " (has space but overconstrained)"
	}
	return msg
}

func (e *AllocError) Unwrap() error { return e.Err }

// InvariantError reports a broken internal invariant found by Verify.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.msg
}

func invariantf(format string, args ...any) error {
	return &InvariantError{msg: fmt.Sprintf(format, args...)}
}
