package fsapi

import (
	"errors"
	"os"

	"trussfs/internal/archive"
	"trussfs/internal/strlist"
	"trussfs/internal/watcher"
)

// Error kinds. Every error a Context records matches exactly one of them
// with errors.Is.
var (
	ErrInvalidHandle = errors.New("invalid handle")
	ErrNotFound      = errors.New("not found")
	ErrIO            = errors.New("io failure")
	ErrEncoding      = errors.New("encoding failure")
	ErrCapacity      = errors.New("capacity failure")
)

var errorKinds = []error{ErrInvalidHandle, ErrNotFound, ErrIO, ErrEncoding, ErrCapacity}

// classify tags a collaborator error with its kind. Errors that already
// carry a kind pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if kindOf(err) != nil {
		return err
	}
	var kind error
	switch {
	case errors.Is(err, os.ErrNotExist),
		errors.Is(err, archive.ErrEntryNotFound),
		errors.Is(err, watcher.ErrNotWatched):
		kind = ErrNotFound
	case errors.Is(err, strlist.ErrEmbeddedNUL):
		kind = ErrEncoding
	case errors.Is(err, archive.ErrEntryTooLarge),
		errors.Is(err, watcher.ErrMaxWatchesExceeded):
		kind = ErrCapacity
	default:
		kind = ErrIO
	}
	return wrapKind(kind, err)
}

func kindOf(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// kindName is the metrics label for err's kind.
func kindName(err error) string {
	switch kindOf(err) {
	case ErrInvalidHandle:
		return "invalid_handle"
	case ErrNotFound:
		return "not_found"
	case ErrIO:
		return "io"
	case ErrEncoding:
		return "encoding"
	case ErrCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

type kindError struct {
	kind  error
	cause error
}

func wrapKind(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}
