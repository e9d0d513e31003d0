package fs

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind identifies a class of error for programmatic handling.
type Kind string

const (
	KindInvalidPath Kind = "invalid_path"
	KindNotFound    Kind = "not_found"
	KindTooLarge    Kind = "too_large"
	KindIO          Kind = "io_error"
)

// ErrConfinement is wrapped by every error caused by a path leaving the root.
var ErrConfinement = errors.New("path escapes root")

// Error wraps an underlying error with a kind and the caller's relative path.
// It never carries the resolved absolute path.
type Error struct {
	Kind  Kind
	Path  string
	Limit int64
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.SafeMessage()
	if e.Err != nil && e.Kind == KindIO {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SafeMessage is the text that may be shown to a remote caller.
func (e *Error) SafeMessage() string {
	switch e.Kind {
	case KindInvalidPath:
		return "invalid path"
	case KindNotFound:
		if e.Path == "" {
			return "not found"
		}
		return "not found: " + e.Path
	case KindTooLarge:
		return fmt.Sprintf("file too large: %s (limit %s)", e.Path, humanize.IBytes(uint64(e.Limit)))
	default:
		return "failed to access path"
	}
}

// KindOf reports the kind of err, treating anything unrecognised as an IO error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindIO
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

func confinementError(path string) *Error {
	return &Error{Kind: KindInvalidPath, Path: path, Err: ErrConfinement}
}

func notFoundError(path string, err error) *Error {
	return &Error{Kind: KindNotFound, Path: path, Err: err}
}

func ioError(path string, err error) *Error {
	return &Error{Kind: KindIO, Path: path, Err: err}
}
