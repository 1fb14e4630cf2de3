package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrorKind enumerates the closed set of extraction failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCorruptedArchive
	KindUnsupportedFormat
	KindPasswordRequired
	KindInsufficientSpace
	KindPermissionDenied
	KindFileNotFound
	KindIO
	KindEngine
)

func (k ErrorKind) String() string {
	switch k {
	case KindCorruptedArchive:
		return "corrupted archive"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindPasswordRequired:
		return "password required"
	case KindInsufficientSpace:
		return "insufficient space"
	case KindPermissionDenied:
		return "permission denied"
	case KindFileNotFound:
		return "file not found"
	case KindIO:
		return "i/o error"
	case KindEngine:
		return "engine error"
	default:
		return "unknown error"
	}
}

// ExtractionError is the terminal error of an extraction run. Only the payload
// fields relevant to Kind are set.
type ExtractionError struct {
	Kind      ErrorKind
	Path      string // PermissionDenied, FileNotFound
	Format    string // UnsupportedFormat
	Required  int64  // InsufficientSpace
	Available int64  // InsufficientSpace
	ExitCode  int    // EngineError
	Message   string
	Err       error
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case KindCorruptedArchive:
		if e.Message != "" {
			return "archive is corrupted: " + e.Message
		}
		return "archive is corrupted"
	case KindUnsupportedFormat:
		return fmt.Sprintf("unsupported archive format: %q", e.Format)
	case KindPasswordRequired:
		return "archive is password protected"
	case KindInsufficientSpace:
		return fmt.Sprintf("insufficient disk space: %d bytes required, %d bytes available", e.Required, e.Available)
	case KindPermissionDenied:
		return "permission denied: " + e.Path
	case KindFileNotFound:
		return "file not found: " + e.Path
	case KindIO:
		return "i/o error: " + e.Message
	case KindEngine:
		if e.Message != "" {
			return fmt.Sprintf("archive engine failed (exit code %d): %s", e.ExitCode, e.Message)
		}
		return fmt.Sprintf("archive engine failed (exit code %d)", e.ExitCode)
	default:
		if e.Message != "" {
			return "unknown error: " + e.Message
		}
		return "unknown error"
	}
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches another *ExtractionError of the same kind, so errors.Is(err,
// &ExtractionError{Kind: KindPasswordRequired}) works.
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func CorruptedArchive(message string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindCorruptedArchive, Message: message, Err: err}
}

func UnsupportedFormat(format string) *ExtractionError {
	return &ExtractionError{Kind: KindUnsupportedFormat, Format: format}
}

func PasswordRequired() *ExtractionError {
	return &ExtractionError{Kind: KindPasswordRequired}
}

func InsufficientSpace(required, available int64) *ExtractionError {
	return &ExtractionError{Kind: KindInsufficientSpace, Required: required, Available: available}
}

func PermissionDenied(path string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindPermissionDenied, Path: path, Err: err}
}

func FileNotFound(path string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindFileNotFound, Path: path, Err: err}
}

func IOError(message string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindIO, Message: message, Err: err}
}

func EngineError(exitCode int, message string) *ExtractionError {
	return &ExtractionError{Kind: KindEngine, ExitCode: exitCode, Message: message}
}

func UnknownError(err error) *ExtractionError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ExtractionError{Kind: KindUnknown, Message: msg, Err: err}
}

// Classify maps err into the extraction taxonomy. Typed errors anywhere in the
// chain are returned as-is.
func Classify(err error) *ExtractionError {
	if err == nil {
		return nil
	}
	var xerr *ExtractionError
	if errors.As(err, &xerr) {
		return xerr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return UnknownError(err)
	}

	path := ""
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	switch {
	case errors.As(err, &pathErr):
		path = pathErr.Path
	case errors.As(err, &linkErr):
		path = linkErr.New
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return FileNotFound(path, err)
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied(path, err)
	case pathErr != nil || linkErr != nil:
		return IOError(err.Error(), err)
	}
	return UnknownError(err)
}

// KindOf returns the kind of err after classification, or KindUnknown for nil.
func KindOf(err error) ErrorKind {
	if xerr := Classify(err); xerr != nil {
		return xerr.Kind
	}
	return KindUnknown
}
