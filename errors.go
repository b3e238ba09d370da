package mibflat

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Service operations. Wrap-aware callers use
// errors.Is.
var (
	// ErrFileNotFound means the requested file does not exist or cannot be
	// read.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotMIB means the file exists but does not look like MIB source.
	ErrNotMIB = errors.New("not a MIB file")

	// ErrCompileFailed means the external compiler could not produce a valid
	// artifact for the file's module.
	ErrCompileFailed = errors.New("compilation failed")

	// ErrExtraction means the compiled artifact could not be loaded or
	// yielded no usable symbols.
	ErrExtraction = errors.New("symbol extraction failed")

	// ErrClosed means the Service has been closed.
	ErrClosed = errors.New("service closed")
)

// ErrorType classifies a FileError for batch reporting.
type ErrorType string

const (
	ErrorTypeFileNotFound  ErrorType = "file_not_found"
	ErrorTypeNotMIB        ErrorType = "not_mib"
	ErrorTypeCompileFailed ErrorType = "compile_failed"
	ErrorTypeExtraction    ErrorType = "extraction"
	ErrorTypeOther         ErrorType = "other"
)

// classifyError maps a wrapped sentinel to its taxonomy entry.
func classifyError(err error) ErrorType {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return ErrorTypeFileNotFound
	case errors.Is(err, ErrNotMIB):
		return ErrorTypeNotMIB
	case errors.Is(err, ErrCompileFailed):
		return ErrorTypeCompileFailed
	case errors.Is(err, ErrExtraction):
		return ErrorTypeExtraction
	default:
		return ErrorTypeOther
	}
}

// FileError records one file's failure inside a batch. The batch itself
// continues past it.
type FileError struct {
	Path string
	Type ErrorType
	Err  error
}

func newFileError(path string, err error) *FileError {
	return &FileError{Path: path, Type: classifyError(err), Err: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
