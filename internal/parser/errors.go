package parser

import (
	"errors"
	"fmt"
)

// ErrCommentsNotFound is wrapped by a FormatError when the report has no
// "Comments: (N)" section marker.
var ErrCommentsNotFound = errors.New("comments section not found")

// FileAccessError reports an input that is missing, unreadable, or not a
// valid document container.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// FormatError reports a readable input that lacks an expected structural marker.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized export: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
