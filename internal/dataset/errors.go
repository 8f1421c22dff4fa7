package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyFile      = errors.New("empty file")
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalidValue   = errors.New("invalid value")
)

// DataLoadError reports a failed load. The whole load is abandoned; no
// partial Table is returned alongside it.
type DataLoadError struct {
	Path   string // Source path or stream name
	Line   int    // 1-based line in the source; 0 if not row-specific
	Column string // Header name; "" if not cell-specific
	Err    error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// cellError carries the failing column up to Read, which adds the line.
type cellError struct {
	column string
	err    error
}

func (e *cellError) Error() string { return e.column + ": " + e.err.Error() }

func (e *cellError) Unwrap() error { return e.err }
