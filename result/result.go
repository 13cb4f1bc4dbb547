/*
Package result defines the failure kinds reported by Hei loaders and
converters.

Every error returned by the library carries one of the Kind values below so
callers can branch on the category of failure with errors.Is:

	if errors.Is(err, result.FileType) {
		// wrong magic, try something else
	}
*/
package result

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Success Kind = iota
	FileNotFound
	FileRead
	FileType
	Unsupported
	UnsupportedConversion
	Allocation
	Resolution
	EndOfQuota
)

var kindStrings = map[Kind]string{
	Success:               "success",
	FileNotFound:          "file not found",
	FileRead:              "failed to read file",
	FileType:              "unexpected file type",
	Unsupported:           "unsupported format",
	UnsupportedConversion: "unsupported format conversion",
	Allocation:            "failed to allocate memory",
	Resolution:            "invalid image resolution",
	EndOfQuota:            "reached end of quota",
}

func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown result (%d)", int(k))
}

// Error lets a Kind be used directly as a target for errors.Is.
func (k Kind) Error() string {
	return k.String()
}

// Error is a failure of a single operation on an optional path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Err != nil {
		return s + ": " + e.Err.Error()
	}
	return s + ": " + e.Kind.String()
}

// Unwrap returns both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an error of kind k for op on path wrapping err, which may be
// nil.
func New(k Kind, op, path string, err error) error {
	return &Error{Kind: k, Op: op, Path: path, Err: err}
}

// Errorf returns an error of kind k with a formatted cause.
func Errorf(k Kind, op, path, format string, a ...interface{}) error {
	return &Error{Kind: k, Op: op, Path: path, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind of the first *Error in err's chain, Success for a
// nil error and Unsupported for anything else.
func KindOf(err error) Kind {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unsupported
}
