package slime

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadMagic           = errors.New("slime: bad magic")
	ErrUnsupportedVersion = errors.New("slime: unsupported version")
	ErrInvalidExtent      = errors.New("slime: invalid extent")
	ErrTruncatedInput     = errors.New("slime: truncated input")
	ErrCompressionFailure = errors.New("slime: compression failure")
	ErrDanglingReference  = errors.New("slime: dangling reference")
)

// FormatError describes a structural problem found while decoding a slime
// stream. Kind is one of the package sentinel errors and is matched by
// errors.Is; Err, when set, is the underlying cause.
type FormatError struct {
	Kind    error
	Section string
	Offset  int64

	// Expected and Actual are only meaningful when at least one is non-zero.
	Expected int64
	Actual   int64

	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Section != "" {
		fmt.Fprintf(&b, ": %s at offset %d", e.Section, e.Offset)
	}
	if e.Expected != 0 || e.Actual != 0 {
		fmt.Fprintf(&b, ": expected %d, got %d", e.Expected, e.Actual)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
