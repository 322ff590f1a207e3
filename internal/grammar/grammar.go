// Package grammar implements the backtracking matcher engine used by the SIP grammars.
//
// Every element implements [Matcher]: it either consumes input and reports a value through
// the sink, or reports false and leaves the [Cursor] untouched.
// Composite elements save the cursor position before any sub-attempt that can fail
// after a partial success and restore it on failure.
package grammar

//go:generate go tool errtrace -w .

import (
	"fmt"
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/errorutil"
)

// Error is a grammar error.
type Error string

func (e Error) Error() string { return string(e) }

func (Error) Grammar() bool { return true }

const (
	ErrEmptyInput     Error = "empty input"
	ErrMalformedInput Error = "malformed input"
	ErrInvalidEscape  Error = "invalid escape sequence"
)

func newMalformedInputErr(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedInput, args...) //errtrace:skip
}

// DecodingError reports a malformed percent-encoded sequence.
type DecodingError struct {
	Input string
	Pos   int
	Err   error
}

func (e *DecodingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("decode %q at position %d: %v", e.Input, e.Pos, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

func (*DecodingError) Grammar() bool { return true }

// TrailingInputError reports input left after a successful top-level match.
type TrailingInputError struct {
	Input string
	Pos   int
}

func (e *TrailingInputError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("trailing input %q at position %d of %q", e.Input[e.Pos:], e.Pos, e.Input)
}

// Trailing returns the unconsumed part of the input.
func (e *TrailingInputError) Trailing() string { return e.Input[e.Pos:] }

func (*TrailingInputError) Grammar() bool { return true }

// Parse applies m to the whole input s.
//
// It returns [ErrEmptyInput] on empty input, the error recorded on the cursor if any,
// [ErrMalformedInput] if m does not match and [*TrailingInputError] if m matches a prefix only.
func Parse[T any, S constraints.Byteseq](s S, m Matcher[T], logger *slog.Logger) (T, error) {
	var zero T
	if len(s) == 0 {
		return zero, errtrace.Wrap(ErrEmptyInput)
	}

	cur := NewCursor(s, logger)
	v, ok := Read(cur, m)
	if err := cur.Err(); err != nil {
		return zero, errtrace.Wrap(err)
	}
	if !ok {
		return zero, errtrace.Wrap(newMalformedInputErr("no match for %q at position %d", string(s), cur.Pos()))
	}
	if !cur.EOF() {
		return zero, errtrace.Wrap(&TrailingInputError{Input: string(s), Pos: cur.Pos()})
	}
	return v, nil
}

// Matches reports whether m matches the whole input s.
func Matches[T any, S constraints.Byteseq](s S, m Matcher[T]) bool {
	if len(s) == 0 {
		return false
	}
	cur := NewCursor(s, nil)
	return Skip(cur, m) && cur.EOF() && cur.Err() == nil
}

// IsToken reports whether s is a token.
func IsToken[T constraints.Byteseq](s T) bool { return Matches(s, Chars(TokenChars)) }

// IsHost reports whether s is a valid host.
func IsHost[T constraints.Byteseq](s T) bool { return Matches(s, Host) }

// Quote returns s as a quoted-string, escaping backslashes and double quotes.
func Quote(s string) string {
	return `"` + quoteRpl.Replace(s) + `"`
}

var quoteRpl = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
