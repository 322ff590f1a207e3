package grammar

import (
	"context"
	"errors"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Cursor is a read position over an immutable input buffer.
//
// A cursor belongs to a single parse invocation and must not be shared.
// Matchers move it forward on success and put it back where it was on failure.
type Cursor struct {
	buf    []byte
	pos    int
	err    error
	logger *slog.Logger
}

// NewCursor returns a cursor positioned at the start of input.
// A nil logger disables element tracing.
func NewCursor[T constraints.Byteseq](input T, logger *slog.Logger) *Cursor {
	return &Cursor{buf: []byte(input), logger: logger}
}

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// SetPos moves the cursor to pos, clamped to the input bounds.
func (c *Cursor) SetPos(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(c.buf):
		pos = len(c.buf)
	}
	c.pos = pos
}

// Len returns the total input length.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unconsumed bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// EOF reports whether the whole input is consumed.
func (c *Cursor) EOF() bool { return c.pos >= len(c.buf) }

// Peek returns the byte at the current position without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// Next consumes and returns the byte at the current position.
func (c *Cursor) Next() (byte, bool) {
	b, ok := c.Peek()
	if ok {
		c.pos++
	}
	return b, ok
}

// Text returns a copy of the input between from and to.
func (c *Cursor) Text(from, to int) string { return string(c.buf[from:to]) }

// Input returns a copy of the whole input.
func (c *Cursor) Input() string { return string(c.buf) }

// Rest returns a copy of the unconsumed input.
func (c *Cursor) Rest() string { return string(c.buf[c.pos:]) }

// Err returns the first error recorded with [Cursor.Fail].
func (c *Cursor) Err() error { return c.err }

// Fail records a genuine parse error. Only the first error is kept.
// Once an error is recorded every primitive element stops matching,
// so the parse unwinds and the caller receives the error instead of a non-match.
func (c *Cursor) Fail(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

// Decode percent-decodes the input between from and to.
// A malformed escape is recorded with [Cursor.Fail] as a [*DecodingError]
// that points into the whole input.
func (c *Cursor) Decode(from, to int) (string, bool) {
	s, err := Decode(c.buf[from:to])
	if err == nil {
		return s, true
	}
	var derr *DecodingError
	if errors.As(err, &derr) {
		err = &DecodingError{Input: string(c.buf), Pos: from + derr.Pos, Err: derr.Err}
	}
	c.Fail(errtrace.Wrap(err))
	return "", false
}

// Logger returns the tracing logger, it may be nil.
func (c *Cursor) Logger() *slog.Logger { return c.logger }

// LogValue implements [slog.LogValuer].
func (c *Cursor) LogValue() slog.Value {
	if c == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Int("pos", c.pos),
		slog.Int("len", len(c.buf)),
		slog.String("rest", util.Ellipsis(string(c.buf[c.pos:]), 32)),
	)
}

func (c *Cursor) trace(elem string, start int, matched bool) {
	if c.logger == nil || !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "grammar element",
		slog.String("element", elem),
		slog.Int("start", start),
		slog.Bool("matched", matched),
		slog.Any("cursor", c),
	)
}
