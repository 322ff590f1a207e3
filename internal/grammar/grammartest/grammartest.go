// Package grammartest provides utilities for testing grammar elements.
package grammartest

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/ghettovoice/sipgrammar/internal/grammar"
)

// RepairMsg is the message logged when a labelled element fails without restoring the cursor.
const RepairMsg = "grammar element left cursor moved after failure"

// RecordHandler is a [slog.Handler] that keeps every record at or above Level.
type RecordHandler struct {
	Level slog.Level

	mu      sync.Mutex
	records []slog.Record
}

func (h *RecordHandler) Enabled(_ context.Context, lvl slog.Level) bool { return lvl >= h.Level }

func (h *RecordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *RecordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *RecordHandler) WithGroup(string) slog.Handler { return h }

// Count returns the number of records with the given level and message.
func (h *RecordHandler) Count(lvl slog.Level, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	for _, r := range h.records {
		if r.Level == lvl && r.Message == msg {
			n++
		}
	}
	return n
}

// CheckAtomic applies m at every position of s, once as lookahead and once with a sink.
// It fails tb when a failed match leaves the cursor moved, when a nested labelled element
// had to repair the cursor, or when lookahead and reading disagree.
func CheckAtomic[T any](tb testing.TB, name string, m grammar.Matcher[T], s string) {
	tb.Helper()

	h := &RecordHandler{Level: slog.LevelError}
	logger := slog.New(h)
	for pos := 0; pos <= len(s); pos++ {
		look := grammar.NewCursor(s, logger)
		look.SetPos(pos)
		lookOK := grammar.Skip(look, m)
		if !lookOK && look.Pos() != pos {
			tb.Fatalf("%s failed on %q at %d and left cursor at %d", name, s, pos, look.Pos())
		}

		read := grammar.NewCursor(s, logger)
		read.SetPos(pos)
		_, readOK := grammar.Read(read, m)
		if !readOK && read.Pos() != pos {
			tb.Fatalf("%s failed on %q at %d and left cursor at %d", name, s, pos, read.Pos())
		}
		if lookOK != readOK || look.Pos() != read.Pos() {
			tb.Fatalf("%s on %q at %d: lookahead = (%v, %d), read = (%v, %d)",
				name, s, pos, lookOK, look.Pos(), readOK, read.Pos())
		}

		if n := h.Count(slog.LevelError, RepairMsg); n > 0 {
			tb.Fatalf("%s on %q at %d: %d nested element(s) left the cursor moved after failure", name, s, pos, n)
		}
	}
}

// RandomInput returns one of prefixes followed by up to maxLen bytes drawn from alphabet.
func RandomInput(rnd *rand.Rand, prefixes []string, alphabet string, maxLen int) string {
	var p string
	if len(prefixes) > 0 {
		p = prefixes[rnd.IntN(len(prefixes))]
	}
	buf := make([]byte, rnd.IntN(maxLen+1))
	for i := range buf {
		buf[i] = alphabet[rnd.IntN(len(alphabet))]
	}
	return p + string(buf)
}
