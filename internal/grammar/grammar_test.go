package grammar_test

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/ghettovoice/sipgrammar/internal/errorutil"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/grammar/grammartest"
)

func TestCursor(t *testing.T) {
	t.Parallel()

	cur := grammar.NewCursor([]byte("ab"), nil)
	if cur.Len() != 2 || cur.Remaining() != 2 || cur.EOF() {
		t.Fatalf("new cursor = (len %d, remaining %d, eof %v), want (2, 2, false)", cur.Len(), cur.Remaining(), cur.EOF())
	}
	if b, ok := cur.Peek(); !ok || b != 'a' || cur.Pos() != 0 {
		t.Errorf("cur.Peek() = (%q, %v) at %d, want ('a', true) at 0", b, ok, cur.Pos())
	}
	if b, ok := cur.Next(); !ok || b != 'a' || cur.Pos() != 1 {
		t.Errorf("cur.Next() = (%q, %v) at %d, want ('a', true) at 1", b, ok, cur.Pos())
	}
	if got := cur.Rest(); got != "b" {
		t.Errorf("cur.Rest() = %q, want %q", got, "b")
	}
	cur.Next()
	if _, ok := cur.Next(); ok || !cur.EOF() {
		t.Errorf("cur.Next() at end ok = %v, eof = %v, want false, true", ok, cur.EOF())
	}

	cur.SetPos(-5)
	if cur.Pos() != 0 {
		t.Errorf("cur.SetPos(-5) pos = %d, want 0", cur.Pos())
	}
	cur.SetPos(10)
	if cur.Pos() != 2 {
		t.Errorf("cur.SetPos(10) pos = %d, want 2", cur.Pos())
	}
	if got := cur.Input(); got != "ab" {
		t.Errorf("cur.Input() = %q, want %q", got, "ab")
	}

	first, second := errors.New("first"), errors.New("second")
	cur.Fail(nil)
	if cur.Err() != nil {
		t.Errorf("cur.Fail(nil) recorded %v", cur.Err())
	}
	cur.Fail(first)
	cur.Fail(second)
	if !errors.Is(cur.Err(), first) {
		t.Errorf("cur.Err() = %v, want %v", cur.Err(), first)
	}
}

func TestCursor_Decode(t *testing.T) {
	t.Parallel()

	cur := grammar.NewCursor("a%41;b%4g", nil)
	if got, ok := cur.Decode(0, 5); !ok || got != "aA;" {
		t.Errorf("cur.Decode(0, 5) = (%q, %v), want (%q, true)", got, ok, "aA;")
	}
	if cur.Err() != nil {
		t.Fatalf("cur.Err() = %v, want nil", cur.Err())
	}

	if _, ok := cur.Decode(5, 9); ok {
		t.Fatal("cur.Decode(5, 9) ok = true, want false")
	}
	var derr *grammar.DecodingError
	if !errors.As(cur.Err(), &derr) {
		t.Fatalf("cur.Err() = %v, want *grammar.DecodingError", cur.Err())
	}
	if derr.Input != "a%41;b%4g" || derr.Pos != 6 || !errors.Is(derr, grammar.ErrInvalidEscape) {
		t.Errorf("err = {%q, %d, %v}, want {%q, 6, %v}", derr.Input, derr.Pos, derr.Err, "a%41;b%4g", grammar.ErrInvalidEscape)
	}
}

func TestPrimitives(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		m       grammar.Matcher[string]
		input   string
		want    string
		wantOK  bool
		wantPos int
	}{
		{"chars", grammar.Chars(grammar.TokenChars), "abc;d", "abc", true, 3},
		{"chars empty run", grammar.Chars(grammar.TokenChars), ";abc", "", false, 0},
		{"chars0 empty run", grammar.Chars0(grammar.TokenChars), ";abc", "", true, 0},
		{"chars0 at eof", grammar.Chars0(grammar.DigitChars), "", "", true, 0},
		{"literal", grammar.Literal("sip"), "SIP:alice", "SIP", true, 3},
		{"literal mismatch", grammar.Literal("sips"), "sip:", "", false, 0},
		{"literal too short", grammar.Literal("sip"), "si", "", false, 0},
		{"quoted", grammar.QuotedString, `"Alice \"A\" \\ L" <`, `Alice "A" \ L`, true, 18},
		{"quoted empty", grammar.QuotedString, `""`, "", true, 2},
		{"quoted utf8", grammar.QuotedString, "\"\xd0\x91\"", "\xd0\x91", true, 4},
		{"quoted unterminated", grammar.QuotedString, `"abc`, "", false, 0},
		{"quoted with newline", grammar.QuotedString, "\"a\nb\"", "", false, 0},
		{"quoted bad escape", grammar.QuotedString, "\"a\\\n\"", "", false, 0},
		{"quoted no quote", grammar.QuotedString, "abc", "", false, 0},
		{"sws", grammar.SWS, " \t x", " \t ", true, 3},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			cur := grammar.NewCursor(c.input, nil)
			got, ok := grammar.Read(cur, c.m)
			if ok != c.wantOK || got != c.want {
				t.Errorf("Read(%q) = (%q, %v), want (%q, %v)", c.input, got, ok, c.want, c.wantOK)
			}
			if cur.Pos() != c.wantPos {
				t.Errorf("cur.Pos() = %d, want %d", cur.Pos(), c.wantPos)
			}
		})
	}
}

func TestChar(t *testing.T) {
	t.Parallel()

	cur := grammar.NewCursor(";=", nil)
	if grammar.Skip(cur, grammar.Equal) {
		t.Error("Skip(;=, Equal) = true, want false")
	}
	if c, ok := grammar.Read(cur, grammar.Semi); !ok || c != ';' {
		t.Errorf("Read(;=, Semi) = (%q, %v), want (';', true)", c, ok)
	}
	if !grammar.Skip(cur, grammar.Equal) || !cur.EOF() {
		t.Error("Skip(=, Equal) did not consume the input")
	}
	if grammar.Skip(cur, grammar.Equal) {
		t.Error("Skip at eof = true, want false")
	}
}

func TestFail_StopsPrimitives(t *testing.T) {
	t.Parallel()

	cur := grammar.NewCursor(`abc"x"`, nil)
	cur.Fail(errors.New("boom"))

	if grammar.Skip(cur, grammar.Chars0(grammar.TokenChars)) {
		t.Error("Chars0 matched after failure")
	}
	if grammar.Skip(cur, grammar.Literal("abc")) {
		t.Error("Literal matched after failure")
	}
	if grammar.Skip(cur, grammar.Char('a')) {
		t.Error("Char matched after failure")
	}
	cur.SetPos(3)
	if grammar.Skip(cur, grammar.QuotedString) {
		t.Error("QuotedString matched after failure")
	}
}

func TestFirst(t *testing.T) {
	t.Parallel()

	m := grammar.First(
		grammar.Literal("sips"),
		grammar.Literal("sip"),
		grammar.Chars(grammar.AlphaChars),
	)

	cases := []struct {
		input   string
		want    string
		wantOK  bool
		wantPos int
	}{
		{"sips:", "sips", true, 4},
		{"sip:", "sip", true, 3},
		{"tel:", "tel", true, 3},
		{"123", "", false, 0},
	}
	for _, c := range cases {
		cur := grammar.NewCursor(c.input, nil)
		got, ok := grammar.Read(cur, m)
		if ok != c.wantOK || got != c.want || cur.Pos() != c.wantPos {
			t.Errorf("Read(%q, First) = (%q, %v) at %d, want (%q, %v) at %d", c.input, got, ok, cur.Pos(), c.want, c.wantOK, c.wantPos)
		}
	}

	boom := errors.New("boom")
	var tried bool
	failing := grammar.MatcherFunc[string](func(cur *grammar.Cursor, _ grammar.Sink[string]) bool {
		cur.Fail(boom)
		return false
	})
	spy := grammar.MatcherFunc[string](func(*grammar.Cursor, grammar.Sink[string]) bool {
		tried = true
		return true
	})
	cur := grammar.NewCursor("x", nil)
	if grammar.Skip(cur, grammar.First[string](failing, spy)) {
		t.Error("First matched after an alternative failed with an error")
	}
	if tried {
		t.Error("First tried the next alternative after an error")
	}
	if !errors.Is(cur.Err(), boom) {
		t.Errorf("cur.Err() = %v, want %v", cur.Err(), boom)
	}
}

func TestMap(t *testing.T) {
	t.Parallel()

	m := grammar.Map(grammar.Chars(grammar.DigitChars), func(s string) int { return len(s) })
	cur := grammar.NewCursor("1234x", nil)
	if n, ok := grammar.Read(cur, m); !ok || n != 4 {
		t.Errorf("Read(Map) = (%d, %v), want (4, true)", n, ok)
	}

	var called bool
	lookahead := grammar.Map(grammar.Chars(grammar.AlphaChars), func(s string) string {
		called = true
		return s
	})
	if !grammar.Skip(cur, lookahead) || called {
		t.Errorf("Skip(Map) called the mapping function = %v, want false", called)
	}
}

// sloppy consumes a prefix and fails without restoring the cursor.
var sloppy = grammar.MatcherFunc[string](func(cur *grammar.Cursor, _ grammar.Sink[string]) bool {
	grammar.Skip(cur, grammar.Chars(grammar.AlphaChars))
	return false
})

func TestAtomic(t *testing.T) {
	t.Parallel()

	cur := grammar.NewCursor("abc1", nil)
	if grammar.Skip(cur, grammar.Atomic[string](sloppy)) {
		t.Fatal("Skip(Atomic(sloppy)) = true, want false")
	}
	if cur.Pos() != 0 {
		t.Errorf("cur.Pos() = %d, want 0", cur.Pos())
	}

	alpha := grammar.Atomic(grammar.Chars(grammar.AlphaChars))
	if v, matched := grammar.Read(cur, alpha); !matched || v != "abc" || cur.Pos() != 3 {
		t.Errorf("Read(Atomic(alpha)) = (%q, %v) at %d, want (abc, true) at 3", v, matched, cur.Pos())
	}
}

func TestNamed(t *testing.T) {
	t.Parallel()

	h := &grammartest.RecordHandler{Level: slog.LevelDebug}
	cur := grammar.NewCursor("abc1", slog.New(h))

	if grammar.Skip(cur, grammar.Named[string]("sloppy", sloppy)) {
		t.Fatal("Skip(Named(sloppy)) = true, want false")
	}
	if cur.Pos() != 0 {
		t.Errorf("cur.Pos() = %d, want 0", cur.Pos())
	}
	if n := h.Count(slog.LevelError, grammartest.RepairMsg); n != 1 {
		t.Errorf("got %d repair records, want 1", n)
	}

	alpha := grammar.Named("alpha", grammar.Chars(grammar.AlphaChars))
	if !grammar.Skip(cur, alpha) {
		t.Fatal("Skip(Named(alpha)) = false, want true")
	}
	if n := h.Count(slog.LevelDebug, "grammar element"); n != 2 {
		t.Errorf("got %d trace records, want 2", n)
	}
	if s, ok := alpha.(interface{ String() string }); !ok || s.String() != "alpha" {
		t.Errorf("Named element does not report its name")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := grammar.MatcherFunc[string](func(cur *grammar.Cursor, _ grammar.Sink[string]) bool {
		grammar.Skip(cur, grammar.Chars(grammar.AlphaChars))
		cur.Fail(boom)
		return true
	})
	token := grammar.Chars(grammar.TokenChars)

	if _, err := grammar.Parse("", token, nil); !errors.Is(err, grammar.ErrEmptyInput) {
		t.Errorf("Parse(empty) error = %v, want %v", err, grammar.ErrEmptyInput)
	}
	if _, err := grammar.Parse("abc;", failing, nil); !errors.Is(err, boom) {
		t.Errorf("Parse(failing) error = %v, want %v", err, boom)
	}
	if _, err := grammar.Parse(";abc", token, nil); !errors.Is(err, grammar.ErrMalformedInput) {
		t.Errorf("Parse(;abc) error = %v, want %v", err, grammar.ErrMalformedInput)
	}

	_, err := grammar.Parse([]byte("abc;d"), token, nil)
	var terr *grammar.TrailingInputError
	if !errors.As(err, &terr) {
		t.Fatalf("Parse(abc;d) error = %v, want *grammar.TrailingInputError", err)
	}
	if terr.Pos != 3 || terr.Trailing() != ";d" || terr.Input != "abc;d" {
		t.Errorf("err = %+v, want trailing \";d\" at 3", terr)
	}

	v, err := grammar.Parse("abc", token, nil)
	if err != nil || v != "abc" {
		t.Errorf("Parse(abc) = (%q, %v), want (abc, nil)", v, err)
	}
}

func TestGrammarErrors(t *testing.T) {
	t.Parallel()

	_, derr := grammar.Decode("%zz")
	_, merr := grammar.Parse(";", grammar.Chars(grammar.TokenChars), nil)
	_, terr := grammar.Parse("a;", grammar.Chars(grammar.TokenChars), nil)

	for _, err := range []error{grammar.ErrEmptyInput, derr, merr, terr} {
		if !errorutil.IsGrammarErr(err) {
			t.Errorf("errorutil.IsGrammarErr(%v) = false, want true", err)
		}
	}
	if errorutil.IsGrammarErr(errors.New("other")) {
		t.Error("errorutil.IsGrammarErr(other) = true, want false")
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	if !grammar.IsToken("INVITE") || grammar.IsToken("IN VITE") || grammar.IsToken("") {
		t.Error("grammar.IsToken() mismatch")
	}
	if got, want := grammar.Quote(`a "b" \c`), `"a \"b\" \\c"`; got != want {
		t.Errorf("grammar.Quote() = %q, want %q", got, want)
	}
	unq, ok := grammar.Read(grammar.NewCursor(grammar.Quote(`a "b" \c`), nil), grammar.QuotedString)
	if !ok || unq != `a "b" \c` {
		t.Errorf("quoted round trip = (%q, %v)", unq, ok)
	}
}

var atomicElems = map[string]grammar.Matcher[string]{
	"host":     grammar.Host,
	"quoted":   grammar.QuotedString,
	"token":    grammar.Chars(grammar.TokenChars),
	"literal":  grammar.Literal("sip:"),
	"hostport": grammar.Map(grammar.HostPort, func(ep grammar.Endpoint) string { return ep.Host }),
	"port":     grammar.Map(grammar.Port, func(uint16) string { return "" }),
}

func checkAtomic(t *testing.T, s string) {
	t.Helper()
	for name, m := range atomicElems {
		grammartest.CheckAtomic(t, name, m, s)
	}
}

func TestAtomicity(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		checkAtomic(t, grammartest.RandomInput(rnd, nil, `abc019.-:[]"\<>;@% `+"\t", 15))
	}
}

func FuzzAtomicity(f *testing.F) {
	for _, s := range []string{"", "example.com:5060", "[::1]:", `"a\"b"`, "sip:", "a..b", "256.1.1.1"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		checkAtomic(t, s)
	})
}

func TestCharSet(t *testing.T) {
	t.Parallel()

	s := grammar.NewCharSet("ab", "c")
	with := s.With("d")
	without := s.Without("a")

	if !slices.Equal(members(s), []byte("abc")) {
		t.Errorf("set = %q, want abc", members(s))
	}
	if !slices.Equal(members(with), []byte("abcd")) {
		t.Errorf("set.With(d) = %q, want abcd", members(with))
	}
	if !slices.Equal(members(without), []byte("bc")) {
		t.Errorf("set.Without(a) = %q, want bc", members(without))
	}
}

func members(s *grammar.CharSet) []byte {
	var out []byte
	for c := range 256 {
		if s.Contains(byte(c)) {
			out = append(out, byte(c))
		}
	}
	return out
}
