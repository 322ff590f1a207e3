package grammar

import "github.com/ghettovoice/sipgrammar/internal/util"

// CharSet is a byte allow-list.
type CharSet [256]bool

// NewCharSet returns a set containing every byte of the given groups.
func NewCharSet(groups ...string) *CharSet {
	var s CharSet
	for _, g := range groups {
		for i := 0; i < len(g); i++ {
			s[g[i]] = true
		}
	}
	return &s
}

// Contains reports whether c belongs to the set.
func (s *CharSet) Contains(c byte) bool { return s[c] }

// With returns a new set extended with chars.
func (s *CharSet) With(chars string) *CharSet {
	s2 := *s
	for i := 0; i < len(chars); i++ {
		s2[chars[i]] = true
	}
	return &s2
}

// Without returns a new set with chars removed.
func (s *CharSet) Without(chars string) *CharSet {
	s2 := *s
	for i := 0; i < len(chars); i++ {
		s2[chars[i]] = false
	}
	return &s2
}

const (
	alphaChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	hexChars   = digitChars + "abcdefABCDEF"
	markChars  = "-_.!~*'()"
)

// Character classes of RFC 3261 used by the SIP grammars.
var (
	AlphaChars      = NewCharSet(alphaChars)
	DigitChars      = NewCharSet(digitChars)
	HexChars        = NewCharSet(hexChars)
	AlphanumChars   = NewCharSet(alphaChars, digitChars)
	UnreservedChars = AlphanumChars.With(markChars)
	// UserChars is the allow-list of the SIP-URI user part, escapes included.
	UserChars = UnreservedChars.With("%&=+$,;?/#[]")
	// PasswordChars is the allow-list of the SIP-URI password part, it never contains @ : ; ? &.
	PasswordChars = UnreservedChars.With("%=+$,")
	// ParamChars is the allow-list of SIP-URI parameter names and values.
	ParamChars = UnreservedChars.With("%[]/:&+$")
	// HeaderChars is the allow-list of SIP-URI header names and values.
	HeaderChars = UnreservedChars.With("%[]/?:+$")
	TokenChars  = AlphanumChars.With("-.!%*_+`'~")
	// HostnameChars covers hostnames and IPv4 literals.
	HostnameChars = AlphanumChars.With("-.")
	// IPv6Chars covers the content of an IPv6 reference.
	IPv6Chars = NewCharSet(hexChars, ":.")
	// WSChars covers linear white space, folding included.
	WSChars = NewCharSet(" \t\r\n")
	// SchemeChars covers the characters following the first letter of a URI scheme.
	SchemeChars = AlphanumChars.With("+-.")
)

type chars struct {
	set        *CharSet
	allowEmpty bool
}

// Chars returns an element consuming the longest non-empty run of bytes from set.
func Chars(set *CharSet) Matcher[string] { return chars{set: set} }

// Chars0 is like [Chars] but also succeeds on a zero-length run.
func Chars0(set *CharSet) Matcher[string] { return chars{set: set, allowEmpty: true} }

func (m chars) Match(cur *Cursor, sink Sink[string]) bool {
	if cur.Err() != nil {
		return false
	}
	start := cur.Pos()
	end := start
	for end < len(cur.buf) && m.set.Contains(cur.buf[end]) {
		end++
	}
	if end == start && !m.allowEmpty {
		return false
	}
	cur.pos = end
	if sink != nil {
		sink(cur.Text(start, end))
	}
	return true
}

type char byte

// Char returns an element matching the single byte c.
func Char(c byte) Matcher[byte] { return char(c) }

func (m char) Match(cur *Cursor, sink Sink[byte]) bool {
	if cur.Err() != nil {
		return false
	}
	if b, ok := cur.Peek(); !ok || b != byte(m) {
		return false
	}
	cur.pos++
	sink.Set(byte(m))
	return true
}

type literal string

// Literal returns an element matching s case-insensitively.
// The produced value is the input text as written.
func Literal(s string) Matcher[string] { return literal(s) }

func (m literal) Match(cur *Cursor, sink Sink[string]) bool {
	if cur.Err() != nil {
		return false
	}
	start := cur.Pos()
	end := start + len(m)
	if end > len(cur.buf) || !util.EqFold(string(cur.buf[start:end]), string(m)) {
		return false
	}
	cur.pos = end
	sink.Set(cur.Text(start, end))
	return true
}

// Separators.
var (
	Colon    = Char(':')
	At       = Char('@')
	Semi     = Char(';')
	Question = Char('?')
	Amp      = Char('&')
	Equal    = Char('=')
	Comma    = Char(',')
	LAQuot   = Char('<')
	RAQuot   = Char('>')
	DQuote   = Char('"')
)

// SWS matches optional linear white space.
var SWS = Chars0(WSChars)

// QuotedString matches a quoted-string and produces the unquoted content.
var QuotedString Matcher[string] = Named("quoted-string", MatcherFunc[string](matchQuotedString))

func matchQuotedString(cur *Cursor, sink Sink[string]) bool {
	if cur.Err() != nil {
		return false
	}
	pos := cur.Pos()
	if !Skip(cur, DQuote) {
		return false
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for {
		c, ok := cur.Next()
		if !ok {
			cur.SetPos(pos)
			return false
		}
		switch {
		case c == '"':
			sink.Set(sb.String())
			return true
		case c == '\\':
			e, ok := cur.Next()
			if !ok || e > 0x7f || e == '\r' || e == '\n' {
				cur.SetPos(pos)
				return false
			}
			sb.WriteByte(e)
		case c == '\r' || c == '\n':
			cur.SetPos(pos)
			return false
		default:
			sb.WriteByte(c)
		}
	}
}
