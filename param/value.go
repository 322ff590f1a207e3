package param

import "github.com/ghettovoice/sipgrammar/internal/grammar"

// Value is a parameter value, one of [Flag], [Token] or [Quoted].
type Value interface {
	// String returns the wire form of the value, without the leading "=".
	String() string
	isValue()
}

// Flag is the value of a parameter written without "=value".
type Flag struct{}

func (Flag) String() string { return "" }

func (Flag) isValue() {}

// Token is an opaque wire-safe value.
type Token string

func (t Token) String() string { return string(t) }

func (Token) isValue() {}

// Quoted is a quoted-string value stored without the quotes.
type Quoted string

func (q Quoted) String() string { return grammar.Quote(string(q)) }

func (Quoted) isValue() {}

// Text returns the payload of v: empty for flags, the text itself for tokens and
// the unquoted content for quoted strings.
func Text(v Value) string {
	switch v := v.(type) {
	case Flag:
		return ""
	case Token:
		return string(v)
	case Quoted:
		return string(v)
	default:
		return ""
	}
}

// IsFlag reports whether v is a [Flag] or nil.
func IsFlag(v Value) bool {
	switch v.(type) {
	case nil, Flag:
		return true
	default:
		return false
	}
}
