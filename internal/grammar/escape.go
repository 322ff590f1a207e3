package grammar

import (
	"bytes"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Decode percent-decodes s.
// A "%" that does not start a valid escape fails with [*DecodingError].
func Decode[T constraints.Byteseq](s T) (string, error) {
	if bytes.IndexByte([]byte(s), '%') < 0 {
		return string(s), nil
	}

	var b bytes.Buffer
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) || !ishex(s[i+1]) || !ishex(s[i+2]) {
			return "", errtrace.Wrap(&DecodingError{Input: string(s), Pos: i, Err: ErrInvalidEscape})
		}
		b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
		i += 2
	}
	return b.String(), nil
}

// Encode percent-encodes every byte matched by shouldEscape.
// "%" is treated as plain data, so Decode(Encode(s, f)) == s
// whenever shouldEscape reports true for '%'.
func Encode(s string, shouldEscape func(c byte) bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		if c := s[i]; shouldEscape(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

func ishex(c byte) bool { return HexChars.Contains(c) }

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// IsURIUserCharUnreserved checks on user-unreserved rule.
func IsURIUserCharUnreserved(c byte) bool { return c != '%' && UserChars.Contains(c) }

// IsURIPasswdCharUnreserved checks on password-unreserved rule.
func IsURIPasswdCharUnreserved(c byte) bool { return c != '%' && PasswordChars.Contains(c) }

// IsURIParamCharUnreserved checks on param-unreserved rule.
func IsURIParamCharUnreserved(c byte) bool { return c != '%' && ParamChars.Contains(c) }

// IsURIHeaderCharUnreserved checks on hnv-unreserved rule.
func IsURIHeaderCharUnreserved(c byte) bool { return c != '%' && HeaderChars.Contains(c) }
