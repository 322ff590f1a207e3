package uri

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/errorutil"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Any is a URI of a scheme other than sip or sips.
// It is kept opaque, the parts are only reachable through [net/url.URL] accessors.
type Any struct {
	url url.URL
}

// NewAny builds an Any URI from an already parsed [url.URL].
func NewAny(u *url.URL) *Any {
	if u == nil {
		return nil
	}
	a := &Any{url: *u}
	a.url.Scheme = util.LCase(a.url.Scheme)
	if u.User != nil {
		a.url.User = cloneUserinfo(u.User)
	}
	return a
}

// URL returns a copy of the underlying URL.
func (u *Any) URL() *url.URL {
	if u == nil {
		return nil
	}
	c := u.url
	if c.User != nil {
		c.User = cloneUserinfo(c.User)
	}
	return &c
}

// Clone returns a deep copy of the Any URI.
func (u *Any) Clone() URI {
	if u == nil {
		return nil
	}
	u2 := *u
	if u.url.User != nil {
		u2.url.User = cloneUserinfo(u.url.User)
	}
	return &u2
}

func cloneUserinfo(ui *url.Userinfo) *url.Userinfo {
	if pwd, ok := ui.Password(); ok {
		return url.UserPassword(ui.Username(), pwd)
	}
	return url.User(ui.Username())
}

// Scheme returns the URI scheme.
func (u *Any) Scheme() string {
	if u == nil {
		return ""
	}
	return u.url.Scheme
}

// Opaque returns the opaque part of the URI, e.g. "+1-555-0100" for "tel:+1-555-0100".
func (u *Any) Opaque() string {
	if u == nil {
		return ""
	}
	return u.url.Opaque
}

// RenderTo writes the URI to the provided writer.
func (u *Any) RenderTo(w io.Writer, _ *RenderOptions) (num int, err error) {
	if u == nil {
		return 0, nil
	}
	return errtrace.Wrap2(fmt.Fprint(w, u.url.String()))
}

// Render returns the string representation of the URI.
func (u *Any) Render(opts *RenderOptions) string {
	if u == nil {
		return ""
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	u.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// String returns the string representation of the URI.
func (u *Any) String() string {
	if u == nil {
		return ""
	}
	return u.Render(nil)
}

// Format implements fmt.Formatter for custom formatting of the Any URI.
func (u *Any) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			u.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, u.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(u.String()))
		return
	default:
		type hideMethods Any
		type Any hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), (*Any)(u))
		return
	}
}

// Equal compares schemes case-insensitively and the rest of the URI exactly.
func (u *Any) Equal(val any) bool {
	var other *Any
	switch v := val.(type) {
	case Any:
		other = &v
	case *Any:
		other = v
	default:
		return false
	}

	if u == other {
		return true
	} else if u == nil || other == nil {
		return false
	}
	return util.EqFold(u.url.Scheme, other.url.Scheme) &&
		strings.TrimPrefix(u.String(), u.url.Scheme) == strings.TrimPrefix(other.String(), other.url.Scheme)
}

// IsValid checks whether the Any URI has a scheme and a non-empty scheme-specific part.
func (u *Any) IsValid() bool {
	return u != nil &&
		u.url.Scheme != "" &&
		(u.url.Opaque != "" || u.url.Host != "" || u.url.Path != "")
}

// MarshalText implements [encoding.TextMarshaler].
func (u *Any) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (u *Any) UnmarshalText(text []byte) error {
	u1, err := ParseAny(text)
	if err != nil {
		*u = Any{}
		return errtrace.Wrap(err)
	}
	*u = *u1
	return nil
}

// ParseAny parses a non-SIP URI from the given input s (string or []byte).
// SIP and SIPS URIs are rejected with [ErrMalformedInput].
func ParseAny[T constraints.Byteseq](s T) (*Any, error) {
	u, err := Parse(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	a, ok := u.(*Any)
	if !ok {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(grammar.ErrMalformedInput, "unexpected %s URI", u.Scheme()))
	}
	return a, nil
}
