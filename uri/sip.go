package uri

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/ioutil"
	"github.com/ghettovoice/sipgrammar/internal/util"
	"github.com/ghettovoice/sipgrammar/param"
)

// Well-known SIP URI parameters.
var (
	TransportParam = param.TokenDef("transport")
	UserParam      = param.TokenDef("user")
	MethodParam    = param.TokenDef("method")
	MAddrParam     = param.TokenDef("maddr")
	TTLParam       = param.UintDef("ttl")
	LRParam        = param.FlagDef("lr")
)

// SIP represents a SIP or SIPS URI.
//
// SIP values are immutable: accessors return copies and With* methods return modified copies,
// so a *SIP can be shared freely.
type SIP struct {
	secured bool
	user    UserInfo
	addr    Addr
	params  param.List
	headers []RawHeader
}

// NewSIP returns a sip: URI addressing addr.
func NewSIP(user UserInfo, addr Addr) *SIP {
	return &SIP{user: user, addr: addr}
}

// NewSIPS returns a sips: URI addressing addr.
func NewSIPS(user UserInfo, addr Addr) *SIP {
	return &SIP{secured: true, user: user, addr: addr}
}

// Secured reports whether the URI has the sips scheme.
func (u *SIP) Secured() bool { return u != nil && u.secured }

// User returns the userinfo part.
func (u *SIP) User() UserInfo {
	if u == nil {
		return UserInfo{}
	}
	return u.user
}

// Addr returns the host and optional port.
func (u *SIP) Addr() Addr {
	if u == nil {
		return Addr{}
	}
	return u.addr
}

// Params returns the URI parameters in wire order.
func (u *SIP) Params() param.List {
	if u == nil {
		return param.List{}
	}
	return u.params
}

// Headers returns a copy of the URI headers in wire order.
func (u *SIP) Headers() []RawHeader {
	if u == nil {
		return nil
	}
	return slices.Clone(u.headers)
}

// Header returns the value of the first header named name.
func (u *SIP) Header(name string) (string, bool) {
	if u == nil {
		return "", false
	}
	for _, h := range u.headers {
		if util.EqFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func (u *SIP) clone() *SIP {
	u2 := *u
	u2.headers = slices.Clone(u.headers)
	return &u2
}

// WithSecured returns a copy of the URI with the scheme switched to sips (true) or sip (false).
func (u *SIP) WithSecured(secured bool) *SIP {
	u2 := u.clone()
	u2.secured = secured
	return u2
}

// WithUser returns a copy of the URI with the userinfo replaced.
func (u *SIP) WithUser(user UserInfo) *SIP {
	u2 := u.clone()
	u2.user = user
	return u2
}

// WithAddr returns a copy of the URI with the host and port replaced.
func (u *SIP) WithAddr(addr Addr) *SIP {
	u2 := u.clone()
	u2.addr = addr
	return u2
}

// WithParams returns a copy of the URI with all parameters replaced.
func (u *SIP) WithParams(params param.List) *SIP {
	u2 := u.clone()
	u2.params = params
	return u2
}

// WithParam returns a copy of the URI with the parameter set, see [param.List.With].
func (u *SIP) WithParam(name string, val param.Value) *SIP {
	u2 := u.clone()
	u2.params = u.params.With(name, val)
	return u2
}

// WithoutParam returns a copy of the URI without the named parameter.
func (u *SIP) WithoutParam(name string) *SIP {
	u2 := u.clone()
	u2.params = u.params.Without(name)
	return u2
}

// WithHeaders returns a copy of the URI with all headers replaced.
func (u *SIP) WithHeaders(hdrs ...RawHeader) *SIP {
	u2 := u.clone()
	u2.headers = slices.Clone(hdrs)
	return u2
}

// Clone returns a deep copy of the SIP URI.
func (u *SIP) Clone() URI {
	if u == nil {
		return nil
	}
	return u.clone()
}

// Scheme returns the URI scheme.
func (u *SIP) Scheme() string {
	if u == nil {
		return ""
	}
	return u.scheme()
}

func (u *SIP) scheme() string {
	if u.secured {
		return "sips"
	}
	return "sip"
}

// RenderTo writes the SIP URI to the provided writer.
// Parameters and headers are written in their stored order.
func (u *SIP) RenderTo(w io.Writer, _ *RenderOptions) (num int, err error) {
	if u == nil {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprint(u.scheme(), ":")
	if !u.user.IsZero() {
		cw.Fprint(u.user, "@")
	}
	cw.Fprint(u.addr)
	cw.Call(u.renderParams)
	cw.Call(u.renderHeaders)
	return errtrace.Wrap2(cw.Result())
}

func (u *SIP) renderParams(w io.Writer) (num int, err error) {
	return errtrace.Wrap2(u.params.RenderTo(w, shouldEscapeURIParamChar))
}

func (u *SIP) renderHeaders(w io.Writer) (num int, err error) {
	if len(u.headers) == 0 {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for i, h := range u.headers {
		if i == 0 {
			cw.Fprint("?")
		} else {
			cw.Fprint("&")
		}
		cw.Fprint(h)
	}
	return errtrace.Wrap2(cw.Result())
}

// Render returns the string representation of the SIP URI.
func (u *SIP) Render(opts *RenderOptions) string {
	if u == nil {
		return ""
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	u.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// String returns the string representation of the SIP URI.
func (u *SIP) String() string {
	if u == nil {
		return ""
	}
	return u.Render(nil)
}

// Format implements fmt.Formatter for custom formatting of the SIP URI.
func (u *SIP) Format(f fmt.State, verb rune) {
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
		type hideMethods SIP
		type SIP hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), (*SIP)(u))
		return
	}
}

// Equal compares this SIP URI with another for equality according to RFC 3261 Section 19.1.4.
func (u *SIP) Equal(val any) bool {
	var other *SIP
	switch v := val.(type) {
	case SIP:
		other = &v
	case *SIP:
		other = v
	default:
		return false
	}

	if u == other {
		return true
	} else if u == nil || other == nil {
		return false
	}

	return u.secured == other.secured &&
		u.user.Equal(other.user) &&
		u.addr.Equal(other.addr) &&
		compareParams(u.params, other.params) &&
		compareHeaders(u.headers, other.headers)
}

var sipURISpecParams = []string{"transport", "user", "method", "maddr", "ttl", "lr"}

func compareParams(ps1, ps2 param.List) bool {
	// Any parameter appearing in both URIs must match.
	for _, p := range ps1.All() {
		v2, ok := ps2.Get(p.Name)
		if !ok {
			continue
		}
		if !util.EqFold(param.Text(p.Value), param.Text(v2)) {
			return false
		}
	}
	// Special parameters appearing in one URI must appear in the other.
	for _, name := range sipURISpecParams {
		if ps1.Has(name) != ps2.Has(name) {
			return false
		}
	}
	return true
}

// compareHeaders requires the same set of headers in both URIs, order is ignored.
func compareHeaders(hs1, hs2 []RawHeader) bool {
	if len(hs1) != len(hs2) {
		return false
	}
	used := make([]bool, len(hs2))
outer:
	for _, h1 := range hs1 {
		for i, h2 := range hs2 {
			if !used[i] && util.EqFold(h1.Name, h2.Name) && util.EqFold(h1.Value, h2.Value) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// IsValid checks whether the SIP URI is syntactically valid.
func (u *SIP) IsValid() bool {
	return u != nil && u.addr.IsValid() && (u.user.IsZero() || u.user.IsValid())
}

// MarshalText implements [encoding.TextMarshaler].
func (u *SIP) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (u *SIP) UnmarshalText(text []byte) error {
	u1, err := ParseSIP(text)
	if err != nil {
		*u = SIP{}
		return errtrace.Wrap(err)
	}
	*u = *u1
	return nil
}

// Transport returns the value of the transport parameter.
func (u *SIP) Transport() (string, bool) {
	tp, ok := TransportParam.Lookup(u.Params())
	return util.LCase(string(tp)), ok
}

// UserType returns the value of the user parameter, e.g. "phone".
func (u *SIP) UserType() (string, bool) {
	v, ok := UserParam.Lookup(u.Params())
	return string(v), ok
}

// Method returns the value of the method parameter.
func (u *SIP) Method() (string, bool) {
	v, ok := MethodParam.Lookup(u.Params())
	return string(v), ok
}

// MAddr returns the value of the maddr parameter.
func (u *SIP) MAddr() (string, bool) {
	v, ok := MAddrParam.Lookup(u.Params())
	return string(v), ok
}

// TTL returns the value of the ttl parameter.
func (u *SIP) TTL() (uint8, bool) {
	v, ok := TTLParam.Lookup(u.Params())
	if !ok || v > 255 {
		return 0, false
	}
	return uint8(v), true
}

// LR reports whether the lr parameter is present.
func (u *SIP) LR() bool {
	return LRParam.Has(u.Params())
}

// ParseSIP parses a SIP or SIPS URI from the given input s (string or []byte).
func ParseSIP[T constraints.Byteseq](s T) (*SIP, error) {
	return errtrace.Wrap2(ParseSIPWithOptions(s, nil))
}

// ParseSIPWithOptions is like [ParseSIP] but accepts parsing options.
func ParseSIPWithOptions[T constraints.Byteseq](s T, opts *ParseOptions) (*SIP, error) {
	return errtrace.Wrap2(parse(s, SIPRule, opts))
}
