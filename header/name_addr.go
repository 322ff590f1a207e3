package header

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/ioutil"
	"github.com/ghettovoice/sipgrammar/internal/types"
	"github.com/ghettovoice/sipgrammar/internal/util"
	"github.com/ghettovoice/sipgrammar/param"
	"github.com/ghettovoice/sipgrammar/uri"
)

// NameAddr is an address with an optional display name and header parameters,
// the value of From, To, Contact and History-Info entries.
//
// NameAddr is immutable, every With* method returns a new value.
type NameAddr struct {
	displayName string
	uri         uri.URI
	params      param.List
}

// NewNameAddr returns a NameAddr for u without display name and parameters.
func NewNameAddr(u uri.URI) NameAddr { return NameAddr{uri: u} }

// DisplayName returns the unquoted display name.
func (addr NameAddr) DisplayName() string { return addr.displayName }

// Address returns the address URI.
func (addr NameAddr) Address() uri.URI { return addr.uri }

// Params returns the header parameters in wire order.
func (addr NameAddr) Params() param.List { return addr.params }

// WithDisplayName returns a copy with the display name replaced.
func (addr NameAddr) WithDisplayName(name string) NameAddr {
	addr.displayName = name
	return addr
}

// WithAddress returns a copy with the address replaced.
func (addr NameAddr) WithAddress(u uri.URI) NameAddr {
	addr.uri = u
	return addr
}

// WithParameter returns a copy with the parameter set, see [param.List.With].
func (addr NameAddr) WithParameter(name string, val param.Value) NameAddr {
	addr.params = addr.params.With(name, val)
	return addr
}

// WithParams returns a copy with all parameters replaced.
func (addr NameAddr) WithParams(params param.List) NameAddr {
	addr.params = params
	return addr
}

// WithoutParameter returns a copy without the named parameter.
func (addr NameAddr) WithoutParameter(name string) NameAddr {
	addr.params = addr.params.Without(name)
	return addr
}

// RenderTo writes the NameAddr in the bracketed name-addr form.
func (addr NameAddr) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	if addr.displayName != "" {
		cw.WriteString(grammar.Quote(addr.displayName)).WriteString(" ")
	}
	cw.WriteString("<")
	if addr.uri != nil {
		cw.Call(func(w io.Writer) (int, error) { return errtrace.Wrap2(addr.uri.RenderTo(w, opts)) })
	}
	cw.WriteString(">")
	cw.Call(func(w io.Writer) (int, error) { return errtrace.Wrap2(addr.params.RenderTo(w, nil)) })
	return errtrace.Wrap2(cw.Result())
}

// Render returns the string representation of the NameAddr.
func (addr NameAddr) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	addr.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// String returns the string representation of the NameAddr.
func (addr NameAddr) String() string { return addr.Render(nil) }

// Format implements fmt.Formatter for custom formatting of the NameAddr.
func (addr NameAddr) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		fmt.Fprint(f, addr.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(addr.String()))
		return
	default:
		if !f.Flag('+') && !f.Flag('#') {
			fmt.Fprint(f, addr.String())
			return
		}

		type hideMethods NameAddr
		type NameAddr hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), NameAddr(addr))
		return
	}
}

// Equal compares addresses and parameters, parameter order and display names are ignored.
func (addr NameAddr) Equal(val any) bool {
	var other NameAddr
	switch v := val.(type) {
	case NameAddr:
		other = v
	case *NameAddr:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return types.IsEqual(addr.uri, other.uri) && addr.params.EqualSet(other.params)
}

// IsValid checks whether the NameAddr has a valid address and token parameter names.
func (addr NameAddr) IsValid() bool {
	if !types.IsValid(addr.uri) {
		return false
	}
	for _, p := range addr.params.All() {
		if !grammar.IsToken(p.Name) {
			return false
		}
	}
	return true
}

// IsZero checks whether the NameAddr is empty.
func (addr NameAddr) IsZero() bool {
	return addr.displayName == "" && addr.uri == nil && addr.params.IsEmpty()
}

// Clone returns a copy of the NameAddr.
func (addr NameAddr) Clone() NameAddr {
	addr.uri = types.Clone[uri.URI](addr.uri)
	return addr
}

// MarshalText implements [encoding.TextMarshaler].
func (addr NameAddr) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
// Empty input resets the value.
func (addr *NameAddr) UnmarshalText(data []byte) error {
	v, err := ParseNameAddr(data)
	if err != nil {
		*addr = NameAddr{}
		if errors.Is(err, grammar.ErrEmptyInput) {
			return nil
		}
		return errtrace.Wrap(err)
	}
	*addr = v
	return nil
}

// Tag returns the value of the tag parameter.
func (addr NameAddr) Tag() (string, bool) {
	v, ok := TagParam.Lookup(addr.params)
	return string(v), ok
}

// TagParam is the tag parameter of From and To headers.
var TagParam = param.TokenDef("tag")

// ParseNameAddr parses a name-addr or a bare addr-spec from the given input s (string or []byte).
// In the addr-spec form the parameters following a SIP URI belong to the NameAddr.
func ParseNameAddr[T constraints.Byteseq](s T) (NameAddr, error) {
	return errtrace.Wrap2(ParseNameAddrWithOptions(s, nil))
}

// ParseNameAddrWithOptions is like [ParseNameAddr] but accepts parsing options.
func ParseNameAddrWithOptions[T constraints.Byteseq](s T, opts *ParseOptions) (NameAddr, error) {
	return errtrace.Wrap2(parse(s, NameAddrRule, opts))
}
