package param

//go:generate go tool errtrace -w .

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/ioutil"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Raw is a single named parameter as it appears on the wire.
type Raw struct {
	Name  string
	Value Value
}

// String returns name[=value].
func (p Raw) String() string {
	if IsFlag(p.Value) {
		return p.Name
	}
	return p.Name + "=" + p.Value.String()
}

// Equal reports whether both parameters have the same case-insensitive name and equal values.
func (p Raw) Equal(val any) bool {
	var other Raw
	switch v := val.(type) {
	case Raw:
		other = v
	case *Raw:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return util.EqFold(p.Name, other.Name) && valueOf(p.Value) == valueOf(other.Value)
}

func valueOf(v Value) Value {
	if v == nil {
		return Flag{}
	}
	return v
}

// List is an insertion-ordered, immutable collection of parameters.
// Names are matched case-insensitively and are not required to be unique.
// The zero value is an empty list.
type List struct {
	ps []Raw
}

// NewList returns a list holding a copy of ps.
func NewList(ps ...Raw) List {
	if len(ps) == 0 {
		return List{}
	}
	return List{ps: slices.Clone(ps)}
}

// Len returns the number of parameters.
func (l List) Len() int { return len(l.ps) }

// IsEmpty reports whether the list has no parameters.
func (l List) IsEmpty() bool { return len(l.ps) == 0 }

// At returns the i-th parameter.
func (l List) At(i int) Raw { return l.ps[i] }

// All iterates over the parameters in insertion order.
func (l List) All() iter.Seq2[int, Raw] { return slices.All(l.ps) }

// Raw returns a copy of the underlying parameters.
func (l List) Raw() []Raw { return slices.Clone(l.ps) }

// Get returns the value of the first parameter named name.
func (l List) Get(name string) (Value, bool) {
	i := l.index(name)
	if i < 0 {
		return nil, false
	}
	return valueOf(l.ps[i].Value), true
}

// Has reports whether a parameter named name is present.
func (l List) Has(name string) bool { return l.index(name) >= 0 }

func (l List) index(name string) int {
	return slices.IndexFunc(l.ps, func(p Raw) bool { return util.EqFold(p.Name, name) })
}

// With returns a copy of the list where name is set to v.
// The first parameter with that name is replaced in place and the rest are dropped,
// otherwise the parameter is appended.
func (l List) With(name string, v Value) List {
	ps := make([]Raw, 0, len(l.ps)+1)
	var replaced bool
	for _, p := range l.ps {
		if !util.EqFold(p.Name, name) {
			ps = append(ps, p)
			continue
		}
		if !replaced {
			ps = append(ps, Raw{name, v})
			replaced = true
		}
	}
	if !replaced {
		ps = append(ps, Raw{name, v})
	}
	return List{ps: ps}
}

// Append returns a copy of the list with the parameter added at the end.
func (l List) Append(name string, v Value) List {
	ps := make([]Raw, len(l.ps), len(l.ps)+1)
	copy(ps, l.ps)
	return List{ps: append(ps, Raw{name, v})}
}

// Without returns a copy of the list with every parameter named name removed.
func (l List) Without(name string) List {
	if !l.Has(name) {
		return l
	}
	ps := slices.DeleteFunc(slices.Clone(l.ps), func(p Raw) bool { return util.EqFold(p.Name, name) })
	if len(ps) == 0 {
		return List{}
	}
	return List{ps: ps}
}

// Equal compares lists element by element, order included.
func (l List) Equal(val any) bool {
	var other List
	switch v := val.(type) {
	case List:
		other = v
	case *List:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(l.ps, other.ps, func(p1, p2 Raw) bool { return p1.Equal(p2) })
}

// EqualSet compares lists ignoring the order of parameters.
func (l List) EqualSet(other List) bool {
	if len(l.ps) != len(other.ps) {
		return false
	}
	used := make([]bool, len(other.ps))
outer:
	for _, p := range l.ps {
		for i, q := range other.ps {
			if !used[i] && p.Equal(q) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// RenderTo writes the list as ";name=value" pairs.
// Names and token values are escaped with shouldEscape when it is not nil.
func (l List) RenderTo(w io.Writer, shouldEscape func(c byte) bool) (num int, err error) {
	if len(l.ps) == 0 {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, p := range l.ps {
		cw.Fprint(";", escape(p.Name, shouldEscape))
		switch v := p.Value.(type) {
		case nil, Flag:
		case Token:
			cw.Fprint("=", escape(string(v), shouldEscape))
		case Quoted:
			cw.Fprint("=", v.String())
		}
	}
	return errtrace.Wrap2(cw.Result())
}

func escape(s string, shouldEscape func(c byte) bool) string {
	if shouldEscape == nil {
		return s
	}
	return grammar.Encode(s, shouldEscape)
}

// String returns the list rendered without escaping.
func (l List) String() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	l.RenderTo(sb, nil) //nolint:errcheck
	return sb.String()
}

// Format implements fmt.Formatter for custom formatting of the list.
func (l List) Format(f fmt.State, verb rune) {
	switch verb {
	case 's', 'v':
		if verb == 'v' && (f.Flag('+') || f.Flag('#')) {
			fmt.Fprintf(f, fmt.FormatString(f, verb), l.ps)
			return
		}
		fmt.Fprint(f, l.String())
	case 'q':
		fmt.Fprint(f, strconv.Quote(l.String()))
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), l.ps)
	}
}
