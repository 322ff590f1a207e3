package param

import (
	"strconv"

	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Definition names a parameter and knows how to decode its value into T.
// Definitions with the same name and decode rule are interchangeable.
type Definition[T any] struct {
	name   string
	decode func(Value) (T, bool)
}

// NewDefinition creates a definition with a custom decode rule.
// The decode function receives [Flag] for parameters written without a value.
func NewDefinition[T any](name string, decode func(Value) (T, bool)) Definition[T] {
	return Definition[T]{name: name, decode: decode}
}

// Name returns the parameter name.
func (d Definition[T]) Name() string { return d.name }

// Decode decodes p if its name matches the definition.
func (d Definition[T]) Decode(p Raw) (T, bool) {
	var zero T
	if !util.EqFold(p.Name, d.name) || d.decode == nil {
		return zero, false
	}
	return d.decode(valueOf(p.Value))
}

// Lookup decodes the first parameter in l matching the definition name.
// Absence, as well as a value the rule can not decode, is reported with ok == false.
func (d Definition[T]) Lookup(l List) (T, bool) {
	var zero T
	i := l.index(d.name)
	if i < 0 {
		return zero, false
	}
	return d.Decode(l.ps[i])
}

// Has reports whether l contains a parameter that decodes with the definition.
func (d Definition[T]) Has(l List) bool {
	_, ok := d.Lookup(l)
	return ok
}

// FlagDef defines a parameter whose presence is its meaning.
// Any value shape counts as present.
func FlagDef(name string) Definition[bool] {
	return NewDefinition(name, func(Value) (bool, bool) { return true, true })
}

// TokenDef defines a parameter decoded as opaque text.
// A flag decodes to the empty token.
func TokenDef(name string) Definition[Token] {
	return NewDefinition(name, func(v Value) (Token, bool) { return Token(Text(v)), true })
}

// UintDef defines a parameter holding a decimal unsigned integer.
func UintDef(name string) Definition[uint64] {
	return NewDefinition(name, func(v Value) (uint64, bool) {
		t, ok := v.(Token)
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseUint(string(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	})
}
