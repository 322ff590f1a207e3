// Package param models SIP parameters: typed values, ordered parameter lists and
// named definitions used to look values up.
//
// # Values
//
// A parameter value is one of [Flag], [Token] or [Quoted]. [Flag] marks a parameter written
// without "=value", every Flag equals every other Flag.
//
//	p := param.NewList().
//	    Append("lr", param.Flag{}).
//	    Append("ftag", param.Token("a29dd1ac97e3b91e"))
//
// # Definitions
//
// A [Definition] pairs a parameter name with a decode rule:
//
//	ftag, ok := param.TokenDef("ftag").Lookup(p) // "a29dd1ac97e3b91e", true
//	lr := param.FlagDef("lr").Has(p)             // true
//
// A missing parameter is reported with ok == false and is never an error.
//
// # Lists
//
// [List] is immutable, every modifying method returns a new list.
package param
