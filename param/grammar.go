package param

import "github.com/ghettovoice/sipgrammar/internal/grammar"

// URIParams matches *( ";" pname [ "=" pvalue ] ) as used in SIP URIs.
// Names and values are percent-decoded. The element always matches,
// a parameter that can not be read completely is left unconsumed.
var URIParams grammar.Matcher[List] = grammar.Named("uri-parameters", grammar.MatcherFunc[List](matchURIParams))

// HeaderParams matches *( SWS ";" SWS token [ SWS "=" SWS gen-value ] ) as used in header values,
// where gen-value is token / host / quoted-string. The element always matches.
var HeaderParams grammar.Matcher[List] = grammar.Named("generic-params", grammar.MatcherFunc[List](matchHeaderParams))

var (
	uriParamText = grammar.Chars(grammar.ParamChars)
	genValueText = grammar.Chars(grammar.TokenChars.With(":[]"))
	paramName    = grammar.Chars(grammar.TokenChars)
)

var genValue = grammar.First(
	grammar.Map(grammar.QuotedString, func(s string) Value { return Quoted(s) }),
	grammar.Map(genValueText, func(s string) Value { return Token(s) }),
)

func matchURIParams(cur *grammar.Cursor, sink grammar.Sink[List]) bool {
	start := cur.Pos()
	var ps []Raw
	for {
		p, ok := grammar.Read(cur, grammar.MatcherFunc[Raw](matchURIParam))
		if !ok {
			break
		}
		ps = append(ps, p)
	}
	if cur.Err() != nil {
		cur.SetPos(start)
		return false
	}
	sink.Set(List{ps: ps})
	return true
}

func matchURIParam(cur *grammar.Cursor, sink grammar.Sink[Raw]) bool {
	pos := cur.Pos()
	if !grammar.Skip(cur, grammar.Semi) {
		return false
	}

	name, ok := readDecoded(cur, uriParamText)
	if !ok {
		cur.SetPos(pos)
		return false
	}

	p := Raw{Name: name, Value: Flag{}}
	if grammar.Skip(cur, grammar.Equal) {
		val, ok := readDecoded(cur, uriParamText)
		if !ok {
			cur.SetPos(pos)
			return false
		}
		p.Value = Token(val)
	}
	sink.Set(p)
	return true
}

// readDecoded reads a run of m and percent-decodes it.
// A malformed escape is recorded on the cursor.
func readDecoded(cur *grammar.Cursor, m grammar.Matcher[string]) (string, bool) {
	pos := cur.Pos()
	if !grammar.Skip(cur, m) {
		return "", false
	}
	dec, ok := cur.Decode(pos, cur.Pos())
	if !ok {
		cur.SetPos(pos)
		return "", false
	}
	return dec, true
}

func matchHeaderParams(cur *grammar.Cursor, sink grammar.Sink[List]) bool {
	start := cur.Pos()
	var ps []Raw
	for {
		p, ok := grammar.Read(cur, grammar.MatcherFunc[Raw](matchHeaderParam))
		if !ok {
			break
		}
		ps = append(ps, p)
	}
	if cur.Err() != nil {
		cur.SetPos(start)
		return false
	}
	sink.Set(List{ps: ps})
	return true
}

func matchHeaderParam(cur *grammar.Cursor, sink grammar.Sink[Raw]) bool {
	pos := cur.Pos()
	grammar.Skip(cur, grammar.SWS)
	if !grammar.Skip(cur, grammar.Semi) {
		cur.SetPos(pos)
		return false
	}
	grammar.Skip(cur, grammar.SWS)

	name, ok := grammar.Read(cur, paramName)
	if !ok {
		cur.SetPos(pos)
		return false
	}

	p := Raw{Name: name, Value: Flag{}}
	valPos := cur.Pos()
	grammar.Skip(cur, grammar.SWS)
	if grammar.Skip(cur, grammar.Equal) {
		grammar.Skip(cur, grammar.SWS)
		val, ok := grammar.Read(cur, genValue)
		if !ok {
			cur.SetPos(pos)
			return false
		}
		p.Value = val
	} else {
		cur.SetPos(valPos)
	}
	sink.Set(p)
	return true
}
