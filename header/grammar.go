package header

import (
	"strings"

	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/param"
	"github.com/ghettovoice/sipgrammar/uri"
)

// NameAddrRule matches ( name-addr / addr-spec ) *( SWS ";" SWS generic-param ).
var NameAddrRule grammar.Matcher[NameAddr] = grammar.Named("name-addr", grammar.MatcherFunc[NameAddr](matchNameAddr))

// HistoryInfoRule matches a History-Info header value:
// hi-entry *( SWS "," SWS hi-entry ), where hi-entry is a name-addr with parameters.
var HistoryInfoRule grammar.Matcher[HistoryInfo] = grammar.Named("History-Info", grammar.MatcherFunc[HistoryInfo](matchHistoryInfo))

var (
	displayNameRule = grammar.Named("display-name", grammar.First(
		grammar.QuotedString,
		grammar.MatcherFunc[string](matchTokenWords),
	))
	nameAddrEntries = grammar.Named("name-addr-list", grammar.MatcherFunc[[]NameAddr](matchNameAddrList))
	tokenText       = grammar.Chars(grammar.TokenChars)
)

func matchNameAddr(cur *grammar.Cursor, sink grammar.Sink[NameAddr]) bool {
	pos := cur.Pos()
	grammar.Skip(cur, grammar.SWS)

	addr, ok := readBracketed(cur)
	if !ok {
		if cur.Err() != nil {
			cur.SetPos(pos)
			return false
		}
		if addr, ok = readBare(cur); !ok {
			cur.SetPos(pos)
			return false
		}
	}

	ps, ok := grammar.Read(cur, param.HeaderParams)
	if !ok {
		cur.SetPos(pos)
		return false
	}
	for _, p := range ps.All() {
		addr.params = addr.params.Append(p.Name, p.Value)
	}
	sink.Set(addr)
	return true
}

// readBracketed reads [ display-name ] LAQUOT URI RAQUOT.
func readBracketed(cur *grammar.Cursor) (NameAddr, bool) {
	pos := cur.Pos()
	dname, _ := grammar.Read(cur, displayNameRule)
	grammar.Skip(cur, grammar.SWS)
	if !grammar.Skip(cur, grammar.LAQuot) {
		cur.SetPos(pos)
		return NameAddr{}, false
	}
	u, ok := grammar.Read(cur, uri.Rule)
	if !ok || !grammar.Skip(cur, grammar.RAQuot) {
		cur.SetPos(pos)
		return NameAddr{}, false
	}
	return NameAddr{displayName: dname, uri: u}, true
}

// readBare reads an addr-spec, moving the SIP URI parameters to the NameAddr.
func readBare(cur *grammar.Cursor) (NameAddr, bool) {
	u, ok := grammar.Read(cur, uri.BareRule)
	if !ok {
		return NameAddr{}, false
	}
	addr := NameAddr{uri: u}
	if sip, ok := u.(*uri.SIP); ok && !sip.Params().IsEmpty() {
		addr.params = sip.Params()
		addr.uri = sip.WithParams(param.List{})
	}
	return addr, true
}

// matchTokenWords matches *( token LWS ) and joins the words with a single space.
func matchTokenWords(cur *grammar.Cursor, sink grammar.Sink[string]) bool {
	pos := cur.Pos()
	var words []string
	for {
		w, ok := grammar.Read(cur, tokenText)
		if !ok {
			break
		}
		words = append(words, w)
		end := cur.Pos()
		if !grammar.Skip(cur, grammar.Chars(grammar.WSChars)) {
			cur.SetPos(end)
			break
		}
	}
	if len(words) == 0 {
		cur.SetPos(pos)
		return false
	}
	sink.Set(strings.Join(words, " "))
	return true
}

func matchNameAddrList(cur *grammar.Cursor, sink grammar.Sink[[]NameAddr]) bool {
	pos := cur.Pos()
	addr, ok := grammar.Read(cur, NameAddrRule)
	if !ok {
		return false
	}
	addrs := []NameAddr{addr}
	for {
		next := cur.Pos()
		grammar.Skip(cur, grammar.SWS)
		if !grammar.Skip(cur, grammar.Comma) {
			cur.SetPos(next)
			break
		}
		if addr, ok = grammar.Read(cur, NameAddrRule); !ok {
			cur.SetPos(next)
			break
		}
		addrs = append(addrs, addr)
	}
	if cur.Err() != nil {
		cur.SetPos(pos)
		return false
	}
	sink.Set(addrs)
	return true
}

func matchHistoryInfo(cur *grammar.Cursor, sink grammar.Sink[HistoryInfo]) bool {
	pos := cur.Pos()
	addrs, ok := grammar.Read(cur, nameAddrEntries)
	if !ok {
		return false
	}
	grammar.Skip(cur, grammar.SWS)
	if cur.Err() != nil {
		cur.SetPos(pos)
		return false
	}
	sink.Set(BuildHistoryInfo(addrs))
	return true
}
