package uri

import (
	"net/url"

	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/types"
	"github.com/ghettovoice/sipgrammar/param"
)

// BareRule is like [Rule] but stops before ";", "," and "?" in non-SIP URIs.
// It serves the addr-spec form of name-addr, where parameters belong to the header.
var BareRule grammar.Matcher[URI] = grammar.Named("addr-spec", grammar.MatcherFunc[URI](matchBareURI))

// SIPRule matches a SIP-URI or SIPS-URI, scheme included.
var SIPRule grammar.Matcher[*SIP] = grammar.Named("SIP-URI", grammar.MatcherFunc[*SIP](matchSIPOnly))

var (
	userText   = grammar.Chars(grammar.UserChars)
	passwdText = grammar.Chars0(grammar.PasswordChars)
	hnameText  = grammar.Chars(grammar.HeaderChars)
	hvalueText = grammar.Chars0(grammar.HeaderChars)

	userinfoRule = grammar.Named("userinfo", grammar.MatcherFunc[UserInfo](matchUserinfo))
	headersRule  = grammar.Named("headers", grammar.MatcherFunc[[]RawHeader](matchHeaders))
	headerRule   = grammar.Named("header", grammar.MatcherFunc[RawHeader](matchHeader))
)

var (
	opaqueChars     = newOpaqueChars()
	bareOpaqueChars = opaqueChars.Without(";,?")
)

// newOpaqueChars returns visible ASCII without the characters delimiting a URI in header values.
func newOpaqueChars() *grammar.CharSet {
	var set grammar.CharSet
	for c := 0x21; c < 0x7f; c++ {
		set[c] = true
	}
	return set.Without(`<>"`)
}

func matchBareURI(cur *grammar.Cursor, sink grammar.Sink[URI]) bool {
	return matchURIWith(cur, sink, bareOpaqueChars)
}

func matchURIWith(cur *grammar.Cursor, sink grammar.Sink[URI], opaque *grammar.CharSet) bool {
	pos := cur.Pos()
	scheme, ok := grammar.Read(cur, schemeName)
	if !ok {
		return false
	}

	var u URI
	switch scheme {
	case "sip", "sips":
		var sip *SIP
		if sip, ok = readSIP(cur, scheme == "sips"); ok {
			u = sip
		}
	default:
		var a *Any
		if a, ok = readAny(cur, scheme, opaque); ok {
			u = a
		}
	}
	if !ok {
		cur.SetPos(pos)
		return false
	}
	sink.Set(u)
	return true
}

func matchSIPOnly(cur *grammar.Cursor, sink grammar.Sink[*SIP]) bool {
	pos := cur.Pos()
	scheme, ok := grammar.Read(cur, schemeName)
	if !ok || (scheme != "sip" && scheme != "sips") {
		cur.SetPos(pos)
		return false
	}
	u, ok := readSIP(cur, scheme == "sips")
	if !ok {
		cur.SetPos(pos)
		return false
	}
	sink.Set(u)
	return true
}

// readSIP reads [ userinfo ] hostport uri-parameters [ headers ] following the scheme.
func readSIP(cur *grammar.Cursor, secured bool) (*SIP, bool) {
	pos := cur.Pos()
	u := &SIP{secured: secured}
	u.user, _ = grammar.Read(cur, userinfoRule)

	ep, ok := grammar.Read(cur, grammar.HostPort)
	if !ok {
		cur.SetPos(pos)
		return nil, false
	}
	u.addr = types.FromEndpoint(ep)

	if u.params, ok = grammar.Read(cur, param.URIParams); !ok {
		cur.SetPos(pos)
		return nil, false
	}
	u.headers, _ = grammar.Read(cur, headersRule)
	if cur.Err() != nil {
		cur.SetPos(pos)
		return nil, false
	}
	return u, true
}

func matchUserinfo(cur *grammar.Cursor, sink grammar.Sink[UserInfo]) bool {
	pos := cur.Pos()
	if !grammar.Skip(cur, userText) {
		return false
	}
	usrEnd := cur.Pos()

	var ui UserInfo
	passwdStart := usrEnd
	if grammar.Skip(cur, grammar.Colon) {
		passwdStart = cur.Pos()
		grammar.Skip(cur, passwdText)
		ui.hasPasswd = true
	}
	passwdEnd := cur.Pos()
	if !grammar.Skip(cur, grammar.At) {
		cur.SetPos(pos)
		return false
	}

	var ok bool
	if ui.usrname, ok = cur.Decode(pos, usrEnd); ok {
		ui.passwd, ok = cur.Decode(passwdStart, passwdEnd)
	}
	if !ok {
		cur.SetPos(pos)
		return false
	}
	sink.Set(ui)
	return true
}

func matchHeaders(cur *grammar.Cursor, sink grammar.Sink[[]RawHeader]) bool {
	pos := cur.Pos()
	if !grammar.Skip(cur, grammar.Question) {
		return false
	}

	h, ok := grammar.Read(cur, headerRule)
	if !ok {
		cur.SetPos(pos)
		return false
	}
	hdrs := []RawHeader{h}
	for {
		next := cur.Pos()
		if !grammar.Skip(cur, grammar.Amp) {
			break
		}
		if h, ok = grammar.Read(cur, headerRule); !ok {
			cur.SetPos(next)
			break
		}
		hdrs = append(hdrs, h)
	}
	if cur.Err() != nil {
		cur.SetPos(pos)
		return false
	}
	sink.Set(hdrs)
	return true
}

func matchHeader(cur *grammar.Cursor, sink grammar.Sink[RawHeader]) bool {
	pos := cur.Pos()
	name, ok := grammar.Read(cur, hnameText)
	if !ok {
		return false
	}
	if !grammar.Skip(cur, grammar.Equal) {
		cur.SetPos(pos)
		return false
	}
	valStart := cur.Pos()
	grammar.Skip(cur, hvalueText)
	val, ok := cur.Decode(valStart, cur.Pos())
	if !ok {
		cur.SetPos(pos)
		return false
	}
	sink.Set(RawHeader{Name: name, Value: val})
	return true
}

// readAny reads the opaque part of a non-SIP URI and validates it with [url.Parse].
func readAny(cur *grammar.Cursor, scheme string, opaque *grammar.CharSet) (*Any, bool) {
	pos := cur.Pos()
	rest, ok := grammar.Read(cur, grammar.Chars(opaque))
	if !ok {
		return nil, false
	}
	u, err := url.Parse(scheme + ":" + rest)
	if err != nil {
		cur.SetPos(pos)
		return nil, false
	}
	return &Any{url: *u}, true
}
