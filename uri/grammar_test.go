package uri_test

import (
	"math/rand/v2"
	"testing"

	"github.com/ghettovoice/sipgrammar/internal/grammar/grammartest"
	"github.com/ghettovoice/sipgrammar/uri"
)

const uriAlphabet = "aZ09.-_+:@;=?&%[]<>,/ \"~"

var uriPrefixes = []string{"", "sip:", "sips:", "SIP:alice", "sip:alice:", "sip:[::1", "tel:+1", "urn:x"}

func checkURIAtomic(t *testing.T, s string) {
	t.Helper()
	grammartest.CheckAtomic(t, "Rule", uri.Rule, s)
	grammartest.CheckAtomic(t, "SIPRule", uri.SIPRule, s)
	grammartest.CheckAtomic(t, "BareRule", uri.BareRule, s)
}

func TestRules_Atomicity(t *testing.T) {
	t.Parallel()

	cases := []string{
		"sip:@",
		"sip:alice@",
		"sip:alice:secret@",
		"sip:atlanta.com:",
		"sip:atlanta.com;",
		"sip:atlanta.com;x=",
		"sip:atlanta.com?",
		"sip:atlanta.com?a=%zz",
		"sip:atlanta.com?a=b&",
		"sips:[2001:db8::1",
		"sip:alice@atlanta.com:5060;ftag=abc?Subject=test",
		"tel:",
		"https://example.com/a?b;c,d",
	}
	for _, s := range cases {
		checkURIAtomic(t, s)
	}

	rnd := rand.New(rand.NewPCG(3, 4))
	for range 300 {
		checkURIAtomic(t, grammartest.RandomInput(rnd, uriPrefixes, uriAlphabet, 12))
	}
}

func FuzzRules_Atomicity(f *testing.F) {
	for _, s := range uriPrefixes {
		f.Add(s)
	}
	f.Add("sip:alice@atlanta.com:5060;ftag=abc?Subject=test")
	f.Fuzz(func(t *testing.T, s string) {
		checkURIAtomic(t, s)
	})
}
