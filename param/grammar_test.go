package param_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/grammar/grammartest"
	"github.com/ghettovoice/sipgrammar/param"
)

func TestURIParams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    string
		wantPos int
	}{
		{"none", "", "", 0},
		{"single flag", ";lr", ";lr", 3},
		{"several", ";transport=tcp;lr;maddr=239.255.255.1;ttl=15?x=y", ";transport=tcp;lr;maddr=239.255.255.1;ttl=15", 44},
		{"decoded", ";a%41=b%20c", ";aA=b c", 11},
		{"special chars", ";x=[::1]:5060;p=a/b&c+$", ";x=[::1]:5060;p=a/b&c+$", 23},
		{"empty value stops", ";lr;x=;y", ";lr", 3},
		{"empty name stops", ";;lr", "", 0},
		{"stops at angle", ";lr>", ";lr", 3},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			cur := grammar.NewCursor(c.input, nil)
			got, ok := grammar.Read(cur, param.URIParams)
			if !ok {
				t.Fatalf("Read(%q, URIParams) ok = false, want true", c.input)
			}
			if got.String() != c.want {
				t.Errorf("Read(%q, URIParams) = %q, want %q", c.input, got, c.want)
			}
			if cur.Pos() != c.wantPos {
				t.Errorf("cur.Pos() = %d, want %d", cur.Pos(), c.wantPos)
			}
		})
	}
}

func TestURIParams_DecodingError(t *testing.T) {
	t.Parallel()

	_, err := grammar.Parse(";lr;a=b%2", param.URIParams, nil)
	var derr *grammar.DecodingError
	if !errors.As(err, &derr) {
		t.Fatalf("grammar.Parse() error = %v, want *grammar.DecodingError", err)
	}
	if derr.Input != ";lr;a=b%2" || derr.Pos != 7 {
		t.Errorf("err = (%q, %d), want (\";lr;a=b%%2\", 7)", derr.Input, derr.Pos)
	}
}

func TestHeaderParams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    param.List
		wantPos int
	}{
		{"none", "", param.List{}, 0},
		{
			"tag",
			";tag=1928301774",
			param.NewList(param.Raw{Name: "tag", Value: param.Token("1928301774")}),
			15,
		},
		{
			"spaces and quotes",
			` ; tag = abc ; note="q \"y\"" ; flag ; received=[2001:db8::1]`,
			param.NewList(
				param.Raw{Name: "tag", Value: param.Token("abc")},
				param.Raw{Name: "note", Value: param.Quoted(`q "y"`)},
				param.Raw{Name: "flag", Value: param.Flag{}},
				param.Raw{Name: "received", Value: param.Token("[2001:db8::1]")},
			),
			61,
		},
		{
			"flag followed by space",
			";lr , <sip:b>",
			param.NewList(param.Raw{Name: "lr", Value: param.Flag{}}),
			3,
		},
		{
			"missing value stops",
			";a=1;b=",
			param.NewList(param.Raw{Name: "a", Value: param.Token("1")}),
			4,
		},
		{
			"unterminated quote stops",
			`;a=1;b="x`,
			param.NewList(param.Raw{Name: "a", Value: param.Token("1")}),
			4,
		},
		{
			"not decoded",
			";a=%41",
			param.NewList(param.Raw{Name: "a", Value: param.Token("%41")}),
			6,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			cur := grammar.NewCursor(c.input, nil)
			got, ok := grammar.Read(cur, param.HeaderParams)
			if !ok {
				t.Fatalf("Read(%q, HeaderParams) ok = false, want true", c.input)
			}
			if !got.Equal(c.want) {
				t.Errorf("Read(%q, HeaderParams) = %q, want %q", c.input, got, c.want)
			}
			if cur.Pos() != c.wantPos {
				t.Errorf("cur.Pos() = %d, want %d", cur.Pos(), c.wantPos)
			}
		})
	}
}

var paramPrefixes = []string{"", ";", " ;", ";lr", ";a=", ";a=\"", ";a=%4"}

func checkParamsAtomic(t *testing.T, s string) {
	t.Helper()
	grammartest.CheckAtomic(t, "URIParams", param.URIParams, s)
	grammartest.CheckAtomic(t, "HeaderParams", param.HeaderParams, s)
}

func TestParams_Atomicity(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(5, 6))
	for range 400 {
		checkParamsAtomic(t, grammartest.RandomInput(rnd, paramPrefixes, "aZ09;=% \t\"\\[]:,<>", 12))
	}
}

func FuzzParams_Atomicity(f *testing.F) {
	for _, s := range paramPrefixes {
		f.Add(s)
	}
	f.Add(` ; tag = abc ; note="q \"y\"" ; flag`)
	f.Fuzz(func(t *testing.T, s string) {
		checkParamsAtomic(t, s)
	})
}
