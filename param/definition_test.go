package param_test

import (
	"testing"

	"github.com/ghettovoice/sipgrammar/param"
)

func TestDefinition(t *testing.T) {
	t.Parallel()

	l := param.NewList().
		Append("lr", param.Flag{}).
		Append("ttl", param.Token("15")).
		Append("maddr", param.Token("239.255.255.1")).
		Append("big", param.Token("99999999999999999999")).
		Append("q", param.Quoted("7")).
		Append("Tag", param.Flag{})

	lr := param.FlagDef("lr")
	if got, ok := lr.Lookup(l); !ok || !got || !lr.Has(l) {
		t.Errorf("lr.Lookup() = (%v, %v), want (true, true)", got, ok)
	}
	if !param.FlagDef("ttl").Has(l) {
		t.Error("flag definition does not match a valued parameter")
	}
	if param.FlagDef("missing").Has(l) {
		t.Error("missing flag reported as present")
	}

	if got, ok := param.UintDef("TTL").Lookup(l); !ok || got != 15 {
		t.Errorf("ttl = (%d, %v), want (15, true)", got, ok)
	}
	if _, ok := param.UintDef("big").Lookup(l); ok {
		t.Error("overflowing uint decoded")
	}
	if _, ok := param.UintDef("q").Lookup(l); ok {
		t.Error("quoted value decoded as uint")
	}
	if _, ok := param.UintDef("lr").Lookup(l); ok {
		t.Error("flag decoded as uint")
	}

	if got, ok := param.TokenDef("maddr").Lookup(l); !ok || got != "239.255.255.1" {
		t.Errorf("maddr = (%q, %v), want (239.255.255.1, true)", got, ok)
	}
	if got, ok := param.TokenDef("tag").Lookup(l); !ok || got != "" {
		t.Errorf("tag = (%q, %v), want (\"\", true)", got, ok)
	}
	if got, ok := param.TokenDef("q").Lookup(l); !ok || got != "7" {
		t.Errorf("q = (%q, %v), want (7, true)", got, ok)
	}
	if _, ok := param.TokenDef("user").Lookup(l); ok {
		t.Error("missing token reported as present")
	}

	def := param.TokenDef("ftag")
	if def.Name() != "ftag" {
		t.Errorf("def.Name() = %q, want ftag", def.Name())
	}
	if got, ok := def.Decode(param.Raw{Name: "FTAG", Value: param.Token("a1")}); !ok || got != "a1" {
		t.Errorf("def.Decode() = (%q, %v), want (a1, true)", got, ok)
	}
	if _, ok := def.Decode(param.Raw{Name: "tag", Value: param.Token("a1")}); ok {
		t.Error("def.Decode() matched another name")
	}
	if _, ok := (param.Definition[int]{}).Lookup(l); ok {
		t.Error("zero definition matched")
	}

	transport := param.NewDefinition("transport", func(v param.Value) (string, bool) {
		s := param.Text(v)
		return s, s == "udp" || s == "tcp"
	})
	if _, ok := transport.Lookup(param.NewList().Append("transport", param.Token("ws"))); ok {
		t.Error("custom definition accepted an unknown value")
	}
	if got, ok := transport.Lookup(param.NewList().Append("transport", param.Token("udp"))); !ok || got != "udp" {
		t.Errorf("transport = (%q, %v), want (udp, true)", got, ok)
	}
}
