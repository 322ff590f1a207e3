package uri

import (
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// RawHeader is a single hname=hvalue pair from the headers part of a SIP URI.
// Value is percent-decoded, Name is kept as it appeared on the wire.
type RawHeader struct {
	Name  string
	Value string
}

// String returns hname=hvalue with the value percent-encoded.
func (h RawHeader) String() string {
	return h.Name + "=" + grammar.Encode(h.Value, shouldEscapeURIHeaderChar)
}

// Equal compares names case-insensitively and values exactly.
func (h RawHeader) Equal(val any) bool {
	var other RawHeader
	switch v := val.(type) {
	case RawHeader:
		other = v
	case *RawHeader:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return util.EqFold(h.Name, other.Name) && h.Value == other.Value
}
