package header

//go:generate go tool errtrace -w .

import (
	"context"
	"io"
	"log/slog"
	"net/textproto"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/ioutil"
	"github.com/ghettovoice/sipgrammar/internal/log"
	"github.com/ghettovoice/sipgrammar/internal/types"
	"github.com/ghettovoice/sipgrammar/uri"
)

// RenderOptions contains options for rendering headers and URIs.
type RenderOptions = types.RenderOptions

// ParseOptions contains options for parsing.
type ParseOptions = uri.ParseOptions

// DecodingError reports a malformed percent-encoded sequence in the input.
type DecodingError = grammar.DecodingError

// TrailingInputError reports unconsumed input after a successfully parsed value.
type TrailingInputError = grammar.TrailingInputError

const (
	// ErrEmptyInput is returned when parsing an empty input.
	ErrEmptyInput = grammar.ErrEmptyInput
	// ErrMalformedInput is returned when the input does not match the header grammar.
	ErrMalformedInput = grammar.ErrMalformedInput
)

// Header represents a generic SIP header.
type Header interface {
	types.Renderer
	types.Cloneable[Header]
	types.ValidFlag
	types.Equalable
	CanonicName() Name
	RenderValue() string
}

// Name represents a SIP header name.
type Name string

// ToCanonic converts the Name to its canonical form.
func (n Name) ToCanonic() Name { return CanonicName(n) }

// IsValid checks whether the Name is syntactically valid.
func (n Name) IsValid() bool { return grammar.IsToken(n) }

// Equal compares header names case-insensitively.
func (n Name) Equal(val any) bool {
	var other Name
	switch v := val.(type) {
	case Name:
		other = v
	case *Name:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return CanonicName(n) == CanonicName(other)
}

var hdrNames = map[string]Name{
	"f":       "From",
	"m":       "Contact",
	"t":       "To",
	"Call-Id": "Call-ID",
	"Cseq":    "CSeq",
}

// CanonicName converts name to the canonical form.
// The first letter and any letter following a hyphen are converted to upper case, the rest to lower case,
// e.g. "history-info" becomes "History-Info". Compact names are expanded.
func CanonicName[T ~string](name T) Name {
	s := strings.TrimSpace(string(name))
	if n, ok := hdrNames[s]; ok {
		return n
	}

	s = textproto.CanonicalMIMEHeaderKey(s)
	if n, ok := hdrNames[s]; ok {
		return n
	}
	return Name(s)
}

func renderHdrEntries[E any](w io.Writer, entries []E, compact bool) (num int, err error) {
	sep := ", "
	if compact {
		sep = ","
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for i := range entries {
		if i > 0 {
			cw.WriteString(sep)
		}
		cw.Fprint(entries[i])
	}
	return errtrace.Wrap2(cw.Result())
}

func parse[T any, S constraints.Byteseq](s S, m grammar.Matcher[T], opts *ParseOptions) (T, error) {
	logger := opts.GetLogger()
	v, err := grammar.Parse(s, m, logger)
	if err != nil {
		if logger.Enabled(context.Background(), slog.LevelWarn) {
			logger.LogAttrs(context.Background(), slog.LevelWarn, "header parse failed",
				slog.Any("input", log.StringValue(s)),
				slog.Any("error", err),
			)
		}
		return v, errtrace.Wrap(err)
	}
	return v, nil
}
