package uri

//go:generate go tool errtrace -w .

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/errorutil"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/log"
	"github.com/ghettovoice/sipgrammar/internal/types"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Addr represents a network address consisting of a host and optional port.
type Addr = types.Addr

// Host creates an Addr from a hostname without a port.
func Host(host string) Addr { return types.Host(host) }

// HostPort creates an Addr from a hostname and port.
func HostPort(host string, port uint16) Addr { return types.HostPort(host, port) }

// ParseAddr parses a network address from the given input s (string or []byte).
func ParseAddr[T constraints.Byteseq](s T) (Addr, error) { return errtrace.Wrap2(types.ParseAddr(s)) }

// RenderOptions contains options for rendering URIs and headers.
type RenderOptions = types.RenderOptions

// DecodingError reports a malformed percent-encoded sequence in the input.
type DecodingError = grammar.DecodingError

// TrailingInputError reports unconsumed input after a successfully parsed URI.
type TrailingInputError = grammar.TrailingInputError

const (
	// ErrEmptyInput is returned when parsing an empty input.
	ErrEmptyInput = grammar.ErrEmptyInput
	// ErrMalformedInput is returned when the input does not match the URI grammar.
	ErrMalformedInput = grammar.ErrMalformedInput
)

// URI represents a generic URI (SIP, SIPS, or any other scheme).
// URI values are immutable, With* methods return modified copies.
type URI interface {
	types.Renderer
	types.Cloneable[URI]
	types.ValidFlag
	types.Equalable
	// Scheme returns the lower-cased URI scheme.
	Scheme() string
	String() string
}

// ParseOptions contains options for parsing.
type ParseOptions struct {
	// Logger receives grammar tracing at debug level and parse failures at warn level.
	// Nil disables logging.
	Logger *slog.Logger
}

// GetLogger returns the configured logger or a no-op logger.
func (o *ParseOptions) GetLogger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Noop
	}
	return o.Logger
}

// Rule matches scheme ":" scheme-specific-part and produces a [URI].
//
// The scheme is read generically and dispatched:
// "sip" and "sips" produce [*SIP], any other scheme produces [*Any].
var Rule grammar.Matcher[URI] = grammar.Named("URI", grammar.MatcherFunc[URI](matchURI))

// Parse parses any URI from the given input s (string or []byte).
//
// Parsing of:
//   - sip/sips returns [*SIP];
//   - any other URI returns [*Any].
//
// Unconsumed input after a valid URI is reported with [*TrailingInputError],
// a malformed escape sequence with [*DecodingError].
func Parse[T constraints.Byteseq](s T) (URI, error) {
	return errtrace.Wrap2(ParseWithOptions(s, nil))
}

// ParseWithOptions is like [Parse] but accepts parsing options.
func ParseWithOptions[T constraints.Byteseq](s T, opts *ParseOptions) (URI, error) {
	return errtrace.Wrap2(parse(s, Rule, opts))
}

func parse[T any, S constraints.Byteseq](s S, m grammar.Matcher[T], opts *ParseOptions) (T, error) {
	logger := opts.GetLogger()
	v, err := grammar.Parse(s, m, logger)
	if err != nil {
		if logger.Enabled(context.Background(), slog.LevelWarn) {
			logger.LogAttrs(context.Background(), slog.LevelWarn, "URI parse failed",
				slog.Any("input", log.StringValue(s)),
				slog.Any("error", err),
			)
		}
		return v, errtrace.Wrap(err)
	}
	return v, nil
}

// GetScheme returns the scheme of the URI or an empty string for nil.
func GetScheme(u URI) string {
	if u == nil {
		return ""
	}
	return u.Scheme()
}

func newUnexpectURITypeErr(u URI) error {
	return errorutil.NewInvalidArgumentError("unexpected URI type %T", u) //errtrace:skip
}

// GetAddr returns the host part of the URI.
//
// SIP and SIPS URIs return the value of [SIP.Addr],
// Any URI returns concatenated host and path.
// If the URI is nil, an empty string is returned.
// If the URI is of unknown type, a panic is raised.
func GetAddr(u URI) string {
	if u == nil {
		return ""
	}

	switch u := u.(type) {
	case *SIP:
		return u.Addr().String()
	case *Any:
		return u.url.Host + u.url.Path
	default:
		panic(newUnexpectURITypeErr(u))
	}
}

var schemeName = grammar.Named("scheme", grammar.MatcherFunc[string](matchScheme))

func matchScheme(cur *grammar.Cursor, sink grammar.Sink[string]) bool {
	pos := cur.Pos()
	if c, ok := cur.Peek(); !ok || !grammar.AlphaChars.Contains(c) {
		return false
	}
	cur.Next()
	grammar.Skip(cur, grammar.Chars0(grammar.SchemeChars))
	end := cur.Pos()
	if !grammar.Skip(cur, grammar.Colon) {
		cur.SetPos(pos)
		return false
	}
	sink.Set(util.LCase(cur.Text(pos, end)))
	return true
}

func matchURI(cur *grammar.Cursor, sink grammar.Sink[URI]) bool {
	return matchURIWith(cur, sink, opaqueChars)
}
