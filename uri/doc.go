// Package uri parses, manipulates and renders the URIs carried by SIP messages
// according to RFC 3261.
//
// # Overview
//
// Two URI types implement the [URI] interface:
//
//   - [SIP]: SIP and SIPS URIs (sip:, sips:) with userinfo, host:port, parameters and headers.
//   - [Any]: any other scheme (tel:, urn:, http:, ...) kept opaque on top of [net/url.URL].
//
// # Parsing
//
// [Parse] reads the scheme up to the first colon and dispatches on it:
//
//	u, err := uri.Parse("sip:alice@atlanta.com:5060;transport=tcp?subject=project")
//	// u is *uri.SIP
//
//	u, err = uri.Parse("tel:+1-555-0100")
//	// u is *uri.Any
//
// [ParseSIP] accepts SIP and SIPS URIs only. Parsing is strict about the whole input:
// anything left after a valid URI is reported with [*TrailingInputError],
// a malformed percent-escape with [*DecodingError].
// Both are recognised by errors.As and keep the offending position.
//
// Grammar tracing is available by passing a logger with [ParseOptions]:
//
//	u, err := uri.ParseWithOptions(s, &uri.ParseOptions{Logger: slog.Default()})
//
// # SIP URI structure
//
//	sip:user:password@host:port;param1=value1;param2?header1=value1&header2=value2
//
// Userinfo, parameter and header values are stored percent-decoded and are encoded back on render.
// Parameters are a [param.List], kept in wire order; well-known parameters are reached through
// definitions such as [TransportParam] and [LRParam] or helpers like [SIP.Transport].
//
// SIP values are immutable. Build them with [NewSIP] and derive new values with With* methods:
//
//	u := uri.NewSIP(uri.User("alice"), uri.Host("atlanta.com")).
//		WithParam("transport", param.Token("tcp")).
//		WithParam("lr", param.Flag{})
//
// SIP URI equality follows RFC 3261 Section 19.1.4.
//
// # Serialization
//
// URI types implement [encoding.TextMarshaler] and [encoding.TextUnmarshaler].
// Use the concrete types (*SIP, *Any) in struct fields for unmarshalling.
package uri
