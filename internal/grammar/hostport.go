package grammar

import (
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// Endpoint is the value produced by [HostPort].
type Endpoint struct {
	Host    string
	Port    uint16
	HasPort bool
}

// Host matches hostname / IPv4address / IPv6reference.
// IPv6 references are produced with the enclosing brackets.
var Host Matcher[string] = Named("host", First(
	MatcherFunc[string](matchIPv6Ref),
	MatcherFunc[string](matchHostname),
))

// HostPort matches host [ ":" port ].
// A colon that is not followed by a valid port is left unconsumed.
var HostPort Matcher[Endpoint] = Named("hostport", MatcherFunc[Endpoint](matchHostPort))

// Port matches 1*5DIGIT in the range 0..65535.
var Port Matcher[uint16] = Named("port", MatcherFunc[uint16](matchPort))

func matchHostPort(cur *Cursor, sink Sink[Endpoint]) bool {
	host, ok := Read(cur, Host)
	if !ok {
		return false
	}

	ep := Endpoint{Host: host}
	pos := cur.Pos()
	if Skip(cur, Colon) {
		if port, ok := Read(cur, Port); ok {
			ep.Port, ep.HasPort = port, true
		} else {
			cur.SetPos(pos)
		}
	}
	sink.Set(ep)
	return true
}

func matchPort(cur *Cursor, sink Sink[uint16]) bool {
	pos := cur.Pos()
	digits, ok := Read(cur, Chars(DigitChars))
	if !ok {
		return false
	}
	if len(digits) > 5 {
		cur.SetPos(pos)
		return false
	}
	port, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		cur.SetPos(pos)
		return false
	}
	sink.Set(uint16(port))
	return true
}

func matchIPv6Ref(cur *Cursor, sink Sink[string]) bool {
	pos := cur.Pos()
	if !Skip(cur, Char('[')) {
		return false
	}
	addr, ok := Read(cur, Chars(IPv6Chars))
	if !ok || !Skip(cur, Char(']')) || !strings.Contains(addr, ":") || net.ParseIP(addr) == nil {
		cur.SetPos(pos)
		return false
	}
	sink.Set("[" + addr + "]")
	return true
}

func matchHostname(cur *Cursor, sink Sink[string]) bool {
	pos := cur.Pos()
	host, ok := Read(cur, Chars(HostnameChars))
	if !ok {
		return false
	}
	if !isIPv4(host) && !isHostname(host) {
		cur.SetPos(pos)
		return false
	}
	sink.Set(host)
	return true
}

func isIPv4(s string) bool {
	if strings.Trim(s, digitChars+".") != "" {
		return false
	}
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// isHostname checks hostname = *( domainlabel "." ) toplabel [ "." ].
func isHostname(s string) bool {
	if _, ok := dns.IsDomainName(s); !ok {
		return false
	}

	labels := strings.Split(strings.TrimSuffix(s, "."), ".")
	for i, l := range labels {
		if l == "" || l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		if i == len(labels)-1 && !AlphaChars.Contains(l[0]) {
			return false
		}
	}
	return true
}
