package types

import (
	"net"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// Addr is the hostport part of a SIP URI.
// The host is kept in its wire form, IPv6 references keep their brackets.
type Addr struct {
	ep grammar.Endpoint
}

// Host returns an [Addr] with the given host and no port.
// IPv6 addresses are accepted with or without brackets.
func Host(host string) Addr { return Addr{grammar.Endpoint{Host: wireHost(host)}} }

// HostPort returns an [Addr] with the given host and port.
func HostPort(host string, port uint16) Addr {
	return Addr{grammar.Endpoint{Host: wireHost(host), Port: port, HasPort: true}}
}

func wireHost(host string) string {
	host = strings.Trim(host, "[]")
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// FromEndpoint wraps a matched host[:port].
func FromEndpoint(ep grammar.Endpoint) Addr { return Addr{ep} }

// ParseAddr parses host[:port].
func ParseAddr[T constraints.Byteseq](s T) (Addr, error) {
	ep, err := grammar.Parse(s, grammar.HostPort, nil)
	if err != nil {
		return Addr{}, errtrace.Wrap(err)
	}
	return Addr{ep}, nil
}

// Host returns the host, IPv6 addresses without brackets.
func (addr Addr) Host() string { return strings.Trim(addr.ep.Host, "[]") }

// Port returns the port and whether it is present.
func (addr Addr) Port() (uint16, bool) { return addr.ep.Port, addr.ep.HasPort }

// String renders host[:port].
func (addr Addr) String() string {
	if !addr.ep.HasPort {
		return addr.ep.Host
	}
	return addr.ep.Host + ":" + strconv.Itoa(int(addr.ep.Port))
}

// Equal compares hosts case-insensitively, IP literals by address.
// An explicit port never equals an omitted one.
func (addr Addr) Equal(val any) bool {
	var other Addr
	switch v := val.(type) {
	case Addr:
		other = v
	case *Addr:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	if addr.ep.Port != other.ep.Port || addr.ep.HasPort != other.ep.HasPort {
		return false
	}
	ip1, ip2 := net.ParseIP(addr.Host()), net.ParseIP(other.Host())
	if ip1 != nil || ip2 != nil {
		return ip1.Equal(ip2)
	}
	return util.EqFold(addr.ep.Host, other.ep.Host)
}

// IsValid reports whether the host matches the host grammar.
func (addr Addr) IsValid() bool { return grammar.IsHost(addr.ep.Host) }

// IsZero reports whether the address is empty.
func (addr Addr) IsZero() bool { return addr.ep == grammar.Endpoint{} }
