// Package lookup builds the canonical (port, protocol) to service table from
// registry records.
package lookup

import "strings"

// Protocol is an uppercased transport protocol token. Tokens outside the
// known set are kept as-is rather than rejected.
type Protocol string

// Transport protocols that appear in the IANA registry.
const (
	TCP  Protocol = "TCP"
	UDP  Protocol = "UDP"
	SCTP Protocol = "SCTP"
	DCCP Protocol = "DCCP"
)

// Unrecognized is returned by ResolveFlow when no entry matches.
const Unrecognized = "Unrecognized"

// MaxPort is the highest valid port number.
const MaxPort = 65535

// ParseProtocol normalizes a protocol token.
func ParseProtocol(s string) Protocol {
	return Protocol(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether p is one of the registry's transport protocols.
func (p Protocol) Known() bool {
	switch p {
	case TCP, UDP, SCTP, DCCP:
		return true
	}
	return false
}

// Key identifies a table slot.
type Key struct {
	Port     uint16
	Protocol Protocol
}

// Entry is one resolved mapping.
type Entry struct {
	Protocol Protocol `json:"protocol" msgpack:"protocol"`
	Port     uint16   `json:"port" msgpack:"port"`
	Service  string   `json:"service" msgpack:"service"`
}

// Key returns the entry's table key.
func (e Entry) Key() Key {
	return Key{Port: e.Port, Protocol: e.Protocol}
}
