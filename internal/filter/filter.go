// Package filter turns protocol and port selectors into a libpcap filter
// expression.
package filter

import (
	"fmt"
	"strings"
)

const (
	baseClause = "(ip or ip6)"

	clauseTCP  = "tcp"
	clauseUDP  = "udp"
	clauseICMP = "icmp or icmp6"
	clauseARP  = "arp"
)

// AdvisoryPortIgnoresARPICMP is reported when a port is combined with the
// ARP or ICMP selector.
const AdvisoryPortIgnoresARPICMP = "cannot filter ARP/ICMP by port number, " +
	"the corresponding selectors are ignored"

// Selection is the subset of capture options a filter is derived from.
// The selectors are independent; any combination may be set.
type Selection struct {
	// Port is 0 when no port was given.
	Port uint16
	TCP  bool
	UDP  bool
	ICMP bool
	ARP  bool
}

func (s Selection) noneSelected() bool {
	return !s.TCP && !s.UDP && !s.ICMP && !s.ARP
}

// Expression is a filter in libpcap grammar.
type Expression struct {
	Text string

	// Advisories lists adjustments made to the requested selection.
	Advisories []string
}

func (e Expression) String() string {
	return e.Text
}

// Build never fails. Selections that cannot be honored are widened and
// described in Expression.Advisories.
//
// The IP base clause appears exactly once. With nothing selected it is a
// disjunct and the filter captures everything; otherwise it is a conjunct
// of the IP protocol clauses so that only the selected traffic passes.
func Build(s Selection) Expression {
	if s.Port == 0 && s.noneSelected() {
		clauses := []string{baseClause, clauseTCP, clauseUDP, clauseICMP, clauseARP}
		return Expression{Text: strings.Join(clauses, " or ")}
	}

	if s.Port != 0 {
		var advisories []string
		if s.ARP || s.ICMP {
			advisories = append(advisories, AdvisoryPortIgnoresARPICMP)
		}

		tcp, udp := s.TCP, s.UDP
		if !tcp && !udp {
			tcp, udp = true, true
		}

		var ports []string
		if tcp {
			ports = append(ports, onPort(clauseTCP, s.Port))
		}
		if udp {
			ports = append(ports, onPort(clauseUDP, s.Port))
		}

		return Expression{
			Text:       overIP(ports),
			Advisories: advisories,
		}
	}

	var protos []string
	if s.TCP {
		protos = append(protos, clauseTCP)
	}
	if s.UDP {
		protos = append(protos, clauseUDP)
	}
	if s.ICMP {
		protos = append(protos, clauseICMP)
	}

	switch {
	case len(protos) == 0:
		// arp only
		return Expression{Text: fmt.Sprintf("%s and not %s", clauseARP, baseClause)}
	case s.ARP:
		return Expression{Text: fmt.Sprintf("(%s) or %s", overIP(protos), clauseARP)}
	default:
		return Expression{Text: overIP(protos)}
	}
}

func onPort(proto string, port uint16) string {
	return fmt.Sprintf("%s and port %d", proto, port)
}

// overIP restricts the base clause to the given protocol clauses.
func overIP(protos []string) string {
	if len(protos) == 1 {
		return fmt.Sprintf("%s and (%s)", baseClause, protos[0])
	}

	wrapped := make([]string, 0, len(protos))
	for _, p := range protos {
		wrapped = append(wrapped, "("+p+")")
	}

	return fmt.Sprintf("%s and (%s)", baseClause, strings.Join(wrapped, " or "))
}
