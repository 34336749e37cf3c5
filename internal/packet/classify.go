package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	// ErrNotEthernet marks frames from a non-Ethernet link. They are
	// ignored.
	ErrNotEthernet = errors.New("not an ethernet frame")

	// ErrNoTransportPorts marks TCP/UDP frames whose transport header
	// could not be decoded into ports. They are skipped.
	ErrNoTransportPorts = errors.New("transport layer does not expose ports")

	// ErrUnsupportedFrame marks frames that are neither IP nor ARP.
	ErrUnsupportedFrame = errors.New("frame is neither ip nor arp")

	// ErrUnsupportedProtocol marks IP frames carrying something other
	// than TCP, UDP, ICMP or ICMPv6.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// IsSkippable reports whether err from Classify means the frame should be
// dropped silently and capture should go on.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotEthernet) || errors.Is(err, ErrNoTransportPorts)
}

type Kind int

const (
	KindTCP Kind = iota
	KindUDP
	KindICMP
	KindICMPv6
	KindARP
)

var kindNames = []string{"TCP", "UDP", "ICMP", "ICMPv6", "ARP"}

func (k Kind) String() string {
	return kindNames[k]
}

// Summary is what a frame is reported as.
type Summary struct {
	Kind      Kind
	Timestamp time.Time

	// Src and Dst are IP addresses, or the sender and target protocol
	// addresses for ARP.
	Src net.IP
	Dst net.IP

	// SrcPort and DstPort are set for TCP and UDP only.
	SrcPort uint16
	DstPort uint16

	// Length is the number of captured bytes.
	Length int
}

// Classify decides how f is reported. Errors matching IsSkippable mean
// the frame carries nothing to report; any other error means the frame
// is outside the protocols this tool understands.
func Classify(f Frame) (Summary, error) {
	if f.LinkType != layers.LinkTypeEthernet {
		return Summary{}, ErrNotEthernet
	}

	p := f.Packet()
	s := Summary{
		Timestamp: f.Timestamp,
		Length:    len(f.Data),
	}

	switch ip := p.NetworkLayer().(type) {
	case *layers.IPv4:
		s.Src, s.Dst = ip.SrcIP, ip.DstIP
		return classifyTransport(p, ip.Protocol, s)
	case *layers.IPv6:
		s.Src, s.Dst = ip.SrcIP, ip.DstIP
		return classifyTransport(p, upperProtocol(p, ip), s)
	}

	if l := p.Layer(layers.LayerTypeARP); l != nil {
		arp := l.(*layers.ARP)
		s.Kind = KindARP
		s.Src = net.IP(arp.SourceProtAddress)
		s.Dst = net.IP(arp.DstProtAddress)
		return s, nil
	}

	return Summary{}, ErrUnsupportedFrame
}

func classifyTransport(p gopacket.Packet, proto layers.IPProtocol, s Summary) (Summary, error) {
	switch proto {
	case layers.IPProtocolTCP, layers.IPProtocolUDP:
		src, dst, ok := transportPorts(p)
		if !ok {
			return Summary{}, ErrNoTransportPorts
		}

		s.Kind = KindTCP
		if proto == layers.IPProtocolUDP {
			s.Kind = KindUDP
		}
		s.SrcPort, s.DstPort = src, dst
		return s, nil

	case layers.IPProtocolICMPv4:
		s.Kind = KindICMP
		return s, nil

	case layers.IPProtocolICMPv6:
		s.Kind = KindICMPv6
		return s, nil

	default:
		return Summary{}, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proto)
	}
}

// transportPorts returns the ports of the decoded transport layer, if it
// is one whose flow endpoints are ports.
func transportPorts(p gopacket.Packet) (src, dst uint16, ok bool) {
	tl := p.TransportLayer()
	if tl == nil {
		return 0, 0, false
	}

	a, b := tl.TransportFlow().Endpoints()
	if !isPort(a) || !isPort(b) {
		return 0, 0, false
	}

	return binary.BigEndian.Uint16(a.Raw()), binary.BigEndian.Uint16(b.Raw()), true
}

func isPort(e gopacket.Endpoint) bool {
	switch e.EndpointType() {
	case layers.EndpointTCPPort, layers.EndpointUDPPort:
		return len(e.Raw()) == 2
	default:
		return false
	}
}

// upperProtocol follows the IPv6 extension header chain to the protocol
// of the payload.
func upperProtocol(p gopacket.Packet, ip *layers.IPv6) layers.IPProtocol {
	proto := ip.NextHeader
	if ip.HopByHop != nil {
		proto = ip.HopByHop.NextHeader
	}

	for _, l := range p.Layers() {
		switch ext := l.(type) {
		case *layers.IPv6HopByHop:
			proto = ext.NextHeader
		case *layers.IPv6Routing:
			proto = ext.NextHeader
		case *layers.IPv6Fragment:
			proto = ext.NextHeader
		case *layers.IPv6Destination:
			proto = ext.NextHeader
		}
	}

	return proto
}
