package packet

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var ErrBackendUnsupported = errors.New("capture backend is not supported on this platform")

// Handle is a common interface for both pcap and afpacket (Linux).
type Handle interface {
	// ReadPacketData reads the next frame from the wire.
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)

	// SetBPFFilter installs a filter written in libpcap grammar.
	// An empty expression accepts every frame.
	SetBPFFilter(expr string) error

	LinkType() layers.LinkType

	// Close closes the handle.
	Close()
}

type BPFInstruction struct {
	Op uint16
	Jt uint8
	Jf uint8
	K  uint32
}

type Backend int

const (
	BackendPcap Backend = iota
	BackendAFPacket
)

var availableBackends = []string{"pcap", "afpacket"}

func (b Backend) String() string {
	return availableBackends[b]
}

func ParseBackend(s string) (Backend, error) {
	for i, v := range availableBackends {
		if v == s {
			return Backend(i), nil
		}
	}

	return 0, fmt.Errorf("unknown backend %q, available: %v", s, availableBackends)
}

// HandleOptions controls how a device is opened.
type HandleOptions struct {
	SnapLen     int
	Promiscuous bool
	Timeout     time.Duration
}

// OpenHandle opens the named device with the given backend.
func OpenHandle(backend Backend, device string, opts HandleOptions) (Handle, error) {
	switch backend {
	case BackendPcap:
		h, err := NewPcapHandle(device, opts)
		if err != nil {
			return nil, err
		}
		return h, nil
	case BackendAFPacket:
		iface, err := net.InterfaceByName(device)
		if err != nil {
			return nil, fmt.Errorf("invalid interface name %q: %w", device, err)
		}
		h, err := NewAFPacketHandle(iface, opts)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown backend %d", backend)
	}
}
