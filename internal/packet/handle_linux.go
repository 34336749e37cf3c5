//go:build linux

package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/sys/unix"
)

var _ Handle = (*AFPacketHandle)(nil)

// AFPacketHandle reads frames from an AF_PACKET raw socket using
// x/sys/unix, so it works on every Linux architecture.
//
// The socket receives nothing until the first SetBPFFilter call binds it,
// so no frame is queued before the filter is in place.
type AFPacketHandle struct {
	fd      int
	ifIndex int
	snapLen int
	buf     []byte
	bound   bool
}

// NewAFPacketHandle opens an unbound raw socket for iface.
func NewAFPacketHandle(iface *net.Interface, opts HandleOptions) (*AFPacketHandle, error) {
	// protocol 0 delivers no frames until bind
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw socket: %w", err)
	}

	if opts.Promiscuous {
		mreq := &unix.PacketMreq{
			Ifindex: int32(iface.Index),
			Type:    unix.PACKET_MR_PROMISC,
		}
		err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, mreq)
		if err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("failed to enable promiscuous mode: %w", err)
		}
	}

	if opts.Timeout > 0 {
		tv := unix.NsecToTimeval(opts.Timeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	snapLen := opts.SnapLen
	if snapLen <= 0 {
		snapLen = 65535
	}

	return &AFPacketHandle{
		fd:      fd,
		ifIndex: iface.Index,
		snapLen: snapLen,
		buf:     make([]byte, snapLen),
	}, nil
}

// ReadPacketData reads one frame using unix.Recvfrom. The returned
// length is the length on the wire, the data is cut at the snap length.
func (h *AFPacketHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	n, _, err := unix.Recvfrom(h.fd, h.buf, unix.MSG_TRUNC)
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}

	captured := min(n, len(h.buf))
	data := make([]byte, captured)
	copy(data, h.buf[:captured])

	ci := gopacket.CaptureInfo{
		Timestamp:      time.Now(),
		CaptureLength:  captured,
		Length:         n,
		InterfaceIndex: h.ifIndex,
	}

	return data, ci, nil
}

// LinkType is always Ethernet since the socket is bound to one interface.
func (h *AFPacketHandle) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

func (h *AFPacketHandle) Close() {
	_ = unix.Close(h.fd)
}

// SetBPFFilter compiles expr with libpcap and attaches the program to the
// socket, then binds the socket to the interface if it was not bound yet.
// An empty expression detaches any filter.
func (h *AFPacketHandle) SetBPFFilter(expr string) error {
	if err := h.attach(expr); err != nil {
		return err
	}

	return h.bind()
}

func (h *AFPacketHandle) attach(expr string) error {
	if expr == "" {
		return h.clearBPF()
	}

	compiled, err := pcap.CompileBPFFilter(h.LinkType(), h.snapLen, expr)
	if err != nil {
		return err
	}

	raw := make([]BPFInstruction, 0, len(compiled))
	for _, c := range compiled {
		raw = append(raw, BPFInstruction{Op: c.Code, Jt: c.Jt, Jf: c.Jf, K: c.K})
	}

	return h.setBPFRawInstructionFilter(raw)
}

func (h *AFPacketHandle) bind() error {
	if h.bound {
		return nil
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  h.ifIndex,
	}

	if err := unix.Bind(h.fd, sll); err != nil {
		return fmt.Errorf("failed to bind raw socket: %w", err)
	}
	h.bound = true

	return nil
}

func (h *AFPacketHandle) setBPFRawInstructionFilter(raw []BPFInstruction) error {
	if len(raw) == 0 {
		return errors.New("empty bpf program")
	}

	filter := make([]unix.SockFilter, len(raw))
	for i, r := range raw {
		filter[i] = unix.SockFilter{
			Code: r.Op,
			Jt:   r.Jt,
			Jf:   r.Jf,
			K:    r.K,
		}
	}

	fprog := &unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}

	return unix.SetsockoptSockFprog(h.fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, fprog)
}

func (h *AFPacketHandle) clearBPF() error {
	err := unix.SetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_DETACH_FILTER, 0)
	if errors.Is(err, unix.ENOENT) {
		// nothing attached
		return nil
	}

	return err
}

func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}
