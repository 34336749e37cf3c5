package packet

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// decodeOptions are used for every frame. Frames are handled one at a
// time and never retained, so lazy decoding without a copy is safe.
var decodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

// Frame is one captured link-layer frame.
type Frame struct {
	Timestamp time.Time
	LinkType  layers.LinkType
	Data      []byte

	packet gopacket.Packet
}

// NewFrame decodes data as a frame of the given link type.
func NewFrame(data []byte, ci gopacket.CaptureInfo, lt layers.LinkType) Frame {
	return Frame{
		Timestamp: ci.Timestamp,
		LinkType:  lt,
		Data:      data,
		packet:    gopacket.NewPacket(data, lt, decodeOptions),
	}
}

// FrameFromPacket wraps a packet that was already decoded by a
// gopacket.PacketSource reading from a handle of link type lt.
func FrameFromPacket(p gopacket.Packet, lt layers.LinkType) Frame {
	return Frame{
		Timestamp: p.Metadata().Timestamp,
		LinkType:  lt,
		Data:      p.Data(),
		packet:    p,
	}
}

// Packet returns the decoded view of the frame.
func (f Frame) Packet() gopacket.Packet {
	if f.packet == nil {
		return gopacket.NewPacket(f.Data, f.LinkType, decodeOptions)
	}

	return f.packet
}
