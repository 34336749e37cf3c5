package packet

import (
	"github.com/google/gopacket/pcap"
)

var _ Handle = (*PcapHandle)(nil)

type PcapHandle struct {
	*pcap.Handle
}

func NewPcapHandle(device string, opts HandleOptions) (*PcapHandle, error) {
	iHandle, err := pcap.NewInactiveHandle(device)
	if err != nil {
		return nil, err
	}
	defer iHandle.CleanUp()

	// max bytes per frame to capture
	if err := iHandle.SetSnapLen(opts.SnapLen); err != nil {
		return nil, err
	}

	if err := iHandle.SetPromisc(opts.Promiscuous); err != nil {
		return nil, err
	}

	// a read returns after this long even when no frame arrived, so the
	// capture loop can notice cancellation
	if err := iHandle.SetTimeout(opts.Timeout); err != nil {
		return nil, err
	}

	handle, err := iHandle.Activate()
	if err != nil {
		return nil, err
	}

	return &PcapHandle{handle}, nil
}

