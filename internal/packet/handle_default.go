//go:build !linux

package packet

import (
	"fmt"
	"net"
)

// NewAFPacketHandle is only implemented on Linux.
func NewAFPacketHandle(iface *net.Interface, _ HandleOptions) (Handle, error) {
	return nil, fmt.Errorf("afpacket on %s: %w", iface.Name, ErrBackendUnsupported)
}
