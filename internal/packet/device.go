package packet

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket/pcap"
)

var (
	ErrNoDevices      = errors.New("no devices found")
	ErrDeviceNotFound = errors.New("desired interface was not found")
)

// Device is a capture device as reported by libpcap.
type Device struct {
	Name        string
	Description string
	Addresses   []net.IP
}

// DeviceLister enumerates capture devices in a stable order.
type DeviceLister func() ([]Device, error)

// ListDevices returns every device libpcap can open, in libpcap's order.
// It returns ErrNoDevices when the list is empty.
func ListDevices() ([]Device, error) {
	ifaces, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	if len(ifaces) == 0 {
		return nil, ErrNoDevices
	}

	devices := make([]Device, 0, len(ifaces))
	for _, iface := range ifaces {
		d := Device{Name: iface.Name, Description: iface.Description}
		for _, a := range iface.Addresses {
			d.Addresses = append(d.Addresses, a.IP)
		}
		devices = append(devices, d)
	}

	return devices, nil
}

// FindDevice looks name up among the devices returned by list.
func FindDevice(list DeviceLister, name string) (Device, error) {
	devices, err := list()
	if errors.Is(err, ErrNoDevices) {
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	} else if err != nil {
		return Device{}, err
	}

	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}

	return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}
