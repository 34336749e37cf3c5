package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindDevice(t *testing.T) {
	devices := []Device{{Name: "lo"}, {Name: "eth0", Description: "uplink"}}
	errEnum := errors.New("enumeration failed")

	tcs := []struct {
		name    string
		list    DeviceLister
		input   string
		want    Device
		wantErr error
	}{
		{
			name:  "found",
			list:  func() ([]Device, error) { return devices, nil },
			input: "eth0",
			want:  Device{Name: "eth0", Description: "uplink"},
		},
		{
			name:    "missing",
			list:    func() ([]Device, error) { return devices, nil },
			input:   "wlan0",
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "no devices at all",
			list:    func() ([]Device, error) { return nil, ErrNoDevices },
			input:   "eth0",
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "enumeration error",
			list:    func() ([]Device, error) { return nil, errEnum },
			input:   "eth0",
			wantErr: errEnum,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindDevice(tc.list, tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
