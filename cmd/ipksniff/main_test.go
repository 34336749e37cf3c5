package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvzc/ipksniff/internal/config"
	"github.com/xvzc/ipksniff/internal/packet"
	"github.com/xvzc/ipksniff/internal/ptr"
)

type replayHandle struct {
	frames [][]byte
	filter string
	closed bool
}

func (h *replayHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if len(h.frames) == 0 {
		return nil, gopacket.CaptureInfo{}, io.EOF
	}

	data := h.frames[0]
	h.frames = h.frames[1:]

	return data, gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, nil
}

func (h *replayHandle) SetBPFFilter(expr string) error {
	h.filter = expr
	return nil
}

func (h *replayHandle) LinkType() layers.LinkType { return layers.LinkTypeEthernet }

func (h *replayHandle) Close() { h.closed = true }

func udpFrame(t *testing.T) []byte {
	t.Helper()

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		},
		&layers.UDP{SrcPort: 5353, DstPort: 53},
		gopacket.Payload("query"),
	)
	require.NoError(t, err)

	return buf.Bytes()
}

func listOf(names ...string) packet.DeviceLister {
	return func() ([]packet.Device, error) {
		devices := make([]packet.Device, 0, len(names))
		for _, n := range names {
			devices = append(devices, packet.Device{Name: n})
		}
		return devices, nil
	}
}

func captureConfig(iface string, mutate func(o *config.CaptureOptions)) *config.Config {
	cfg := config.NewConfig()
	cfg.Capture.Interface = ptr.Of(iface)
	if mutate != nil {
		mutate(cfg.Capture)
	}

	return cfg
}

func TestApp_ListDevices(t *testing.T) {
	var out bytes.Buffer
	a := &app{logger: zerolog.Nop(), out: &out, list: listOf("eth0", "lo", "any")}

	err := a.run(context.Background(), config.NewConfig())
	require.NoError(t, err)
	assert.Equal(t, "eth0\nlo\nany\n", out.String())
}

func TestApp_Capture(t *testing.T) {
	h := &replayHandle{frames: [][]byte{udpFrame(t), udpFrame(t)}}

	var gotBackend packet.Backend
	var gotDevice string
	var gotOpts packet.HandleOptions

	var out bytes.Buffer
	a := &app{
		logger: zerolog.Nop(),
		out:    &out,
		list:   listOf("lo", "eth0"),
		open: func(b packet.Backend, device string, opts packet.HandleOptions) (packet.Handle, error) {
			gotBackend, gotDevice, gotOpts = b, device, opts
			return h, nil
		},
	}

	cfg := captureConfig("eth0", func(o *config.CaptureOptions) {
		o.Port = ptr.Of(uint16(53))
		o.UDP = ptr.Of(true)
		o.Count = ptr.Of(2)
		o.Backend = ptr.Of(packet.BackendAFPacket)
	})

	err := a.run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, packet.BackendAFPacket, gotBackend)
	assert.Equal(t, "eth0", gotDevice)
	assert.Equal(t, 65535, gotOpts.SnapLen)
	assert.True(t, gotOpts.Promiscuous)
	assert.Equal(t, "(ip or ip6) and (udp and port 53)", h.filter)
	assert.True(t, h.closed)
	assert.Equal(t, 2, strings.Count(out.String(), "[UDP] "))
}

func TestApp_Errors(t *testing.T) {
	errEnum := errors.New("permission denied")

	tcs := []struct {
		name     string
		list     packet.DeviceLister
		open     openFunc
		cfg      *config.Config
		wantCode int
	}{
		{
			name:     "no devices when listing",
			list:     func() ([]packet.Device, error) { return nil, packet.ErrNoDevices },
			cfg:      config.NewConfig(),
			wantCode: exitNoDevices,
		},
		{
			name:     "listing fails",
			list:     func() ([]packet.Device, error) { return nil, errEnum },
			cfg:      config.NewConfig(),
			wantCode: exitInternalError,
		},
		{
			name:     "unknown interface",
			list:     listOf("lo"),
			cfg:      captureConfig("eth9", nil),
			wantCode: exitInvalidInterface,
		},
		{
			name:     "unknown interface without any device",
			list:     func() ([]packet.Device, error) { return nil, packet.ErrNoDevices },
			cfg:      captureConfig("eth0", nil),
			wantCode: exitInvalidInterface,
		},
		{
			name: "device cannot be opened",
			list: listOf("eth0"),
			open: func(packet.Backend, string, packet.HandleOptions) (packet.Handle, error) {
				return nil, errEnum
			},
			cfg:      captureConfig("eth0", nil),
			wantCode: exitInternalError,
		},
		{
			name: "source ends early",
			list: listOf("eth0"),
			open: func(packet.Backend, string, packet.HandleOptions) (packet.Handle, error) {
				return &replayHandle{}, nil
			},
			cfg:      captureConfig("eth0", nil),
			wantCode: exitInternalError,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a := &app{logger: zerolog.Nop(), out: io.Discard, list: tc.list, open: tc.open}

			err := a.run(context.Background(), tc.cfg)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, exitCode(err))
		})
	}
}

func TestApp_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &app{
		logger: zerolog.Nop(),
		out:    io.Discard,
		list:   listOf("eth0"),
		open: func(packet.Backend, string, packet.HandleOptions) (packet.Handle, error) {
			return &replayHandle{}, nil
		},
	}

	err := a.run(ctx, captureConfig("eth0", nil))
	assert.Equal(t, exitInterrupted, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tcs := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"interrupted", context.Canceled, exitInterrupted},
		{"internal", fmt.Errorf("%w: boom", errInternal), exitInternalError},
		{"logged internal", loggedError{fmt.Errorf("%w: boom", errInternal)}, exitInternalError},
		{"no devices", packet.ErrNoDevices, exitNoDevices},
		{"interface", fmt.Errorf("%w: eth9", packet.ErrDeviceNotFound), exitInvalidInterface},
		{"port", fmt.Errorf("%w: 0", config.ErrInvalidPort), exitInvalidPort},
		{"argument", config.ErrInvalidArgument, exitInvalidArguments},
		{"flag parsing", errors.New("flag provided but not defined: -x"), exitInvalidArguments},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}
