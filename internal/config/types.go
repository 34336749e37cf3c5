package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/filter"
	"github.com/xvzc/ipksniff/internal/packet"
	"github.com/xvzc/ipksniff/internal/ptr"
)

type merger[T any] interface {
	Clone() T
	Merge(overrides T) T
}

// ┌─────────────────┐
// │ GENERAL OPTIONS │
// └─────────────────┘
var _ merger[*GeneralOptions] = (*GeneralOptions)(nil)

type GeneralOptions struct {
	LogLevel *zerolog.Level `toml:"log-level"`
	LogFile  *string        `toml:"log-file"`
	Color    *bool          `toml:"color"`
}

func (o *GeneralOptions) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("'general' must be table type")
	}

	if p := findFrom(m, "log-level", parseStringFn(checkLogLevel), &err); isOk(p, err) {
		o.LogLevel = ptr.Of(MustParseLogLevel(*p))
	}

	o.LogFile = findFrom(m, "log-file", parseStringFn(nil), &err)
	o.Color = findFrom(m, "color", parseBoolFn(), &err)

	return err
}

func (o *GeneralOptions) Clone() *GeneralOptions {
	if o == nil {
		return nil
	}

	return &GeneralOptions{
		LogLevel: ptr.Clone(o.LogLevel),
		LogFile:  ptr.Clone(o.LogFile),
		Color:    ptr.Clone(o.Color),
	}
}

func (origin *GeneralOptions) Merge(overrides *GeneralOptions) *GeneralOptions {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &GeneralOptions{
		LogLevel: ptr.CloneOr(overrides.LogLevel, origin.LogLevel),
		LogFile:  ptr.CloneOr(overrides.LogFile, origin.LogFile),
		Color:    ptr.CloneOr(overrides.Color, origin.Color),
	}
}

// ┌─────────────────┐
// │ CAPTURE OPTIONS │
// └─────────────────┘
var _ merger[*CaptureOptions] = (*CaptureOptions)(nil)

// NoInterface is the interface value that selects device listing.
const NoInterface = "none"

type CaptureOptions struct {
	Interface *string         `toml:"-"`
	Port      *uint16         `toml:"-"`
	TCP       *bool           `toml:"-"`
	UDP       *bool           `toml:"-"`
	ICMP      *bool           `toml:"-"`
	ARP       *bool           `toml:"-"`
	Count     *int            `toml:"count"`
	SnapLen   *int            `toml:"snaplen"`
	Timeout   *time.Duration  `toml:"timeout"`
	Backend   *packet.Backend `toml:"backend"`
}

// UnmarshalTOML reads the capture defaults. The interface, selectors and
// port are per-run choices and only come from the command line.
func (o *CaptureOptions) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("'capture' must be table type")
	}

	o.Count = findFrom(m, "count", parseIntFn[int](checkPositive), &err)
	o.SnapLen = findFrom(m, "snaplen", parseIntFn[int](checkSnapLen), &err)

	if p := findFrom(m, "timeout", parseIntFn[uint16](checkUint16NonZero), &err); isOk(p, err) {
		o.Timeout = ptr.Of(time.Duration(*p) * time.Millisecond)
	}

	if p := findFrom(m, "backend", parseStringFn(checkBackend), &err); isOk(p, err) {
		o.Backend = ptr.Of(MustParseBackend(*p))
	}

	return err
}

func (o *CaptureOptions) Clone() *CaptureOptions {
	if o == nil {
		return nil
	}

	return &CaptureOptions{
		Interface: ptr.Clone(o.Interface),
		Port:      ptr.Clone(o.Port),
		TCP:       ptr.Clone(o.TCP),
		UDP:       ptr.Clone(o.UDP),
		ICMP:      ptr.Clone(o.ICMP),
		ARP:       ptr.Clone(o.ARP),
		Count:     ptr.Clone(o.Count),
		SnapLen:   ptr.Clone(o.SnapLen),
		Timeout:   ptr.Clone(o.Timeout),
		Backend:   ptr.Clone(o.Backend),
	}
}

func (origin *CaptureOptions) Merge(overrides *CaptureOptions) *CaptureOptions {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &CaptureOptions{
		Interface: ptr.CloneOr(overrides.Interface, origin.Interface),
		Port:      ptr.CloneOr(overrides.Port, origin.Port),
		TCP:       ptr.CloneOr(overrides.TCP, origin.TCP),
		UDP:       ptr.CloneOr(overrides.UDP, origin.UDP),
		ICMP:      ptr.CloneOr(overrides.ICMP, origin.ICMP),
		ARP:       ptr.CloneOr(overrides.ARP, origin.ARP),
		Count:     ptr.CloneOr(overrides.Count, origin.Count),
		SnapLen:   ptr.CloneOr(overrides.SnapLen, origin.SnapLen),
		Timeout:   ptr.CloneOr(overrides.Timeout, origin.Timeout),
		Backend:   ptr.CloneOr(overrides.Backend, origin.Backend),
	}
}

// Validate checks the values that can only be judged once every source
// was merged.
func (o *CaptureOptions) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: missing capture options", ErrInvalidArgument)
	}

	if o.Port != nil {
		if err := checkPort(int64(*o.Port)); err != nil {
			return err
		}
	}

	if err := checkPositive(int64(ptr.Deref(o.Count, 0))); err != nil {
		return fmt.Errorf("%w: count %w", ErrInvalidArgument, err)
	}

	if err := checkSnapLen(int64(ptr.Deref(o.SnapLen, 0))); err != nil {
		return fmt.Errorf("%w: snaplen %w", ErrInvalidArgument, err)
	}

	if ptr.Deref(o.Timeout, 0) <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidArgument)
	}

	return nil
}

// Listing reports whether no device was named, which asks for the list of
// available devices instead of a capture.
func (o *CaptureOptions) Listing() bool {
	name := strings.TrimSpace(ptr.Deref(o.Interface, ""))
	return name == "" || strings.EqualFold(name, NoInterface)
}

// Selection returns the selectors in the form the filter builder takes.
func (o *CaptureOptions) Selection() filter.Selection {
	return filter.Selection{
		Port: ptr.Deref(o.Port, 0),
		TCP:  ptr.Deref(o.TCP, false),
		UDP:  ptr.Deref(o.UDP, false),
		ICMP: ptr.Deref(o.ICMP, false),
		ARP:  ptr.Deref(o.ARP, false),
	}
}

// HandleOptions returns how the capture device is opened.
func (o *CaptureOptions) HandleOptions() packet.HandleOptions {
	return packet.HandleOptions{
		SnapLen:     ptr.Deref(o.SnapLen, defaultSnapLen),
		Promiscuous: true,
		Timeout:     ptr.Deref(o.Timeout, defaultTimeout),
	}
}
