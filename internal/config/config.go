package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/packet"
	"github.com/xvzc/ipksniff/internal/ptr"
)

var (
	ErrInvalidPort     = errors.New("port number is not in <1, 65535> range")
	ErrInvalidArgument = errors.New("invalid argument")
)

const (
	defaultCount         = 1
	defaultSnapLen       = 65535
	defaultTimeoutMillis = 100
	defaultTimeout       = defaultTimeoutMillis * time.Millisecond
	minSnapLen           = 128
	maxSnapLen           = 262144
)

var _ merger[*Config] = (*Config)(nil)

type Config struct {
	General *GeneralOptions `toml:"general"`
	Capture *CaptureOptions `toml:"capture"`
}

// NewConfig returns the built-in defaults. Every field is set.
func NewConfig() *Config {
	return &Config{
		General: &GeneralOptions{
			LogLevel: ptr.Of(zerolog.InfoLevel),
			LogFile:  ptr.Of(""),
			Color:    ptr.Of(false),
		},
		Capture: &CaptureOptions{
			Interface: ptr.Of(NoInterface),
			Port:      nil,
			TCP:       ptr.Of(false),
			UDP:       ptr.Of(false),
			ICMP:      ptr.Of(false),
			ARP:       ptr.Of(false),
			Count:     ptr.Of(defaultCount),
			SnapLen:   ptr.Of(defaultSnapLen),
			Timeout:   ptr.Of(defaultTimeout),
			Backend:   ptr.Of(packet.BackendPcap),
		},
	}
}

func (c *Config) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("non-table type config")
	}

	c.General = findStructFrom[GeneralOptions](m, "general", &err)
	c.Capture = findStructFrom[CaptureOptions](m, "capture", &err)

	return err
}

func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	return &Config{
		General: c.General.Clone(),
		Capture: c.Capture.Clone(),
	}
}

// Merge returns a new Config where every option set in overrides wins over
// the one in origin.
func (origin *Config) Merge(overrides *Config) *Config {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &Config{
		General: origin.General.Merge(overrides.General),
		Capture: origin.Capture.Merge(overrides.Capture),
	}
}

func (c *Config) Validate() error {
	return c.Capture.Validate()
}
