package config

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/packet"
)

func checkLogLevel(v string) error {
	if _, err := zerolog.ParseLevel(v); err != nil || v == "" {
		return fmt.Errorf("invalid level string %q", v)
	}

	return nil
}

func checkBackend(v string) error {
	_, err := packet.ParseBackend(v)
	return err
}

func checkPositive(v int64) error {
	if v < 1 {
		return fmt.Errorf("must be positive, got %d", v)
	}

	return nil
}

func checkSnapLen(v int64) error {
	if v < minSnapLen || maxSnapLen < v {
		return fmt.Errorf("out of range[%d-%d]", minSnapLen, maxSnapLen)
	}

	return nil
}

func checkUint16NonZero(v int64) error {
	if v < 1 || math.MaxUint16 < v {
		return fmt.Errorf("out of range[%d-%d]", 1, math.MaxUint16)
	}

	return nil
}

func checkPort(v int64) error {
	if v < 1 || math.MaxUint16 < v {
		return fmt.Errorf("%w: %d", ErrInvalidPort, v)
	}

	return nil
}

func MustParseLogLevel(v string) zerolog.Level {
	level, err := zerolog.ParseLevel(v)
	if err != nil {
		panic(err)
	}

	return level
}

func MustParseBackend(v string) packet.Backend {
	b, err := packet.ParseBackend(v)
	if err != nil {
		panic(err)
	}

	return b
}
