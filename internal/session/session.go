// Package session carries per-run values through a context.
package session

import (
	"context"
	"math/rand"
)

type (
	runIDCtxKey  struct{}
	deviceCtxKey struct{}
)

// WithNewRunID ensures a run ID is present in the context. An existing
// one is kept.
func WithNewRunID(ctx context.Context) context.Context {
	if _, ok := RunIDFrom(ctx); ok {
		return ctx
	}

	return context.WithValue(ctx, runIDCtxKey{}, generateRunID())
}

// RunIDFrom extracts the run ID from the context, if one exists.
func RunIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDCtxKey{}).(string)
	return id, ok
}

// WithDevice returns a new context carrying the capture device name.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceCtxKey{}, device)
}

// DeviceFrom extracts the capture device name from the context.
func DeviceFrom(ctx context.Context) (string, bool) {
	device, ok := ctx.Value(deviceCtxKey{}).(string)
	return device, ok
}

// generateRunID returns 8 lowercase hex characters.
func generateRunID() string {
	b := make([]byte, 8)

	q := rand.Uint32()
	for i := 7; i >= 0; i-- {
		r := uint8(q & 0xF)
		q >>= 4
		if r > 9 {
			r += 0x27 // 'a' - 10 - '0'
		}
		b[i] = r + 0x30
	}

	return string(b)
}
