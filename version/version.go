// Package version holds the release version of ipksniff.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// String returns the release version without surrounding whitespace.
func String() string {
	return strings.TrimSpace(raw)
}
