package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	v := String()

	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+$`), v)
}
