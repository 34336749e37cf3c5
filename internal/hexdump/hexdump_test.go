package hexdump

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	tcs := []struct {
		name   string
		input  []byte
		assert func(t *testing.T, lines []Line)
	}{
		{
			name:  "nil input",
			input: nil,
			assert: func(t *testing.T, lines []Line) {
				assert.Empty(t, lines)
			},
		},
		{
			name:  "empty input",
			input: []byte{},
			assert: func(t *testing.T, lines []Line) {
				assert.Empty(t, lines)
			},
		},
		{
			name:  "three bytes",
			input: []byte{0x41, 0x00, 0x7F},
			assert: func(t *testing.T, lines []Line) {
				require.Len(t, lines, 1)
				assert.Equal(t, 0, lines[0].Index)
				assert.Equal(t, "41 00 7F", strings.TrimSpace(lines[0].Hex))
				assert.Equal(t, "A..", lines[0].ASCII)
			},
		},
		{
			name:  "seventeen bytes",
			input: bytes.Repeat([]byte{0xAB}, 17),
			assert: func(t *testing.T, lines []Line) {
				require.Len(t, lines, 2)
				assert.Len(t, strings.ReplaceAll(lines[0].Hex, " ", ""), 32)
				assert.Len(t, strings.ReplaceAll(lines[1].Hex, " ", ""), 2)
				assert.Len(t, lines[0].ASCII, 16)
				assert.Len(t, lines[1].ASCII, 1)
				assert.Equal(t, 1, lines[1].Index)
			},
		},
		{
			name:  "exactly one row",
			input: []byte("0123456789abcdef"),
			assert: func(t *testing.T, lines []Line) {
				require.Len(t, lines, 1)
				assert.Equal(
					t,
					"30 31 32 33 34 35 36 37  38 39 61 62 63 64 65 66 ",
					lines[0].Hex,
				)
				assert.Equal(t, "0123456789abcdef", lines[0].ASCII)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(t, Lines(tc.input))
		})
	}
}

func TestFormatHex(t *testing.T) {
	tcs := []struct {
		name  string
		input []byte
		want  string
	}{
		{"single byte", []byte{0x0A}, "0A "},
		{"seven bytes has no gap", []byte{1, 2, 3, 4, 5, 6, 7}, "01 02 03 04 05 06 07 "},
		{"eight bytes ends with gap", []byte{1, 2, 3, 4, 5, 6, 7, 8}, "01 02 03 04 05 06 07 08  "},
		{"nine bytes", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, "01 02 03 04 05 06 07 08  09 "},
		{
			"full row has no trailing gap",
			[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0xFF},
			"00 01 02 03 04 05 06 07  08 09 0A 0B 0C 0D 0E FF ",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := formatHex(tc.input)
			assert.Len(t, got, hexWidth)
			assert.Equal(t, fmt.Sprintf("%-49s", tc.want), got)
		})
	}
}

func TestFormatASCII(t *testing.T) {
	in := []byte{0x20, 0x21, 0x7E, 0x7F, 0x80, 0xFF, 'z'}
	assert.Equal(t, ".!~...z", formatASCII(in))
}

func TestLineString(t *testing.T) {
	lines := Lines([]byte("GET / HTTP/1.1\r\nHost: x"))
	require.Len(t, lines, 2)

	assert.Equal(
		t,
		"0x0000: 47 45 54 20 2F 20 48 54  54 50 2F 31 2E 31 0D 0A  GET./.HTTP/1.1..",
		lines[0].String(),
	)
	assert.Equal(
		t,
		"0x0010: 48 6F 73 74 3A 20 78"+strings.Repeat(" ", 30)+"Host:.x",
		lines[1].String(),
	)
}

func TestLabelsUseRowIndex(t *testing.T) {
	lines := Lines(make([]byte, 16*12))
	require.Len(t, lines, 12)

	assert.True(t, strings.HasPrefix(lines[9].String(), "0x0090: "))
	assert.True(t, strings.HasPrefix(lines[10].String(), "0x0100: "))
	assert.True(t, strings.HasPrefix(lines[11].String(), "0x0110: "))
}

func TestAsciiColumnAligned(t *testing.T) {
	lines := Lines(bytes.Repeat([]byte{'x'}, 37))
	require.Len(t, lines, 3)

	for _, l := range lines {
		s := l.String()
		assert.Equal(t, len("0x0000: ")+hexWidth+1, len(s)-len(l.ASCII), s)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []byte{0x41, 0x00, 0x7F}))

	assert.Equal(
		t,
		"0x0000: 41 00 7F"+strings.Repeat(" ", 42)+"A..\n",
		buf.String(),
	)
	assert.Equal(t, buf.String(), String([]byte{0x41, 0x00, 0x7F}))

	buf.Reset()
	require.NoError(t, Write(&buf, nil))
	assert.Empty(t, buf.String())
}
