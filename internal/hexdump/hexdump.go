// Package hexdump renders raw frame bytes as fixed-width hex/ASCII rows.
package hexdump

import (
	"fmt"
	"io"
	"strings"
)

const (
	// BytesPerLine is the number of bytes rendered on one row.
	BytesPerLine = 16

	// hexWidth is the width the hex column is padded to, so that the
	// ASCII column starts at the same offset on every row.
	hexWidth = 49

	// gapAfter is the index of the byte followed by the extra space that
	// splits a row into two blocks of eight.
	gapAfter = 7
)

const hexDigits = "0123456789ABCDEF"

// Line is one row of a dump.
type Line struct {
	// Index is the row number. The printed label is Index followed by a
	// literal '0', which equals the byte offset of the row in hex only for
	// the first sixteen rows.
	Index int
	Hex   string
	ASCII string
}

func (l Line) String() string {
	return fmt.Sprintf("0x%03d0: %s %s", l.Index, l.Hex, l.ASCII)
}

// Lines splits data into rows of BytesPerLine bytes. A nil or empty slice
// yields no rows.
func Lines(data []byte) []Line {
	if len(data) == 0 {
		return nil
	}

	lines := make([]Line, 0, (len(data)+BytesPerLine-1)/BytesPerLine)
	for i := 0; i*BytesPerLine < len(data); i++ {
		start := i * BytesPerLine
		end := min(start+BytesPerLine, len(data))

		chunk := data[start:end]
		lines = append(lines, Line{
			Index: i,
			Hex:   formatHex(chunk),
			ASCII: formatASCII(chunk),
		})
	}

	return lines
}

// Write writes every row of data to w, one per line.
func Write(w io.Writer, data []byte) error {
	for _, l := range Lines(data) {
		if _, err := fmt.Fprintln(w, l.String()); err != nil {
			return err
		}
	}

	return nil
}

// String returns the whole dump as one newline-terminated block.
func String(data []byte) string {
	var sb strings.Builder
	_ = Write(&sb, data)
	return sb.String()
}

func formatHex(chunk []byte) string {
	var sb strings.Builder
	sb.Grow(hexWidth)

	for i, c := range chunk {
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0F])
		sb.WriteByte(' ')

		// The gap never follows the first or the last pair of a row.
		if i == gapAfter {
			sb.WriteByte(' ')
		}
	}

	for sb.Len() < hexWidth {
		sb.WriteByte(' ')
	}

	return sb.String()
}

func formatASCII(chunk []byte) string {
	b := make([]byte, len(chunk))
	for i, c := range chunk {
		b[i] = printable(c)
	}

	return string(b)
}

func printable(c byte) byte {
	if c >= 0x21 && c <= 0x7E {
		return c
	}

	return '.'
}
