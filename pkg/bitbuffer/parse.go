package bitbuffer

import (
	"fmt"
	"strings"
)

// Parse appends rows from the textual debug format: optionally 0x-prefixed
// hex nibbles, rows separated by '/' or prefixed with an explicit bit length
// in braces ("{bitlen}hex"), whitespace ignored. An explicit length
// overrides the number of parsed bits for its row. Garbage characters are
// skipped. Used by test and replay paths only, never by live slicing.
func (b *Buffer) Parse(code string) {
	width := -1
	endRow := func(next bool) {
		if width < 0 {
			return
		}
		row := b.numRows - 1
		if next {
			row--
		}
		if row >= 0 {
			b.setRowLen(row, width)
		}
		width = -1
	}
	i := 0
	for i < len(code) {
		c := code[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '0' && i+1 < len(code) && (code[i+1] == 'x' || code[i+1] == 'X'):
			i += 2
		case c == '{':
			if b.numRows == 0 {
				b.ensureRow()
			} else {
				b.AddRow()
				endRow(true)
			}
			j := i + 1
			w := 0
			for ; j < len(code) && code[j] >= '0' && code[j] <= '9'; j++ {
				w = w*10 + int(code[j]-'0')
			}
			width = w
			if j >= len(code) || code[j] != '}' {
				return // no closing brace
			}
			i = j + 1
		case c == '/':
			b.AddRow()
			endRow(true)
			i++
		case hexVal(c) >= 0:
			v := hexVal(c)
			b.AddBit(v >> 3 & 1)
			b.AddBit(v >> 2 & 1)
			b.AddBit(v >> 1 & 1)
			b.AddBit(v & 1)
			i++
		default:
			i++
		}
	}
	endRow(false)
}

// setRowLen forces a row's bit count, e.g. from an explicit "{bitlen}".
// Lengths beyond one row slot are clamped and flagged as truncation.
func (b *Buffer) setRowLen(row, bits int) {
	if bits > RowBytes*8 {
		bits = RowBytes * 8
		b.truncated = true
	}
	if region := b.rowRegion(row); bits > len(region)*8 {
		bits = len(region) * 8
		b.truncated = true
	}
	b.bitsPerRow[row] = uint16(bits)
	// Zero any bits the override cut off so padding stays clean.
	if region := b.rowRegion(row); bits > 0 || len(region) > 0 {
		lastCol := bits / 8
		if bits%8 != 0 {
			region[lastCol] &= 0xFF << (8 - bits%8)
			lastCol++
		}
		for i := lastCol; i < len(region); i++ {
			region[i] = 0
		}
	}
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// String renders the buffer in the debug text format, one "{bitlen}HEX"
// group per row joined by '/'. The output round-trips through Parse
// bit-exactly.
func (b *Buffer) String() string {
	var sb strings.Builder
	for row := 0; row < b.numRows; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		n := int(b.bitsPerRow[row])
		fmt.Fprintf(&sb, "{%d}", n)
		region := b.rowRegion(row)
		for nib := 0; nib < (n+3)/4; nib++ {
			v := byteAt(region, nib/2)
			if nib%2 == 0 {
				v >>= 4
			}
			fmt.Fprintf(&sb, "%X", v&0x0F)
		}
	}
	return sb.String()
}
