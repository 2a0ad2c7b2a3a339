// Package bitbuffer implements a two-dimensional bit store for demodulated
// message frames. A buffer holds up to MaxRows rows; each row is one logical
// frame (or repeat) of MSB-first bits. Buffers are fixed-capacity scratch
// structures meant to be cleared and refilled once per acquisition cycle.
package bitbuffer

import (
	"math"
)

const (
	// MaxRows is the number of row slots in a buffer.
	MaxRows = 25
	// RowBytes is the byte size of one row slot. A row that outgrows its
	// slot spills into the following unclaimed slots.
	RowBytes = 256
)

// Buffer is a row-oriented bit store. The zero value is an empty buffer.
//
// Capacity violations never fail: bits that cannot be stored are dropped,
// rows that cannot be added clear the current row instead, and the Truncated
// flag records that it happened.
type Buffer struct {
	numRows    int
	freeRow    int // next unclaimed row slot
	bitsPerRow [MaxRows]uint16
	syncs      [MaxRows]uint16
	rowBase    [MaxRows]int // slot index where each logical row starts
	data       [MaxRows * RowBytes]byte
	truncated  bool
}

// Clear zeroes all state.
func (b *Buffer) Clear() {
	*b = Buffer{}
}

// NumRows returns the number of active rows.
func (b *Buffer) NumRows() int { return b.numRows }

// RowLen returns the number of active bits in a row.
func (b *Buffer) RowLen(row int) int {
	if row < 0 || row >= b.numRows {
		return 0
	}
	return int(b.bitsPerRow[row])
}

// SyncsBeforeRow returns the number of sync pulses recorded before a row.
func (b *Buffer) SyncsBeforeRow(row int) int {
	if row < 0 || row >= b.numRows {
		return 0
	}
	return int(b.syncs[row])
}

// Truncated reports whether any capacity violation was recorded since the
// last Clear.
func (b *Buffer) Truncated() bool { return b.truncated }

// rowRegion returns the claimed storage of a row, including slots the row
// spilled into. The tail beyond the active bits is always zero.
func (b *Buffer) rowRegion(row int) []byte {
	if row < 0 || row >= b.numRows {
		return nil
	}
	start := b.rowBase[row] * RowBytes
	end := b.freeRow * RowBytes
	if row+1 < b.numRows {
		end = b.rowBase[row+1] * RowBytes
	}
	return b.data[start:end]
}

// Row returns the active bytes of a row, ceil(bits/8) long.
func (b *Buffer) Row(row int) []byte {
	region := b.rowRegion(row)
	n := (b.RowLen(row) + 7) / 8
	if n > len(region) {
		n = len(region)
	}
	return region[:n]
}

func (b *Buffer) ensureRow() {
	if b.numRows == 0 {
		b.numRows = 1
		b.freeRow = 1
	}
}

// AddBit appends a single bit, MSB-first, to the current row. The first row
// is created automatically. When the row crosses its slot boundary the bits
// spill into the next unclaimed slot; when no slots remain the bit is
// dropped and the truncation flag is set.
func (b *Buffer) AddBit(bit int) {
	b.ensureRow()
	r := b.numRows - 1
	if b.bitsPerRow[r] == math.MaxUint16 {
		b.truncated = true
		return
	}
	col := int(b.bitsPerRow[r]) / 8
	idx := b.rowBase[r]*RowBytes + col
	if idx >= b.freeRow*RowBytes {
		// Row crosses into the next slot; claim it for this row.
		if b.freeRow >= MaxRows {
			b.truncated = true
			return
		}
		b.freeRow++
	}
	if bit != 0 {
		b.data[idx] |= 0x80 >> (b.bitsPerRow[r] % 8)
	}
	b.bitsPerRow[r]++
}

// AddRow finalizes the current row and starts a new one. At row exhaustion
// the current row is cleared instead of growing.
func (b *Buffer) AddRow() {
	b.ensureRow()
	if b.numRows < MaxRows && b.freeRow < MaxRows {
		b.rowBase[b.numRows] = b.freeRow
		b.numRows++
		b.freeRow++
		return
	}
	r := b.numRows - 1
	start := b.rowBase[r] * RowBytes
	for i := start; i < b.freeRow*RowBytes; i++ {
		b.data[i] = 0
	}
	b.bitsPerRow[r] = 0
	b.syncs[r] = 0
	b.freeRow = b.rowBase[r] + 1
	b.truncated = true
}

// AddSync increments the pending row's sync counter. A row that already has
// content is finalized first: sync pulses always start a fresh row.
func (b *Buffer) AddSync() {
	b.ensureRow()
	if b.bitsPerRow[b.numRows-1] > 0 {
		b.AddRow()
	}
	b.syncs[b.numRows-1]++
}

// Invert flips every active bit in place. The unused tail bits of the last
// byte of each row stay zero.
func (b *Buffer) Invert() {
	for row := 0; row < b.numRows; row++ {
		n := int(b.bitsPerRow[row])
		if n == 0 {
			continue
		}
		region := b.rowRegion(row)
		lastCol := (n - 1) / 8
		lastBits := (n-1)%8 + 1
		for col := 0; col <= lastCol; col++ {
			region[col] = ^region[col]
		}
		region[lastCol] ^= 0xFF >> lastBits
	}
}

// ExtractBytes copies a (possibly unaligned) bit run from a row into out.
// out must hold at least ceil(bits/8) bytes; trailing bits of the last byte
// beyond the requested length are masked to zero.
func (b *Buffer) ExtractBytes(row, pos int, out []byte, bits int) {
	if bits <= 0 {
		return
	}
	region := b.rowRegion(row)
	nBytes := (bits + 7) / 8
	if pos&7 == 0 {
		src := pos / 8
		for i := 0; i < nBytes; i++ {
			out[i] = byteAt(region, src+i)
		}
	} else {
		shift := 8 - pos&7
		src := pos / 8
		word := uint16(byteAt(region, src))
		for i := 0; i < nBytes; i++ {
			src++
			word = word<<8 | uint16(byteAt(region, src))
			out[i] = byte(word >> shift)
		}
	}
	if bits%8 != 0 {
		out[nBytes-1] &= 0xFF << (8 - bits%8)
	}
}

// Search scans a row for a bit pattern, restarting on mismatch, and returns
// the bit position of the first match. The pattern starts in the high bit
// of pattern[0]. When the pattern is not found the row's total bit length
// is returned: callers must compare the result against RowLen.
func (b *Buffer) Search(row, start int, pattern []byte, patternBits int) int {
	n := b.RowLen(row)
	region := b.rowRegion(row)
	ipos, ppos := start, 0
	for ipos < n && ppos < patternBits {
		if bitAt(region, ipos) == bitAt(pattern, ppos) {
			ppos++
			ipos++
			if ppos == patternBits {
				return ipos - patternBits
			}
		} else {
			ipos += -ppos + 1
			ppos = 0
		}
	}
	return n
}

func (b *Buffer) rowsEqual(rowA, rowB, maxBits int) bool {
	lenA, lenB := int(b.bitsPerRow[rowA]), int(b.bitsPerRow[rowB])
	if lenA == 0 || lenB == 0 {
		return false
	}
	a, c := b.rowRegion(rowA), b.rowRegion(rowB)
	if maxBits > 0 && lenA >= maxBits && lenB >= maxBits {
		// Prefix compare, ignoring trailing bits.
		whole := maxBits / 8
		for i := 0; i < whole; i++ {
			if byteAt(a, i) != byteAt(c, i) {
				return false
			}
		}
		if rest := maxBits % 8; rest != 0 {
			mask := byte(0xFF << (8 - rest))
			return byteAt(a, whole)&mask == byteAt(c, whole)&mask
		}
		return true
	}
	if lenA != lenB {
		return false
	}
	for i := 0; i < (lenA+7)/8; i++ {
		if byteAt(a, i) != byteAt(c, i) {
			return false
		}
	}
	return true
}

// CountRepeats returns the number of rows, including row itself, that match
// it. With maxBits > 0 rows of at least that length are compared by prefix
// only, so fixed-length payloads match across variable trailing padding.
func (b *Buffer) CountRepeats(row, maxBits int) int {
	cnt := 0
	for i := 0; i < b.numRows; i++ {
		if b.rowsEqual(row, i, maxBits) {
			cnt++
		}
	}
	return cnt
}

func (b *Buffer) findRepeated(minRepeats, minBits, maxBits int) int {
	for i := 0; i < b.numRows; i++ {
		if int(b.bitsPerRow[i]) >= minBits && b.CountRepeats(i, maxBits) >= minRepeats {
			return i
		}
	}
	return -1
}

// FindRepeatedRow returns the first row of at least minBits bits that is
// repeated, in full, at least minRepeats times, or -1.
func (b *Buffer) FindRepeatedRow(minRepeats, minBits int) int {
	return b.findRepeated(minRepeats, minBits, 0)
}

// FindRepeatedPrefix is FindRepeatedRow with prefix matching over the first
// minBits bits.
func (b *Buffer) FindRepeatedPrefix(minRepeats, minBits int) int {
	return b.findRepeated(minRepeats, minBits, minBits)
}

func bitAt(bytes []byte, idx int) byte {
	if idx < 0 || idx>>3 >= len(bytes) {
		return 0
	}
	return bytes[idx>>3] >> (7 - idx&7) & 1
}

func byteAt(bytes []byte, idx int) byte {
	if idx < 0 || idx >= len(bytes) {
		return 0
	}
	return bytes[idx]
}
