package bitbuffer

// ManchesterDecode decodes a row of half-bit levels into data bits, two
// input bits per output bit, per IEEE 802.3 convention: high-low is a 0 bit,
// low-high is a 1 bit. Decoding stops at the first pair of equal half-bits
// (an encoding violation, the implicit end of valid data) or after max
// output bits when max > 0. Returns the position reached in the input row.
func (b *Buffer) ManchesterDecode(row, start int, out *Buffer, max int) int {
	n := b.RowLen(row)
	region := b.rowRegion(row)
	if max > 0 && n > start+max*2 {
		n = start + max*2
	}
	ipos := start
	for ipos < n {
		bit1 := bitAt(region, ipos)
		bit2 := bitAt(region, ipos+1)
		ipos += 2
		if bit1 == bit2 {
			break
		}
		out.AddBit(int(bit2))
	}
	return ipos
}

// DifferentialManchesterDecode decodes a row of half-bit levels where each
// clock cycle begins with a mandatory level shift: a second shift within the
// cycle is a 1, none is a 0. The stream may begin mid-cycle, so the phase is
// fixed from the first half-bits: two equal half-bits can only sit inside a
// zero cycle, never across a cycle boundary. Decoding stops when the
// mandatory shift at a cycle start is missing. Returns the position reached
// in the input row.
func (b *Buffer) DifferentialManchesterDecode(row, start int, out *Buffer, max int) int {
	n := b.RowLen(row)
	region := b.rowRegion(row)
	if max > 0 && n > start+max*2 {
		n = start + max*2
	}
	ipos := start
	if ipos+2 < n &&
		bitAt(region, ipos) != bitAt(region, ipos+1) &&
		bitAt(region, ipos+1) == bitAt(region, ipos+2) {
		// Started mid-cycle: skip the trailing half-bit of the previous cycle.
		ipos++
	}
	var last byte
	first := true
	for ipos+1 < n {
		h1 := bitAt(region, ipos)
		h2 := bitAt(region, ipos+1)
		if !first && h1 == last {
			break // missing clock shift
		}
		first = false
		if h1 == h2 {
			out.AddBit(0)
		} else {
			out.AddBit(1)
		}
		last = h2
		ipos += 2
	}
	return ipos
}

// NRZSDecode decodes the buffer in place as Non-Return-to-Zero Space coded
// data: a level change is a 0, no change is a 1. One bit of state carries
// across byte boundaries; the level before the first bit is taken as 0.
func (b *Buffer) NRZSDecode() {
	b.nrzDecode(true)
}

// NRZMDecode decodes the buffer in place as Non-Return-to-Zero Mark coded
// data: a level change is a 1, no change is a 0.
func (b *Buffer) NRZMDecode() {
	b.nrzDecode(false)
}

func (b *Buffer) nrzDecode(space bool) {
	for row := 0; row < b.numRows; row++ {
		n := int(b.bitsPerRow[row])
		if n == 0 {
			continue
		}
		region := b.rowRegion(row)
		lastCol := (n - 1) / 8
		lastBits := (n-1)%8 + 1
		var msb byte
		for col := 0; col <= lastCol; col++ {
			cur := region[col]
			dec := cur ^ (cur>>1 | msb<<7)
			if space {
				dec = ^dec
			}
			region[col] = dec
			msb = cur & 1
		}
		region[lastCol] &= 0xFF << (8 - lastBits) // clear unused tail bits
	}
}
