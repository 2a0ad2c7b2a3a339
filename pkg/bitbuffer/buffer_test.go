package bitbuffer

import (
	"testing"
)

func TestAddBit(t *testing.T) {
	var b Buffer
	for i := 0; i < 12; i++ {
		b.AddBit(1 - i%2)
	}
	if got := b.NumRows(); got != 1 {
		t.Fatalf("NumRows() = %d, want 1", got)
	}
	if got := b.RowLen(0); got != 12 {
		t.Fatalf("RowLen(0) = %d, want 12", got)
	}
	row := b.Row(0)
	if row[0] != 0xAA || row[1] != 0xA0 {
		t.Errorf("Row(0) = %x, want aaa0", row)
	}
	if b.Truncated() {
		t.Error("Truncated() = true on in-capacity input")
	}
}

func TestAddBitSpillsIntoNextSlot(t *testing.T) {
	var b Buffer
	for i := 0; i < RowBytes*8+8; i++ {
		b.AddBit(1)
	}
	if got := b.NumRows(); got != 1 {
		t.Fatalf("NumRows() = %d, want 1", got)
	}
	if got := b.RowLen(0); got != RowBytes*8+8 {
		t.Fatalf("RowLen(0) = %d, want %d", got, RowBytes*8+8)
	}
	if b.Truncated() {
		t.Error("Truncated() = true, spilling is not truncation")
	}
	row := b.Row(0)
	if len(row) != RowBytes+1 || row[RowBytes] != 0xFF {
		t.Errorf("Row(0) len %d last %x, want %d ff", len(row), row[len(row)-1], RowBytes+1)
	}

	// The spilled slot is claimed: the next row lands beyond it.
	b.AddRow()
	b.AddBit(1)
	if got := b.NumRows(); got != 2 {
		t.Fatalf("NumRows() = %d, want 2", got)
	}
	if got := b.Row(1); len(got) != 1 || got[0] != 0x80 {
		t.Errorf("Row(1) = %x, want 80", got)
	}
	if got := b.Row(0); got[RowBytes] != 0xFF {
		t.Errorf("Row(0) spilled byte clobbered: %x", got[RowBytes])
	}
}

func TestAddBitDropsAtCapacity(t *testing.T) {
	var b Buffer
	total := MaxRows * RowBytes * 8
	for i := 0; i < total; i++ {
		b.AddBit(1)
	}
	if b.Truncated() {
		t.Fatal("Truncated() = true before capacity was exceeded")
	}
	b.AddBit(1)
	if got := b.RowLen(0); got != total {
		t.Errorf("RowLen(0) = %d, want %d (overflow bit dropped)", got, total)
	}
	if !b.Truncated() {
		t.Error("Truncated() = false after dropped bit")
	}
}

func TestAddRowExhaustionClearsCurrentRow(t *testing.T) {
	var b Buffer
	for i := 0; i < MaxRows-1; i++ {
		b.AddBit(1)
		b.AddRow()
	}
	b.AddBit(1)
	b.AddBit(1)
	if got := b.NumRows(); got != MaxRows {
		t.Fatalf("NumRows() = %d, want %d", got, MaxRows)
	}
	if b.Truncated() {
		t.Fatal("Truncated() = true before row exhaustion")
	}

	b.AddRow()
	if got := b.NumRows(); got != MaxRows {
		t.Errorf("NumRows() = %d, want %d (no growth past capacity)", got, MaxRows)
	}
	if got := b.RowLen(MaxRows - 1); got != 0 {
		t.Errorf("RowLen(last) = %d, want 0 (overflowing row cleared)", got)
	}
	if !b.Truncated() {
		t.Error("Truncated() = false after row exhaustion")
	}
	// The cleared row is writable again.
	b.AddBit(1)
	if got := b.Row(MaxRows - 1); len(got) != 1 || got[0] != 0x80 {
		t.Errorf("Row(last) = %x, want 80", got)
	}
}

func TestClear(t *testing.T) {
	var b Buffer
	b.Parse("{16}ABCD/{8}55")
	b.AddSync()
	b.Clear()
	if b.NumRows() != 0 || b.RowLen(0) != 0 || b.Truncated() {
		t.Errorf("Clear left state: rows=%d len=%d trunc=%v", b.NumRows(), b.RowLen(0), b.Truncated())
	}
	b.AddBit(1)
	if got := b.String(); got != "{1}8" {
		t.Errorf("String() after Clear+AddBit = %q, want {1}8", got)
	}
}

func TestAddSync(t *testing.T) {
	var b Buffer
	b.AddSync()
	if got := b.NumRows(); got != 1 {
		t.Fatalf("NumRows() = %d, want 1", got)
	}
	if got := b.SyncsBeforeRow(0); got != 1 {
		t.Errorf("SyncsBeforeRow(0) = %d, want 1", got)
	}
	if got := b.RowLen(0); got != 0 {
		t.Errorf("RowLen(0) = %d, want 0", got)
	}

	// A sync after content starts a fresh row.
	b.AddBit(1)
	b.AddSync()
	b.AddSync()
	if got := b.NumRows(); got != 2 {
		t.Fatalf("NumRows() = %d, want 2", got)
	}
	if got := b.SyncsBeforeRow(1); got != 2 {
		t.Errorf("SyncsBeforeRow(1) = %d, want 2", got)
	}
}

func TestInvert(t *testing.T) {
	var b Buffer
	b.Parse("{12}ABC/{3}E")
	b.Invert()
	if got := b.String(); got != "{12}543/{3}0" {
		t.Errorf("Invert() = %q, want {12}543/{3}0", got)
	}
	// Tail bits of the last byte stay zero.
	if row := b.Row(1); row[0] != 0x00 {
		t.Errorf("Row(1) = %x, want 00", row)
	}
}

func TestExtractBytes(t *testing.T) {
	var b Buffer
	b.Parse("{16}ABCD")

	tests := []struct {
		name string
		pos  int
		bits int
		want []byte
	}{
		{"aligned", 0, 16, []byte{0xAB, 0xCD}},
		{"aligned partial", 8, 8, []byte{0xCD}},
		{"offset 4", 4, 8, []byte{0xBC}},
		{"offset 4 short", 4, 12, []byte{0xBC, 0xD0}},
		{"mask tail", 0, 5, []byte{0xA8}},
		{"offset mask tail", 4, 6, []byte{0xBC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]byte, len(tt.want))
			b.ExtractBytes(0, tt.pos, out, tt.bits)
			for i := range out {
				if out[i] != tt.want[i] {
					t.Fatalf("ExtractBytes(0, %d, %d) = %x, want %x", tt.pos, tt.bits, out, tt.want)
				}
			}
		})
	}
}

func TestSearch(t *testing.T) {
	var b Buffer
	b.Parse("{16}ABCD")

	tests := []struct {
		name        string
		start       int
		pattern     []byte
		patternBits int
		want        int
	}{
		{"at start", 0, []byte{0xAB}, 8, 0},
		{"mid row", 0, []byte{0xCD}, 8, 8},
		{"from offset", 9, []byte{0xCD}, 8, 16}, // past the only match: miss
		{"short pattern", 0, []byte{0xF0}, 2, 6}, // first 11 run in 1010 1011
		{"restart on mismatch", 0, []byte{0x78}, 5, 5}, // 01111 after the partial 0101..
		{"missing", 0, []byte{0xFF}, 8, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Search(0, tt.start, tt.pattern, tt.patternBits); got != tt.want {
				t.Errorf("Search(%d, %x, %d) = %d, want %d", tt.start, tt.pattern, tt.patternBits, got, tt.want)
			}
		})
	}
}

func TestCountRepeats(t *testing.T) {
	var b Buffer
	b.Parse("{8}AA/{8}AB/{8}AA/{12}AA0")
	if got := b.CountRepeats(0, 0); got != 2 {
		t.Errorf("CountRepeats(0, 0) = %d, want 2", got)
	}
	// Prefix mode: the 12-bit row matches on the first 8 bits.
	if got := b.CountRepeats(0, 8); got != 3 {
		t.Errorf("CountRepeats(0, 8) = %d, want 3", got)
	}
}

func TestFindRepeatedRow(t *testing.T) {
	var b Buffer
	b.Parse("{40}AABBCCDDEE/{40}AABBCCDDEE/{40}1122334455/{40}AABBCCDDEE")

	if got := b.FindRepeatedRow(3, 40); got != 0 {
		t.Errorf("FindRepeatedRow(3, 40) = %d, want 0", got)
	}
	if got := b.FindRepeatedRow(4, 40); got != -1 {
		t.Errorf("FindRepeatedRow(4, 40) = %d, want -1", got)
	}
	if got := b.FindRepeatedRow(3, 41); got != -1 {
		t.Errorf("FindRepeatedRow(3, 41) = %d, want -1", got)
	}

	var empty Buffer
	if got := empty.FindRepeatedRow(1, 0); got != -1 {
		t.Errorf("FindRepeatedRow on empty buffer = %d, want -1", got)
	}
}

func TestFindRepeatedPrefix(t *testing.T) {
	var b Buffer
	b.Parse("{24}ABCDEF/{28}ABCDEF0/{24}ABCDEF")

	if got := b.FindRepeatedRow(3, 24); got != -1 {
		t.Errorf("FindRepeatedRow(3, 24) = %d, want -1 (lengths differ)", got)
	}
	if got := b.FindRepeatedPrefix(3, 24); got != 0 {
		t.Errorf("FindRepeatedPrefix(3, 24) = %d, want 0", got)
	}
}

func TestEmptyRowsNeverMatch(t *testing.T) {
	var b Buffer
	b.AddRow()
	b.AddRow()
	if got := b.CountRepeats(0, 0); got != 0 {
		t.Errorf("CountRepeats on empty rows = %d, want 0", got)
	}
	if got := b.FindRepeatedRow(2, 0); got != -1 {
		t.Errorf("FindRepeatedRow on empty rows = %d, want -1", got)
	}
}
