package bitbuffer

import (
	"testing"
)

func TestManchesterDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		start   int
		max     int
		want    string
		wantPos int
	}{
		// high-low = 0, low-high = 1
		{"basic", "{8}99", 0, 0, "{4}5", 8},  // 10 01 10 01
		{"all ones", "{8}55", 0, 0, "{4}F", 8},
		{"violation stops", "{8}9D", 0, 0, "{2}4", 6}, // 10 01 11 ..
		{"max limits", "{8}99", 0, 2, "{2}4", 4},
		{"offset start", "{10}264", 2, 0, "{4}5", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in, out Buffer
			in.Parse(tt.in)
			pos := in.ManchesterDecode(0, tt.start, &out, tt.max)
			if got := out.String(); got != tt.want || pos != tt.wantPos {
				t.Errorf("ManchesterDecode(%s) = %q pos %d, want %q pos %d",
					tt.in, got, pos, tt.want, tt.wantPos)
			}
		})
	}
}

func TestDifferentialManchesterDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantPos int
	}{
		// cycles: (0,1)=1 (0,0)=0 (1,0)=1
		{"in phase", "{6}48", "{3}A", 6},
		// leading stray half-bit, then (0,0)=0 (1,0)=1 (1,1)=0
		{"phase resync", "{7}96", "{3}4", 7},
		// missing shift: (0,1)=1 (0,0)=0 then the next cycle repeats the level
		{"missing shift stops", "{6}40", "{2}8", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in, out Buffer
			in.Parse(tt.in)
			pos := in.DifferentialManchesterDecode(0, 0, &out, 0)
			if got := out.String(); got != tt.want || pos != tt.wantPos {
				t.Errorf("DifferentialManchesterDecode(%s) = %q pos %d, want %q pos %d",
					tt.in, got, pos, tt.want, tt.wantPos)
			}
		})
	}
}

func TestNRZDecode(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		space bool
		want  string
	}{
		{"nrzm single byte", "{8}B1", false, "{8}E9"},
		{"nrzs single byte", "{8}B1", true, "{8}16"},
		// the level state carries across the byte boundary
		{"nrzm carry", "{12}B1A", false, "{12}E97"},
		{"nrzs carry", "{12}B1A", true, "{12}168"},
		{"multi row", "{8}B1/{8}B1", false, "{8}E9/{8}E9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			b.Parse(tt.in)
			if tt.space {
				b.NRZSDecode()
			} else {
				b.NRZMDecode()
			}
			if got := b.String(); got != tt.want {
				t.Errorf("decode(%s, space=%v) = %q, want %q", tt.in, tt.space, got, tt.want)
			}
		})
	}
}
