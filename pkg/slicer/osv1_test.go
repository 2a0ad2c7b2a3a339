package slicer

import (
	"reflect"
	"testing"

	"github.com/openism/pulsewire/pkg/pulse"
)

const osv1HalfBit = 1000

// osv1Train encodes a 32-bit word the way the v1 sensors transmit it: 12
// half-bit preamble pulses, a long sync pulse and gap, then the Manchester
// half-bit stream. When the first data bit is 0 its low first half-bit is
// absorbed into the sync gap.
func osv1Train(word uint32) *pulse.Train {
	const hb = osv1HalfBit
	t := &pulse.Train{SampleRate: 1000000}
	for i := 0; i < 11; i++ {
		t.Add(hb, hb)
	}
	t.Add(hb, 3*hb+hb/2) // 12th preamble pulse, long gap opens the sync

	var levels []int
	for i := 31; i >= 0; i-- {
		b := int(word >> uint(i) & 1)
		levels = append(levels, b, 1-b)
	}
	syncPulse := 3*hb + hb/2
	syncGap := 3 * hb
	if levels[0] == 0 {
		syncGap = syncPulse + hb // carries the first half-bit
		levels = levels[1:]
	}
	t.Add(syncPulse, syncGap)

	// Run-length encode the half-bit levels; the stream starts high.
	var widths []int
	for i := 0; i < len(levels); {
		j := i
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		widths = append(widths, (j-i)*hb)
		i = j
	}
	for k := 0; k < len(widths); k += 2 {
		gap := 100000
		if k+1 < len(widths) {
			gap = widths[k+1]
		}
		t.Add(widths[k], gap)
	}
	return t
}

func newOSV1Protocol(sink Sink) *Protocol {
	return newTestProtocol(Spec{
		Name: "osv1", Modulation: ModOSV1,
		ShortWidth: osv1HalfBit, ResetLimit: 10000,
	}, sink)
}

func TestOSV1(t *testing.T) {
	tests := []struct {
		name string
		word uint32
	}{
		{"first bit one", 0xAB4F01E3},
		{"first bit zero rides the sync gap", 0x2B4F01E3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newCaptureSink()
			p := newOSV1Protocol(sink)
			if got := p.Slice(osv1Train(tt.word)); got != 1 {
				t.Fatalf("Slice() = %d, want 1", got)
			}
			wantFrame := ""
			for shift := 28; shift >= 0; shift -= 4 {
				wantFrame += string("0123456789ABCDEF"[tt.word>>uint(shift)&0xF])
			}
			if !reflect.DeepEqual(sink.frames, []string{"{32}" + wantFrame}) {
				t.Errorf("frames = %v, want [{32}%s]", sink.frames, wantFrame)
			}
		})
	}
}

func TestOSV1PreambleMismatchAborts(t *testing.T) {
	sink := newCaptureSink()
	p := newOSV1Protocol(sink)

	// Only 11 preamble half-bits before the sync.
	tr := &pulse.Train{SampleRate: 1000000}
	for i := 0; i < 10; i++ {
		tr.Add(osv1HalfBit, osv1HalfBit)
	}
	tr.Add(osv1HalfBit, 3*osv1HalfBit+osv1HalfBit/2)
	tr.Add(3*osv1HalfBit+osv1HalfBit/2, 3*osv1HalfBit)
	tr.Add(osv1HalfBit, 100000)

	if got := p.Slice(tr); got != 0 {
		t.Errorf("Slice() = %d, want 0", got)
	}
	if len(sink.frames) != 0 {
		t.Errorf("frames = %v, want none", sink.frames)
	}
}

func TestOSV1WrongLengthNotDispatched(t *testing.T) {
	sink := newCaptureSink()
	p := newOSV1Protocol(sink)

	// Valid preamble and sync, but the data cuts off early.
	tr := osv1Train(0xAB4F01E3)
	tr.NumPulses -= 4
	tr.Gap[tr.NumPulses-1] = 100000

	if got := p.Slice(tr); got != 0 {
		t.Errorf("Slice() = %d, want 0", got)
	}
	if len(sink.frames) != 0 {
		t.Errorf("frames = %v, want none", sink.frames)
	}
}
