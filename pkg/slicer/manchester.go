package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// sliceManchesterZeroBit handles Manchester coding where the first rising
// edge is always counted as a zero bit, a quirk of the target sensor
// family. ShortWidth is the clock half period. The slicer tracks the time
// since the last declared data edge: an edge more than 1.5 half periods
// after the previous one is a data edge (falling = 1, rising = 0), anything
// earlier is the mid-bit return transition. With Tolerance > 0 a pulse or
// gap outside [short-tol, 2*short+tol] breaks the frame: whatever was
// accumulated is dispatched and a fresh frame begins.
func (p *Protocol) sliceManchesterZeroBit(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok {
		return 0
	}
	limit := w.short + w.short/2

	events := 0
	sinceLast := 0
	p.bits.AddBit(0) // hardcoded first bit

	for n := 0; n < t.NumPulses; n++ {
		pw, gw := t.Pulse[n], t.Gap[n]

		if w.tolerance > 0 &&
			(pw < w.short-w.tolerance || pw > 2*w.short+w.tolerance ||
				gw < w.short-w.tolerance ||
				(gw > 2*w.short+w.tolerance && gw < w.reset)) {
			// Off-clock interval: decode what we have, then resync.
			if p.bits.RowLen(0) > 0 {
				events += p.accountEvent(p.sink, "manchester_zerobit")
				p.bits.AddBit(0)
			}
			sinceLast = 0
			continue
		}

		// Falling edge at the end of the pulse.
		if pw+sinceLast > limit {
			p.bits.AddBit(1)
			sinceLast = 0
		} else {
			sinceLast += pw
		}

		if (n == t.NumPulses-1 || gw > w.reset) && p.bits.RowLen(0) > 0 {
			events += p.accountEvent(p.sink, "manchester_zerobit")
			p.bits.AddBit(0) // prepare the next message
			sinceLast = 0
			continue
		}

		// Rising edge at the end of the gap.
		if gw+sinceLast > limit {
			p.bits.AddBit(0)
			sinceLast = 0
		} else {
			sinceLast += gw
		}
	}
	return events
}
