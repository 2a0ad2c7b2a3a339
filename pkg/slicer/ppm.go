package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// slicePPM handles pulse position coding: the gap after each pulse carries
// the bit. ShortWidth is the nominal 0 gap, LongWidth the nominal 1 gap,
// SyncWidth an optional row-sync gap. With Tolerance > 0 the gaps must fall
// in strict windows; with Tolerance == 0 a raw midpoint classifier is used
// instead. A gap below ResetLimit but outside every window starts a new row
// (a repeat boundary); a gap at or above it ends the message.
func (p *Protocol) slicePPM(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok {
		return 0
	}

	// Band bounds, half-open [lo, hi).
	var zeroL, zeroU, oneL, oneU, syncL, syncU int
	if w.tolerance > 0 {
		zeroL, zeroU = w.short-w.tolerance, w.short+w.tolerance+1
		oneL, oneU = w.long-w.tolerance, w.long+w.tolerance+1
		if w.sync > 0 {
			syncL, syncU = w.sync-w.tolerance, w.sync+w.tolerance+1
		}
	} else {
		// Raw mode: closer to short or to long decides the bit.
		zeroL, zeroU = 0, (w.short+w.long)/2+1
		oneL = zeroU - 1
		if w.sync > 0 {
			oneU = (w.long+w.sync)/2 + 1
			syncL, syncU = oneU-1, w.reset
		} else {
			oneU = w.reset
		}
	}

	events := 0
	for n := 0; n < t.NumPulses; n++ {
		gw := t.Gap[n]
		switch {
		case gw >= zeroL && gw < zeroU:
			p.bits.AddBit(0)
		case gw >= oneL && gw < oneU:
			p.bits.AddBit(1)
		case syncU > 0 && gw >= syncL && gw < syncU:
			p.bits.AddSync()
		case gw < w.reset:
			// Outside every band but not silence: repeat boundary.
			if p.bits.NumRows() > 0 && p.bits.RowLen(p.bits.NumRows()-1) > 0 {
				p.bits.AddRow()
			}
		}
		if (n == t.NumPulses-1 || gw >= w.reset) && p.bits.RowLen(0) > 0 {
			events += p.accountEvent(p.sink, "ppm")
		}
	}
	return events
}
