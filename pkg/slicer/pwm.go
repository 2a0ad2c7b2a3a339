package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// slicePWM handles pulse width coding: the pulse carries the bit, short = 1
// and long = 0, with an optional third sync width that starts a new row.
// With Tolerance > 0 the pulses must fall in strict windows around the
// nominal widths. With Tolerance == 0 the band layout depends on where the
// sync width sits relative to short and long: the three mutually exclusive
// layouts are sync-shortest, sync-middle and sync-longest.
//
// Pulses below the 1 band's lower threshold are ignored as noise, but only
// when that threshold is nonzero; otherwise an unclassifiable pulse forces
// a new row. A gap above GapLimit starts a new row; above ResetLimit it
// ends the message.
func (p *Protocol) slicePWM(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok {
		return 0
	}

	// Band bounds, open below and above: a pulse matches with lo < p < hi.
	// The 1 band is the short pulse.
	const unbounded = int(^uint(0) >> 1)
	var oneL, oneU, zeroL, zeroU, syncL, syncU int
	switch {
	case w.tolerance > 0:
		oneL, oneU = w.short-w.tolerance, w.short+w.tolerance+1
		zeroL, zeroU = w.long-w.tolerance, w.long+w.tolerance+1
		if w.sync > 0 {
			syncL, syncU = w.sync-w.tolerance, w.sync+w.tolerance+1
		}
	case w.sync <= 0:
		oneL, oneU = 0, (w.short+w.long)/2+1
		zeroL, zeroU = oneU-1, unbounded
	case w.sync < w.short: // sync is shortest
		syncL, syncU = 0, (w.sync+w.short)/2+1
		oneL, oneU = syncU-1, (w.short+w.long)/2+1
		zeroL, zeroU = oneU-1, unbounded
	case w.sync < w.long: // sync is the middle width
		oneL, oneU = 0, (w.short+w.sync)/2+1
		syncL, syncU = oneU-1, (w.sync+w.long)/2+1
		zeroL, zeroU = syncU-1, unbounded
	default: // sync is longest
		oneL, oneU = 0, (w.short+w.long)/2+1
		zeroL, zeroU = oneU-1, (w.long+w.sync)/2+1
		syncL, syncU = zeroU-1, unbounded
	}

	events := 0
	for n := 0; n < t.NumPulses; n++ {
		pw, gw := t.Pulse[n], t.Gap[n]
		switch {
		case pw > oneL && pw < oneU:
			p.bits.AddBit(1)
		case pw > zeroL && pw < zeroU:
			p.bits.AddBit(0)
		case syncU > 0 && pw > syncL && pw < syncU:
			p.bits.AddSync()
		case pw <= oneL:
			// Spurious short pulse, ignore. Only reachable when the 1
			// band does not start at zero.
		default:
			// Outside every band: resync on a fresh row.
			p.bits.AddRow()
		}

		if (n == t.NumPulses-1 || gw > w.reset) && p.bits.NumRows() > 0 {
			events += p.accountEvent(p.sink, "pwm")
		} else if w.gap > 0 && gw > w.gap && p.bits.NumRows() > 0 {
			p.bits.AddRow()
		}
	}
	return events
}
