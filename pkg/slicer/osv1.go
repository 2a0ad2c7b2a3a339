package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// sliceOSV1 handles the Oregon Scientific v1 framing: a clean preamble of
// exactly 12 half-bit pulses, one long out-of-clock sync interval, then
// Manchester-coded data. ShortWidth is the nominal half-bit width; a half
// bit is accepted between 0.5x and 1.5x of it, and the sync interval must
// reach twice the upper bound.
//
// The gap after the sync pulse needs care: when the first data bit is 0 its
// first half-bit hides inside that gap, so the gap is compared against the
// sync pulse itself, not against a fixed threshold. Since the data is
// Manchester coded, every other clocked half-bit is discarded; only rows
// that end up exactly 32 bits long are dispatched.
func (p *Protocol) sliceOSV1(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok || w.short <= 0 {
		return 0
	}
	halfbitMin := w.short / 2
	halfbitMax := w.short + w.short/2
	syncMin := 2 * halfbitMax

	events := 0

	// Preamble: consistent half-bit pulses until a long gap opens the sync.
	preamble := 0
	n := 0
	for ; n < t.NumPulses; n++ {
		if t.Pulse[n] > halfbitMin && t.Pulse[n] < halfbitMax && t.Gap[n] > halfbitMin {
			preamble++
			if t.Gap[n] >= syncMin {
				break
			}
		} else {
			return events
		}
	}
	if preamble != 12 {
		p.logger.Debug().Int("preamble", preamble).Msg("osv1: preamble mismatch")
		return events
	}

	// Sync interval.
	n++
	if n >= t.NumPulses || t.Pulse[n] < syncMin || t.Gap[n] < syncMin {
		return events
	}

	// The sync gap carries the first data half-bit when the stream starts
	// with a 0.
	manbit := 0
	if t.Gap[n] > t.Pulse[n] {
		manbit ^= 1
		if manbit != 0 {
			p.bits.AddBit(0)
		}
	}

	// Remaining data: pulses clock in 1 half-bits, gaps 0 half-bits, double
	// width intervals clock two.
	for n++; n < t.NumPulses; n++ {
		manbit ^= 1
		if manbit != 0 {
			p.bits.AddBit(1)
		}
		if t.Pulse[n] > halfbitMax {
			manbit ^= 1
			if manbit != 0 {
				p.bits.AddBit(1)
			}
		}
		if n == t.NumPulses-1 || t.Gap[n] > w.reset {
			if p.bits.RowLen(p.bits.NumRows()-1) == 32 {
				events += p.accountEvent(p.sink, "osv1")
			}
			return events
		}
		manbit ^= 1
		if manbit != 0 {
			p.bits.AddBit(0)
		}
		if t.Gap[n] > halfbitMax {
			manbit ^= 1
			if manbit != 0 {
				p.bits.AddBit(0)
			}
		}
	}
	return events
}
