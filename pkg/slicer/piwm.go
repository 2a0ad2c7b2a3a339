package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// slicePIWMRaw handles pulse interval and width coding where every level
// transition is a potential bit edge and an interval carries a run of 1..N
// same-polarity bits: pulses are runs of 1s, gaps runs of 0s, with the run
// length rounded from the interval over ShortWidth. The tolerance scales
// with the run length. An interval matching no whole run count either ends
// the message (at or beyond ResetLimit) or forces a new row.
func (p *Protocol) slicePIWMRaw(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok || w.short <= 0 {
		return 0
	}
	fShort := 1 / float64(w.short)
	// The tolerance scales with the run length, so without a cap the
	// message-ending silence would read as an enormous zero run instead of
	// reaching the reset check.
	maxRun := (w.reset - w.tolerance) / w.short
	if maxRun < 1 {
		maxRun = 1
	}
	nsym := t.NumPulses * 2
	for n := 0; n < t.NumPulses; n++ {
		p.symbols[n*2] = t.Pulse[n]
		p.symbols[n*2+1] = t.Gap[n]
	}

	events := 0
	for n := 0; n < nsym; n++ {
		s := p.symbols[n]
		runLen := int(float64(s)*fShort + 0.5)
		if runLen > 0 && runLen <= maxRun && abs(s-runLen*w.short) < w.tolerance*runLen {
			bit := 1 - n%2 // pulses at even indexes, gaps at odd
			for i := 0; i < runLen; i++ {
				p.bits.AddBit(bit)
			}
			continue
		}
		if s >= w.reset-w.tolerance {
			if p.bits.NumRows() > 0 {
				events += p.accountEvent(p.sink, "piwm_raw")
			}
		} else if p.bits.NumRows() > 0 && p.bits.RowLen(p.bits.NumRows()-1) > 0 {
			p.bits.AddRow()
		}
	}
	return events
}

// slicePIWMDC is the constrained variant: every interval is exactly one
// bit, within tolerance of ShortWidth for a 1 or of LongWidth for a 0.
func (p *Protocol) slicePIWMDC(t *pulse.Train) int {
	w, ok := p.scale(t.SampleRate)
	if !ok {
		return 0
	}
	nsym := t.NumPulses * 2
	for n := 0; n < t.NumPulses; n++ {
		p.symbols[n*2] = t.Pulse[n]
		p.symbols[n*2+1] = t.Gap[n]
	}

	events := 0
	for n := 0; n < nsym; n++ {
		s := p.symbols[n]
		switch {
		case abs(s-w.short) < w.tolerance:
			p.bits.AddBit(1)
		case abs(s-w.long) < w.tolerance:
			p.bits.AddBit(0)
		case s >= w.reset-w.tolerance && p.bits.NumRows() > 0:
			events += p.accountEvent(p.sink, "piwm_dc")
		default:
			if p.bits.NumRows() > 0 && p.bits.RowLen(p.bits.NumRows()-1) > 0 {
				p.bits.AddRow()
			}
		}
	}
	return events
}
