package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// sliceDMC handles differential Manchester coding on the interleaved
// pulse/gap symbol stream. A symbol within tolerance of ShortWidth emits a
// 1 and expects, but tolerates missing, a second short symbol completing
// the clock cycle; a symbol within tolerance of LongWidth emits a 0; a
// symbol at or beyond ResetLimit ends the message.
func (p *Protocol) sliceDMC(t *pulse.Train) int {
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
			// Short - 1. The second half of the cycle must be short too.
			p.bits.AddBit(1)
			n++
			if n < nsym && abs(p.symbols[n]-w.short) >= w.tolerance {
				if p.symbols[n] >= w.reset-w.tolerance {
					// The message-ending silence is no coding error;
					// let the reset handling see it.
					n--
				} else if p.bits.NumRows() > 0 && p.bits.RowLen(p.bits.NumRows()-1) > 0 {
					p.bits.AddRow()
				}
			}
		case abs(s-w.long) < w.tolerance:
			// Long - 0.
			p.bits.AddBit(0)
		case s >= w.reset-w.tolerance && p.bits.NumRows() > 0:
			events += p.accountEvent(p.sink, "dmc")
		}
	}
	return events
}
