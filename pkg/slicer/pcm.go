package slicer

import (
	"github.com/openism/pulsewire/pkg/pulse"
)

// slicePCM handles fixed bit-period pulse code, both Return-to-Zero (pulse
// shorter than the bit period, one bit per pulse) and Non-Return-to-Zero
// (pulse width equals the bit period, runs of bits per pulse). The coding is
// NRZ when ShortWidth == LongWidth.
//
// ShortWidth is the nominal pulse width, LongWidth the nominal bit period,
// Tolerance the accepted deviation (defaults to a quarter bit period).
func (p *Protocol) slicePCM(t *pulse.Train, sink Sink) int {
	w, ok := p.scale(t.SampleRate)
	if !ok || w.short <= 0 || w.long <= 0 {
		return 0
	}
	nrz := w.short == w.long
	tol := w.tolerance
	if tol == 0 {
		tol = w.long / 4
	}
	gapLimit := w.reset
	if w.gap > 0 {
		gapLimit = w.gap
	}
	// Clamp zero runs so the message-ending silence cannot overflow the row.
	maxZeros := gapLimit / w.long

	fShort, fLong := p.calibratePCM(t, w, tol, nrz)

	events := 0
	for n := 0; n < t.NumPulses; n++ {
		pw, gw := t.Pulse[n], t.Gap[n]
		highs := int(float64(pw)*fShort + 0.5)
		zeros := int((float64(gw)+float64(w.short)-float64(w.long))*fLong + 0.5)
		if zeros > maxZeros {
			zeros = maxZeros
		}
		for i := 0; i < highs; i++ {
			p.bits.AddBit(1)
		}
		for i := 0; i < zeros; i++ {
			p.bits.AddBit(0)
		}

		if !nrz && abs(pw-w.short) > tol {
			// An RZ pulse off the nominal width means we lost sync: drop
			// the frame and scan on.
			p.logger.Debug().Int("n", n).Int("pulse", pw).Int("gap", gw).
				Msg("pcm: pulse out of tolerance, frame dropped")
			p.bits.Clear()
			continue
		}

		if (n == t.NumPulses-1 || gw > w.reset) && p.bits.RowLen(0) > 0 {
			events += p.accountEvent(sink, "pcm")
		} else if w.gap > 0 && gw > w.gap && p.bits.RowLen(p.bits.NumRows()-1) > 0 {
			p.bits.AddRow()
		}
	}
	return events
}

// calibratePCM refines the reciprocal pulse and bit-period widths against
// the measured train to compensate transmitter/receiver clock drift. It
// first looks for a preamble: a run of at least 12 consecutive bit periods
// within tolerance of the nominal widths. Failing that it falls back to
// averaging matches found anywhere in the train, requiring more than 8
// matched periods (RZ) or more than 20 matched bit-equivalents (NRZ) before
// trusting the estimate. With too little signal the nominal widths stand.
func (p *Protocol) calibratePCM(t *pulse.Train, w widths, tol int, nrz bool) (fShort, fLong float64) {
	fShort = 1 / float64(w.short)
	fLong = 1 / float64(w.long)
	const preambleLen = 12

	if nrz {
		// Every pulse and gap should sit near a whole multiple of the bit
		// period; count matched bit-equivalents.
		bestBits, runBits := 0, 0
		var bestSum, runSum, allSum float64
		allBits := 0
		for n := 0; n < t.NumPulses; n++ {
			for half, v := range [2]int{t.Pulse[n], t.Gap[n]} {
				if half == 1 && n == t.NumPulses-1 {
					continue // trailing silence, not coding
				}
				k := int(float64(v)*fLong + 0.5)
				if k >= 1 && abs(v-k*w.long) <= tol*k {
					runBits += k
					runSum += float64(v)
					allBits += k
					allSum += float64(v)
					if runBits > bestBits {
						bestBits, bestSum = runBits, runSum
					}
				} else {
					runBits, runSum = 0, 0
				}
			}
		}
		if bestBits >= preambleLen {
			fLong = float64(bestBits) / bestSum
			return fLong, fLong
		}
		if allBits > 20 {
			fLong = float64(allBits) / allSum
			return fLong, fLong
		}
		return fShort, fLong
	}

	// RZ: a preamble period is a pulse near the short width completing a
	// full period near the long width.
	bestRun, run := 0, 0
	var bestPulseSum, bestPeriodSum, runPulseSum, runPeriodSum float64
	pulseMatches, periodMatches := 0, 0
	var pulseSum, periodSum float64
	for n := 0; n < t.NumPulses; n++ {
		pw := t.Pulse[n]
		period := pw + t.Gap[n]
		pulseOK := abs(pw-w.short) <= tol
		periodOK := abs(period-w.long) <= tol
		if pulseOK {
			pulseMatches++
			pulseSum += float64(pw)
		}
		if periodOK {
			periodMatches++
			periodSum += float64(period)
		}
		if pulseOK && periodOK {
			run++
			runPulseSum += float64(pw)
			runPeriodSum += float64(period)
			if run > bestRun {
				bestRun, bestPulseSum, bestPeriodSum = run, runPulseSum, runPeriodSum
			}
		} else {
			run, runPulseSum, runPeriodSum = 0, 0, 0
		}
	}
	if bestRun >= preambleLen {
		return float64(bestRun) / bestPulseSum, float64(bestRun) / bestPeriodSum
	}
	if pulseMatches > 8 {
		fShort = float64(pulseMatches) / pulseSum
	}
	if periodMatches > 8 {
		fLong = float64(periodMatches) / periodSum
	}
	return fShort, fLong
}
