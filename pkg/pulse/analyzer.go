package pulse

import (
	"math"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Analysis is the result of an offline guessing pass over a train. It is a
// debugging aid for unknown signals, not part of the live slicing path.
type Analysis struct {
	PulseBins []Bin
	GapBins   []Bin
	PeriodEst float64 // dominant bit period estimate, in samples (0 if unknown)
	Guess     string  // coarse modulation guess
}

// Bin is one cluster of similar widths.
type Bin struct {
	Count    int
	Mean     float64
	StdDev   float64
	Min, Max int
}

const binTolerance = 0.2 // widths within ±20% of a bin mean join the bin

// Analyze bins the pulse and gap widths of a train, estimates the dominant
// bit period by autocorrelation, and takes a coarse guess at the modulation
// class from the bin structure.
func Analyze(t *Train) Analysis {
	a := Analysis{
		PulseBins: binWidths(t.Pulse[:t.NumPulses]),
		GapBins:   binWidths(trimLastGap(t)),
	}
	a.PeriodEst = estimatePeriod(t)
	a.Guess = guessModulation(a)
	return a
}

// trimLastGap drops the trailing silence, which only measures the reset
// threshold, not the coding.
func trimLastGap(t *Train) []int {
	if t.NumPulses == 0 {
		return nil
	}
	return t.Gap[:t.NumPulses-1]
}

func binWidths(widths []int) []Bin {
	if len(widths) == 0 {
		return nil
	}
	sorted := append([]int(nil), widths...)
	sort.Ints(sorted)

	var bins []Bin
	var cur []float64
	flush := func() {
		if len(cur) == 0 {
			return
		}
		b := Bin{
			Count: len(cur),
			Mean:  stat.Mean(cur, nil),
			Min:   int(cur[0]),
			Max:   int(cur[len(cur)-1]),
		}
		if len(cur) > 1 {
			b.StdDev = stat.StdDev(cur, nil)
		}
		bins = append(bins, b)
		cur = cur[:0]
	}
	for _, w := range sorted {
		if len(cur) > 0 {
			mean := stat.Mean(cur, nil)
			if float64(w) > mean*(1+binTolerance) {
				flush()
			}
		}
		cur = append(cur, float64(w))
	}
	flush()
	return bins
}

// estimatePeriod autocorrelates the level waveform reconstructed from the
// train (decimated to keep the FFT small) and picks the first significant
// peak as the bit period.
func estimatePeriod(t *Train) float64 {
	if t.NumPulses < 4 {
		return 0
	}
	shortest := math.MaxInt32
	total := 0
	for i := 0; i < t.NumPulses; i++ {
		if t.Pulse[i] > 0 && t.Pulse[i] < shortest {
			shortest = t.Pulse[i]
		}
		total += t.Pulse[i] + t.Gap[i]
	}
	if shortest <= 0 || total <= 0 {
		return 0
	}
	// Decimate so the shortest pulse still spans a few samples.
	decim := shortest / 4
	if decim < 1 {
		decim = 1
	}
	n := total / decim
	if n < 8 {
		return 0
	}
	if n > 1<<14 {
		n = 1 << 14
	}
	level := make([]float64, n)
	pos := 0
	for i := 0; i < t.NumPulses && pos < n; i++ {
		for j := 0; j < t.Pulse[i]/decim && pos < n; j++ {
			level[pos] = 1
			pos++
		}
		pos += t.Gap[i] / decim
	}
	// Autocorrelation via FFT: IFFT(|FFT(x)|^2).
	spec := fft.FFTReal(level)
	for i, c := range spec {
		spec[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	ac := fft.IFFT(spec)
	// First local maximum after the zero-lag peak falls off.
	lag := 1
	for lag < n/2 && real(ac[lag]) < real(ac[lag-1]) {
		lag++
	}
	best, bestLag := 0.0, 0
	for ; lag < n/2; lag++ {
		if v := real(ac[lag]); v > best {
			best, bestLag = v, lag
		} else if bestLag > 0 && lag > bestLag*2 {
			break
		}
	}
	if bestLag == 0 {
		return 0
	}
	return float64(bestLag * decim)
}

func guessModulation(a Analysis) string {
	switch {
	case len(a.PulseBins) == 1 && len(a.GapBins) == 1:
		return "PCM"
	case len(a.PulseBins) == 1 && len(a.GapBins) >= 2:
		return "PPM"
	case len(a.PulseBins) >= 2 && len(a.GapBins) == 1:
		return "PWM"
	case len(a.PulseBins) == 2 && len(a.GapBins) == 2:
		return "Manchester or PIWM"
	default:
		return "unknown"
	}
}
