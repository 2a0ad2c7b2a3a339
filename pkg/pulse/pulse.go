// Package pulse holds the timed pulse/gap trains produced by the envelope
// detection stage, plus helpers to persist and analyze them.
package pulse

// MaxPulses is the maximum number of pulse/gap pairs in one train.
const MaxPulses = 1200

// Train is a compact representation of one radio burst: ordered
// (pulse, gap) widths in samples, plus detection estimates. Like the bit
// buffers downstream it is a fixed-capacity scratch structure, cleared and
// refilled once per acquisition cycle.
type Train struct {
	SampleRate uint32 // samples per second the widths were measured at
	NumPulses  int
	Pulse      [MaxPulses]int // high-level widths, in samples
	Gap        [MaxPulses]int // low-level widths following each pulse, in samples

	// Detection estimates from the (out of scope) analog stage.
	OOKLowEstimate  int
	OOKHighEstimate int
	FSKF1Est        int
	FSKF2Est        int
	RSSIdB          float32
	SNRdB           float32
	NoiseDB         float32
}

// Clear resets the train for reuse.
func (t *Train) Clear() {
	rate := t.SampleRate
	*t = Train{SampleRate: rate}
}

// Add appends one pulse/gap pair, in samples. It reports false when the
// train is full and the pair was dropped.
func (t *Train) Add(pulse, gap int) bool {
	if t.NumPulses >= MaxPulses {
		return false
	}
	t.Pulse[t.NumPulses] = pulse
	t.Gap[t.NumPulses] = gap
	t.NumPulses++
	return true
}

// AddMicros appends one pulse/gap pair given in microseconds, scaled to
// samples at the train's sample rate.
func (t *Train) AddMicros(pulseUS, gapUS float64) bool {
	spu := float64(t.SampleRate) / 1e6
	return t.Add(int(pulseUS*spu), int(gapUS*spu))
}
