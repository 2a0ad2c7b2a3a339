// Package slicer turns timed pulse trains into rows of bits. Each modulation
// has one slicing algorithm; all of them consume a pulse.Train plus the
// protocol's timing spec (in microseconds, scaled to samples on entry) and
// hand completed bit buffers to a Sink.
package slicer

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openism/pulsewire/pkg/bitbuffer"
	"github.com/openism/pulsewire/pkg/pulse"
)

// Modulation selects the slicing algorithm for a protocol.
type Modulation int

const (
	ModPCM Modulation = iota // RZ or NRZ pulse code, auto-detected from the widths
	ModPPM
	ModPWM
	ModManchesterZeroBit
	ModDMC
	ModPIWMRaw
	ModPIWMDC
	ModOSV1
	ModNRZS // PCM slicing, NRZS line decode before dispatch
)

func (m Modulation) String() string {
	switch m {
	case ModPCM:
		return "PCM"
	case ModPPM:
		return "PPM"
	case ModPWM:
		return "PWM"
	case ModManchesterZeroBit:
		return "Manchester-zerobit"
	case ModDMC:
		return "DMC"
	case ModPIWMRaw:
		return "PIWM-raw"
	case ModPIWMDC:
		return "PIWM-dc"
	case ModOSV1:
		return "OSV1"
	case ModNRZS:
		return "NRZS"
	}
	return "unknown"
}

// ParseModulation is the inverse of Modulation.String, for config files.
func ParseModulation(s string) (Modulation, error) {
	for m := ModPCM; m <= ModNRZS; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown modulation %q", s)
}

// Spec is the per-protocol modulation timing, all widths in microseconds.
// The meaning of the widths depends on the modulation; see each slicer.
type Spec struct {
	Name       string
	Modulation Modulation
	ShortWidth float64
	LongWidth  float64
	SyncWidth  float64
	GapLimit   float64 // silence separating repeats of one message
	ResetLimit float64 // silence ending the whole message
	Tolerance  float64 // ± window around a nominal width
}

// FailKind is the reason a sink rejected a frame.
type FailKind int

const (
	FailOther   FailKind = iota // unspecified, legacy
	AbortLength                 // row count or row length not applicable
	AbortEarly                  // not this protocol's signal
	FailMIC                     // message integrity check failed
	FailSanity                  // content checks failed
	numFailKinds
)

func (k FailKind) String() string {
	switch k {
	case FailOther:
		return "other"
	case AbortLength:
		return "abort_length"
	case AbortEarly:
		return "abort_early"
	case FailMIC:
		return "fail_mic"
	case FailSanity:
		return "fail_sanity"
	}
	return "invalid"
}

// Outcome is a sink's verdict on one frame: either a count of successfully
// decoded events or a failure kind.
type Outcome struct {
	events int
	kind   FailKind
	failed bool
}

// Success reports n decoded events. Success(0) counts as FailOther.
func Success(n int) Outcome {
	if n <= 0 {
		return Failure(FailOther)
	}
	return Outcome{events: n}
}

// Failure reports a rejected frame.
func Failure(kind FailKind) Outcome {
	return Outcome{kind: kind, failed: true}
}

// Events returns the decoded event count, zero for failures.
func (o Outcome) Events() int {
	if o.failed {
		return 0
	}
	return o.events
}

// Failed reports whether the frame was rejected, and with what kind.
func (o Outcome) Failed() (FailKind, bool) { return o.kind, o.failed }

// Sink consumes completed bit buffers. The buffer is only valid for the
// duration of the call; it is cleared and reused afterwards.
type Sink interface {
	OnFrame(*bitbuffer.Buffer) Outcome
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(*bitbuffer.Buffer) Outcome

func (f SinkFunc) OnFrame(b *bitbuffer.Buffer) Outcome { return f(b) }

// Stats aggregates decode results for one protocol.
type Stats struct {
	Events   int // frames handed to the sink
	OK       int // frames the sink decoded something from
	Messages int // total decoded events
	Fails    [numFailKinds]int
}

// Protocol couples a modulation spec with a decoder sink and the scratch
// state one slicing run needs. A Protocol is reused across acquisition
// cycles; calls are strictly sequential, there is no per-call allocation.
type Protocol struct {
	Spec
	Stats Stats

	sink    Sink
	logger  zerolog.Logger
	verbose bool

	bits    bitbuffer.Buffer
	symbols [2 * pulse.MaxPulses]int
}

// ProtocolOption configures a Protocol.
type ProtocolOption func(*Protocol)

// WithLogger replaces the default global logger.
func WithLogger(logger zerolog.Logger) ProtocolOption {
	return func(p *Protocol) { p.logger = logger }
}

// WithVerboseBits logs every dispatched buffer in the debug text format.
func WithVerboseBits() ProtocolOption {
	return func(p *Protocol) { p.verbose = true }
}

// NewProtocol binds a spec to a sink. A nil sink only accumulates Events
// and logs the buffers, which is useful when poking at unknown signals.
func NewProtocol(spec Spec, sink Sink, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		Spec:   spec,
		sink:   sink,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("protocol", spec.Name).Logger()
	return p
}

// Slice runs the protocol's slicer over one train and returns the number of
// successfully decoded events. Malformed input degrades to fewer or zero
// events, never an error.
func (p *Protocol) Slice(t *pulse.Train) int {
	p.bits.Clear()
	switch p.Modulation {
	case ModPCM:
		return p.slicePCM(t, p.sink)
	case ModPPM:
		return p.slicePPM(t)
	case ModPWM:
		return p.slicePWM(t)
	case ModManchesterZeroBit:
		return p.sliceManchesterZeroBit(t)
	case ModDMC:
		return p.sliceDMC(t)
	case ModPIWMRaw:
		return p.slicePIWMRaw(t)
	case ModPIWMDC:
		return p.slicePIWMDC(t)
	case ModOSV1:
		return p.sliceOSV1(t)
	case ModNRZS:
		return p.slicePCM(t, nrzsSink{p.sink})
	}
	p.logger.Warn().Stringer("modulation", p.Modulation).Msg("no slicer for modulation")
	return 0
}

// nrzsSink line-decodes each dispatched buffer before the real sink sees it.
type nrzsSink struct {
	inner Sink
}

func (s nrzsSink) OnFrame(b *bitbuffer.Buffer) Outcome {
	b.NRZSDecode()
	if s.inner == nil {
		return Success(0)
	}
	return s.inner.OnFrame(b)
}

// accountEvent hands the accumulated buffer to the sink, folds the outcome
// into the statistics and clears the buffer for the next frame. A sink
// returning an out-of-range failure kind is a programming error and fatal.
func (p *Protocol) accountEvent(sink Sink, name string) int {
	out := Success(0)
	if sink != nil {
		out = sink.OnFrame(&p.bits)
	}
	p.Stats.Events++
	ret := 0
	if kind, failed := out.Failed(); failed {
		if kind < 0 || kind >= numFailKinds {
			p.logger.Fatal().Int("kind", int(kind)).Msg("decoder sink returned out-of-range status")
		}
		p.Stats.Fails[kind]++
	} else {
		p.Stats.OK++
		p.Stats.Messages += out.Events()
		ret = out.Events()
	}
	if p.bits.Truncated() {
		p.logger.Warn().Str("slicer", name).Msg("bit buffer overflowed, frame truncated")
	}
	if p.verbose || sink == nil {
		p.logger.Debug().Str("slicer", name).Stringer("bits", &p.bits).Msg("frame")
	}
	p.bits.Clear()
	return ret
}

// widths is a Spec scaled to samples at one sample rate.
type widths struct {
	short, long, sync, gap, reset, tolerance int
}

// scale converts the protocol's microsecond widths to samples. It reports false
// when any configured nonzero width rounds to zero samples, in which case
// the slicing call must abort for this protocol.
func (p *Protocol) scale(sampleRate uint32) (widths, bool) {
	spu := float64(sampleRate) / 1e6
	w := widths{
		short:     int(p.ShortWidth * spu),
		long:      int(p.LongWidth * spu),
		sync:      int(p.SyncWidth * spu),
		gap:       int(p.GapLimit * spu),
		reset:     int(p.ResetLimit * spu),
		tolerance: int(p.Tolerance * spu),
	}
	bad := (p.ShortWidth > 0 && w.short <= 0) ||
		(p.LongWidth > 0 && w.long <= 0) ||
		(p.SyncWidth > 0 && w.sync <= 0) ||
		(p.GapLimit > 0 && w.gap <= 0) ||
		(p.ResetLimit > 0 && w.reset <= 0) ||
		(p.Tolerance > 0 && w.tolerance <= 0)
	if bad {
		p.logger.Warn().Uint32("sample_rate", sampleRate).Msg("sample rate too low for protocol")
		return w, false
	}
	return w, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
