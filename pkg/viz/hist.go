package viz

import (
	"bytes"
	"sync"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/openism/pulsewire/pkg/pulse"
)

const histBins = 50

// PulseHistogram accumulates pulse and gap widths from decoded trains and
// renders them as a histogram, the quickest way to eyeball whether a
// protocol's nominal widths match what is actually on the air.
type PulseHistogram struct {
	mu          sync.Mutex
	name        string
	size        int
	pulses      plotter.Values
	gaps        plotter.Values
	plotOptions []PlotOptions
}

// NewPulseHistogram keeps the most recent size widths of each kind.
func NewPulseHistogram(name string, size int) *PulseHistogram {
	return &PulseHistogram{
		name: name,
		size: size,
	}
}

func (h *PulseHistogram) Name() string {
	return h.name
}

func (h *PulseHistogram) AddPlotOption(opt PlotOptions) {
	h.plotOptions = append(h.plotOptions, opt)
}

// Observe folds one train's widths, converted to microseconds, into the
// rolling window.
func (h *PulseHistogram) Observe(t *pulse.Train) {
	if t.SampleRate == 0 {
		return
	}
	usPerSample := 1e6 / float64(t.SampleRate)
	h.mu.Lock()
	for n := 0; n < t.NumPulses; n++ {
		h.pulses = append(h.pulses, float64(t.Pulse[n])*usPerSample)
		h.gaps = append(h.gaps, float64(t.Gap[n])*usPerSample)
	}
	if len(h.pulses) > h.size {
		h.pulses = h.pulses[len(h.pulses)-h.size:]
	}
	if len(h.gaps) > h.size {
		h.gaps = h.gaps[len(h.gaps)-h.size:]
	}
	h.mu.Unlock()
}

func (h *PulseHistogram) GetImage() *ImageContainer {
	h.mu.Lock()
	pulses := make(plotter.Values, len(h.pulses))
	copy(pulses, h.pulses)
	gaps := make(plotter.Values, len(h.gaps))
	copy(gaps, h.gaps)
	h.mu.Unlock()

	if len(pulses) == 0 {
		return nil
	}

	p := plotWithDefaults()
	p.Title.Text = h.name
	p.X.Label.Text = "width (us)"
	p.Y.Label.Text = "count"

	for _, opt := range h.plotOptions {
		opt(p)
	}

	ph, err := plotter.NewHist(pulses, histBins)
	if err != nil {
		return nil
	}
	ph.FillColor = plotutil.Color(0)
	p.Add(ph)

	if len(gaps) > 0 {
		gh, err := plotter.NewHist(gaps, histBins)
		if err != nil {
			return nil
		}
		gh.FillColor = plotutil.Color(1)
		p.Add(gh)
	}

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		panic(err)
	}
	w.WriteTo(&imageData)
	return &ImageContainer{name: h.name, data: imageData.Bytes()}
}
