package pulse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OOK pulse text: a line-oriented capture format for pulse trains. Each
// train is a header of ';'-comments followed by one "pulse gap" pair per
// line in the declared timescale, terminated by ";end". Several trains may
// follow each other in one file.
//
//	;pulse data
//	;version 1
//	;timescale 1us
//	500 1000
//	500 4500
//	;end

// Writer emits trains in the OOK pulse text format, one after another.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write dumps one train. Widths are written in microseconds.
func (w *Writer) Write(t *Train) error {
	bw := bufio.NewWriter(w.w)
	fmt.Fprintf(bw, ";pulse data\n;version 1\n;timescale 1us\n")
	if t.FSKF2Est != 0 {
		fmt.Fprintf(bw, ";fsk_f2_est %d\n", t.FSKF2Est)
	}
	uspc := 1e6 / float64(t.SampleRate)
	for i := 0; i < t.NumPulses; i++ {
		p := int(float64(t.Pulse[i])*uspc + 0.5)
		g := int(float64(t.Gap[i])*uspc + 0.5)
		fmt.Fprintf(bw, "%d %d\n", p, g)
	}
	fmt.Fprintf(bw, ";end\n")
	return errors.Wrap(bw.Flush(), "ook: write train")
}

// Reader parses trains from the OOK pulse text format, converting widths to
// samples at the given rate.
type Reader struct {
	sc         *bufio.Scanner
	sampleRate uint32
	line       int
}

func NewReader(r io.Reader, sampleRate uint32) *Reader {
	return &Reader{sc: bufio.NewScanner(r), sampleRate: sampleRate}
}

// Next fills t with the next train in the stream. It returns io.EOF when no
// further train follows. Trains that overflow t are truncated.
func (r *Reader) Next(t *Train) error {
	t.SampleRate = r.sampleRate
	t.Clear()
	scale := float64(r.sampleRate) / 1e6 // timescale 1us default
	seen := false
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ";"):
			directive := strings.TrimSpace(line[1:])
			switch {
			case directive == "end":
				if seen {
					return nil
				}
			case strings.HasPrefix(directive, "timescale"):
				ts, err := parseTimescale(strings.TrimSpace(strings.TrimPrefix(directive, "timescale")))
				if err != nil {
					return errors.Wrapf(err, "ook: line %d", r.line)
				}
				scale = ts * float64(r.sampleRate)
			case strings.HasPrefix(directive, "fsk_f2_est"):
				if v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(directive, "fsk_f2_est"))); err == nil {
					t.FSKF2Est = v
				}
			}
			// other header comments are informational
		default:
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return errors.Errorf("ook: line %d: want \"pulse gap\", got %q", r.line, line)
			}
			p, err := strconv.Atoi(fields[0])
			if err != nil {
				return errors.Wrapf(err, "ook: line %d", r.line)
			}
			g, err := strconv.Atoi(fields[1])
			if err != nil {
				return errors.Wrapf(err, "ook: line %d", r.line)
			}
			seen = true
			t.Add(int(float64(p)*scale+0.5), int(float64(g)*scale+0.5))
		}
	}
	if err := r.sc.Err(); err != nil {
		return errors.Wrap(err, "ook: read")
	}
	if seen {
		return nil
	}
	return io.EOF
}

// parseTimescale converts a timescale directive ("1us", "250ns", "1ms")
// into seconds.
func parseTimescale(s string) (float64, error) {
	var unit float64
	var num string
	switch {
	case strings.HasSuffix(s, "ns"):
		unit, num = 1e-9, strings.TrimSuffix(s, "ns")
	case strings.HasSuffix(s, "us"):
		unit, num = 1e-6, strings.TrimSuffix(s, "us")
	case strings.HasSuffix(s, "ms"):
		unit, num = 1e-3, strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		unit, num = 1, strings.TrimSuffix(s, "s")
	default:
		return 0, errors.Errorf("unknown timescale %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "timescale %q", s)
	}
	return v * unit, nil
}
