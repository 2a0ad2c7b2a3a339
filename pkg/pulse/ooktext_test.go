package pulse

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestOOKTextRoundTrip(t *testing.T) {
	var orig Train
	orig.SampleRate = 1000000
	orig.AddMicros(500, 1000)
	orig.AddMicros(500, 4500)
	orig.AddMicros(250, 9000)

	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(&orig); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var got Train
	r := NewReader(&buf, 1000000)
	if err := r.Next(&got); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if got.NumPulses != orig.NumPulses {
		t.Fatalf("NumPulses = %d, want %d", got.NumPulses, orig.NumPulses)
	}
	for i := 0; i < orig.NumPulses; i++ {
		if got.Pulse[i] != orig.Pulse[i] || got.Gap[i] != orig.Gap[i] {
			t.Errorf("pair %d = (%d, %d), want (%d, %d)",
				i, got.Pulse[i], got.Gap[i], orig.Pulse[i], orig.Gap[i])
		}
	}
	if err := r.Next(&got); err != io.EOF {
		t.Errorf("Next() after last train = %v, want io.EOF", err)
	}
}

func TestReaderMultipleTrains(t *testing.T) {
	input := strings.Join([]string{
		";pulse data",
		";version 1",
		";timescale 1us",
		"500 1000",
		";end",
		";pulse data",
		"250 750",
		"250 9000",
		";end",
	}, "\n")

	r := NewReader(strings.NewReader(input), 1000000)
	var t1, t2 Train
	if err := r.Next(&t1); err != nil {
		t.Fatalf("first Next() error: %v", err)
	}
	if t1.NumPulses != 1 || t1.Pulse[0] != 500 || t1.Gap[0] != 1000 {
		t.Errorf("first train = %d pairs (%d, %d)", t1.NumPulses, t1.Pulse[0], t1.Gap[0])
	}
	if err := r.Next(&t2); err != nil {
		t.Fatalf("second Next() error: %v", err)
	}
	if t2.NumPulses != 2 || t2.Pulse[1] != 250 {
		t.Errorf("second train = %d pairs", t2.NumPulses)
	}
}

func TestReaderTimescale(t *testing.T) {
	input := ";timescale 1ms\n1 2\n;end\n"
	r := NewReader(strings.NewReader(input), 1000000)
	var tr Train
	if err := r.Next(&tr); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if tr.Pulse[0] != 1000 || tr.Gap[0] != 2000 {
		t.Errorf("scaled pair = (%d, %d), want (1000, 2000)", tr.Pulse[0], tr.Gap[0])
	}
}

func TestReaderBadLine(t *testing.T) {
	r := NewReader(strings.NewReader("500\n;end\n"), 1000000)
	var tr Train
	if err := r.Next(&tr); err == nil {
		t.Error("Next() = nil error on malformed line")
	}
}

func TestTrainAddCapacity(t *testing.T) {
	var tr Train
	for i := 0; i < MaxPulses; i++ {
		if !tr.Add(1, 1) {
			t.Fatalf("Add() = false at %d, below capacity", i)
		}
	}
	if tr.Add(1, 1) {
		t.Error("Add() = true past capacity")
	}
	if tr.NumPulses != MaxPulses {
		t.Errorf("NumPulses = %d, want %d", tr.NumPulses, MaxPulses)
	}
}
