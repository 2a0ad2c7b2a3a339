// Package replay feeds recorded pulse trains and textual bit codes through a
// set of configured protocol slicers, the offline counterpart of a live
// receiver.
package replay

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openism/pulsewire/pkg/pulse"
	"github.com/openism/pulsewire/pkg/replay/config"
	"github.com/openism/pulsewire/pkg/slicer"
	"github.com/openism/pulsewire/pkg/util"
	"github.com/openism/pulsewire/pkg/viz"
)

type Engine struct {
	cfg       config.Config
	protocols []*slicer.Protocol
	writeAPI  api.WriteAPI
	vizServer *viz.Server
	hist      *viz.PulseHistogram
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

type EngineOption func(e *Engine) error

func WithInfluxDB(influxClient api.WriteAPI) EngineOption {
	return func(e *Engine) error {
		e.writeAPI = influxClient
		return nil
	}
}

func WithStatsServer(vizServer *viz.Server) EngineOption {
	return func(e *Engine) error {
		e.vizServer = vizServer
		return nil
	}
}

func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

func NewEngine(cfg config.Config, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if cfg.SampleRate == 0 {
		return nil, errors.New("must specify sample rate")
	}
	if cfg.Input == "" && len(cfg.Codes) == 0 {
		return nil, errors.New("must specify an input file or codes")
	}

	for _, pc := range cfg.Protocols {
		mod, err := slicer.ParseModulation(pc.Modulation)
		if err != nil {
			return nil, errors.Wrapf(err, "protocol %s", pc.Name)
		}
		sink := NewLogSink(e.logger, cfg.MinRepeats, cfg.MinBits)
		popts := []slicer.ProtocolOption{slicer.WithLogger(e.logger)}
		if cfg.VerboseBits {
			popts = append(popts, slicer.WithVerboseBits())
		}
		e.protocols = append(e.protocols, slicer.NewProtocol(slicer.Spec{
			Name:       pc.Name,
			Modulation: mod,
			ShortWidth: pc.ShortWidth,
			LongWidth:  pc.LongWidth,
			SyncWidth:  pc.SyncWidth,
			GapLimit:   pc.GapLimit,
			ResetLimit: pc.ResetLimit,
			Tolerance:  pc.Tolerance,
		}, sink, popts...))
	}
	if len(e.protocols) == 0 {
		return nil, errors.New("must specify at least one protocol")
	}

	return e, nil
}

func (e *Engine) Stop() error {
	e.cancel()
	if e.vizServer != nil {
		e.vizServer.Stop(context.TODO())
	}
	return nil
}

func (e *Engine) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	ctx, e.cancel = context.WithCancel(ctx)

	if e.vizServer != nil {
		e.hist = viz.NewPulseHistogram("pulse_widths", 10000)
		e.vizServer.Register(e.hist)
		for _, p := range e.protocols {
			e.vizServer.RegisterStats(&protocolStats{mu: &e.mu, p: p})
		}
		eg.Go(func() error {
			return e.vizServer.Run(ctx)
		})
	}

	eg.Go(func() error {
		defer e.writeAPI.Flush()
		if err := e.replay(ctx); err != nil {
			return err
		}
		e.logStats()
		if e.vizServer == nil {
			e.cancel()
			return nil
		}
		// Keep serving stats until stopped.
		<-ctx.Done()
		return nil
	})

	err := eg.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// replay drains the configured inputs. Trains are sliced strictly
// sequentially: every slicer sees the whole stream in order.
func (e *Engine) replay(ctx context.Context) error {
	if e.cfg.Input != "" {
		f, err := os.Open(e.cfg.Input)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()

		r := pulse.NewReader(f, e.cfg.SampleRate)
		var t pulse.Train
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := r.Next(&t)
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.Wrap(err, "reading pulse train")
			}
			e.sliceTrain(&t)
		}
	}

	for _, code := range e.cfg.Codes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.mu.Lock()
		for _, p := range e.protocols {
			p.SliceString(code)
		}
		e.mu.Unlock()
	}
	return nil
}

func (e *Engine) sliceTrain(t *pulse.Train) {
	if e.hist != nil {
		e.hist.Observe(t)
	}

	start := time.Now()
	e.mu.Lock()
	for _, p := range e.protocols {
		var events int
		duration := util.TimeOperationMicroseconds(func() {
			events = p.Slice(t)
		})

		go e.writeAPI.WritePoint(influxdb2.NewPoint("replay.train.processed",
			map[string]string{
				"protocol":   p.Spec.Name,
				"modulation": p.Spec.Modulation.String(),
			},
			map[string]interface{}{
				"pulses":   t.NumPulses,
				"events":   events,
				"duration": duration,
			}, start))
	}
	e.mu.Unlock()
}

func (e *Engine) logStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.protocols {
		e.logger.Info().
			Str("protocol", p.Spec.Name).
			Int("events", p.Stats.Events).
			Int("ok", p.Stats.OK).
			Int("messages", p.Stats.Messages).
			Msg("replay finished")
	}
}

// protocolStats adapts a slicer.Protocol to the stats server, serializing
// snapshots against the slicing loop.
type protocolStats struct {
	mu *sync.Mutex
	p  *slicer.Protocol
}

func (s *protocolStats) Name() string { return s.p.Spec.Name }

func (s *protocolStats) Snapshot() slicer.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Stats
}
