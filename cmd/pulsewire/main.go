package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"golang.org/x/sync/errgroup"

	"github.com/openism/pulsewire/pkg/replay"
	"github.com/openism/pulsewire/pkg/replay/config"
	"github.com/openism/pulsewire/pkg/util"
	"github.com/openism/pulsewire/pkg/viz"
)

const defaultRefreshInterval = time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "pulsewire.yaml", "YAML config file")
	verbose := flag.Bool("verbose", false, "debug logging")

	flag.Parse()
	if configFile == nil {
		flag.Usage()
		os.Exit(1)
	}
	if *verbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	configContents, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading config file")
	}
	var opts config.Config
	if err := yaml.Unmarshal(configContents, &opts); err != nil {
		log.Fatal().Err(err).Msg("error unmarshaling yaml file")
	}

	var influxWriteAPI api.WriteAPI = &util.MockWriteAPI{}
	if opts.InfluxDB.Host != "" {
		influxWriteAPI = influxdb2.NewClient(opts.InfluxDB.Host, "").
			WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
	}

	engineOpts := []replay.EngineOption{
		replay.WithLogger(log.Logger),
		replay.WithInfluxDB(influxWriteAPI),
	}
	if opts.StatsServer.Port != 0 {
		interval := opts.StatsServer.RefreshInterval
		if interval == 0 {
			interval = defaultRefreshInterval
		}
		engineOpts = append(engineOpts,
			replay.WithStatsServer(viz.NewServer(opts.StatsServer.Port, interval)))
	}

	engine, err := replay.NewEngine(opts, engineOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create replay engine")
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return nil
		}
		return engine.Stop()
	})

	eg.Go(func() error {
		defer cancel()
		return engine.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}
