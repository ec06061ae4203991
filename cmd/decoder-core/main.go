// Command decoder-core is the reference CLI collaborator for the decoder
// core library: it wires lib/config, lib/logging, lib/metrics and
// lib/ingest together, reads raw interleaved I/Q samples from a file or
// stdin, and prints tracked aircraft snapshots on a fixed interval.
//
// It is deliberately thin — the real acquisition, network and storage
// collaborators (SDR driver, Beast/AVR/SBS-1 network sources, a database
// sink) are out of scope per §1; this binary exists to exercise the core
// pipeline end to end from a file of samples.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/paulmach/orb"

	"adsbcore/lib/config"
	"adsbcore/lib/crc"
	"adsbcore/lib/ingest"
	"adsbcore/lib/logging"
	"adsbcore/lib/tracker"
	"adsbcore/lib/whitelist"
)

const (
	flagConfig      = "config"
	flagSampleFile  = "sample-file"
	flagMetricsAddr = "metrics-addr"
	flagSnapshotInt = "snapshot-interval"

	flagCorrection   = "correction"
	flagCRCCheck     = "crc-check"
	flagMinMessages  = "min-messages"
	flagTTLSeconds   = "ttl-seconds"
	flagReferenceLat = "reference-lat"
	flagReferenceLon = "reference-lon"
	flagUnits        = "units"
)

func main() {
	app := &cli.App{
		Name:  "decoder-core",
		Usage: "Mode S / ADS-B decoder core reference CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "path to a YAML configuration file (see lib/config)",
			},
			&cli.StringFlag{
				Name:  flagSampleFile,
				Usage: "path to a raw interleaved I/Q sample file; defaults to stdin",
			},
			&cli.StringFlag{
				Name:  flagMetricsAddr,
				Usage: "address to serve /metrics on, e.g. :9090 (disabled if empty)",
			},
			&cli.DurationFlag{
				Name:  flagSnapshotInt,
				Usage: "interval between printed tracker snapshots",
				Value: 5 * time.Second,
			},
			&cli.StringFlag{
				Name:  flagCorrection,
				Usage: "CRC correction mode: none, one_bit, two_bit (overrides config file)",
			},
			&cli.BoolFlag{
				Name:  flagCRCCheck,
				Usage: "crc_check configuration value (overrides config file); CRC validation runs regardless of it",
			},
			&cli.IntFlag{
				Name:  flagMinMessages,
				Usage: "ghost-suppression message count threshold (overrides config file)",
			},
			&cli.IntFlag{
				Name:  flagTTLSeconds,
				Usage: "aircraft record eviction TTL in seconds (overrides config file)",
			},
			&cli.Float64Flag{
				Name:  flagReferenceLat,
				Usage: "receiver reference latitude (overrides config file)",
			},
			&cli.Float64Flag{
				Name:  flagReferenceLon,
				Usage: "receiver reference longitude (overrides config file)",
			},
			&cli.StringFlag{
				Name:  flagUnits,
				Usage: "presentation units: metric or imperial (overrides config file)",
			},
		},
		Action: run,
	}
	logging.IncludeVerbosityFlags(app)

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("decoder-core exited with an error")
	}
}

func run(c *cli.Context) error {
	logging.ConfigureForCli()
	logging.SetLoggingLevel(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.FinalizeReference()

	crcMode, err := cfg.CRCMode()
	if err != nil {
		return err
	}

	if addr := c.String(flagMetricsAddr); addr != "" {
		go serveMetrics(addr)
	}

	wl := whitelist.New(time.Duration(cfg.TTLSeconds)*time.Second, time.Minute)
	trackerOpts := []tracker.Option{
		tracker.WithWhitelist(wl),
		tracker.WithTTL(time.Duration(cfg.TTLSeconds) * time.Second),
		tracker.WithMinMessages(cfg.MinMessages),
	}
	if cfg.HasReference {
		trackerOpts = append(trackerOpts, tracker.WithReference(orb.Point{cfg.ReferenceLon, cfg.ReferenceLat}))
	}
	trk := tracker.New(trackerOpts...)

	crcEngine := crc.New(crc.WithMode(crcMode))

	pipeline := ingest.New(crcEngine, wl, trk, ingest.WithTag("decoder-core"))

	ctx := c.Context
	go func() {
		if err := pipeline.Run(ctx); err != nil {
			log.Debug().Err(err).Msg("pipeline stopped")
		}
	}()
	defer pipeline.Stop()

	go printSnapshots(ctx, trk, c.Duration(flagSnapshotInt))

	return feedSamples(pipeline, c.String(flagSampleFile))
}

// loadConfig layers CLI flag overrides on top of the YAML file (or
// built-in defaults, if no config file was given), per §9: only flags the
// caller actually set win, so an unset CLI flag never clobbers a value the
// config file specified.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.LoadYAML(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet(flagCorrection) {
		cfg.Correction = c.String(flagCorrection)
	}
	if c.IsSet(flagCRCCheck) {
		cfg.CRCCheck = c.Bool(flagCRCCheck)
	}
	if c.IsSet(flagMinMessages) {
		cfg.MinMessages = c.Int(flagMinMessages)
	}
	if c.IsSet(flagTTLSeconds) {
		cfg.TTLSeconds = c.Int(flagTTLSeconds)
	}
	if c.IsSet(flagReferenceLat) {
		cfg.ReferenceLat = c.Float64(flagReferenceLat)
	}
	if c.IsSet(flagReferenceLon) {
		cfg.ReferenceLon = c.Float64(flagReferenceLon)
	}
	if c.IsSet(flagUnits) {
		cfg.Units = config.Units(c.String(flagUnits))
	}

	return cfg, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("serving /metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

// feedSamples reads raw I/Q bytes from path (or stdin) in fixed-size chunks
// and hands each off to the pipeline's ring buffer.
func feedSamples(p *ingest.Pipeline, path string) error {
	r := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("decoder-core: opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	const chunkSize = 1 << 16
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			evenLen := n - n%2 // Map requires an even-length chunk
			chunk := ingest.AcquireChunk(evenLen)
			copy(chunk, buf[:evenLen])
			p.PushIQ(chunk)
		}
		if err != nil {
			return nil
		}
	}
}

func printSnapshots(ctx context.Context, trk *tracker.Tracker, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snaps := trk.Snapshot()
			b, err := json.Marshal(snaps)
			if err != nil {
				log.Error().Err(err).Msg("marshalling snapshot")
				continue
			}
			fmt.Println(string(b))
		}
	}
}
