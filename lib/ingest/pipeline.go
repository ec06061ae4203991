// Package ingest wires the §5 concurrency model around the decoder core:
// a bounded ring buffer between a sample-acquisition worker and a
// demod/decode/track worker, a cooperative stop flag, and a TTL sweep
// timer, plus per-source bookkeeping for the ring's back-pressure counter.
//
// Grounded on the teacher's lib/setup/source.go for the Option/With...
// constructor shape and per-source tagging idea (there, a URL-configured
// producer.Option list; here, the same pattern generalized to the
// ring+pipeline wiring that source.go's retrieved slice doesn't itself
// implement).
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"adsbcore/lib/crc"
	"adsbcore/lib/demod"
	"adsbcore/lib/magnitude"
	"adsbcore/lib/metrics"
	"adsbcore/lib/modes"
	"adsbcore/lib/preamble"
	"adsbcore/lib/tracker"
	"adsbcore/lib/whitelist"
)

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithRingCapacity overrides the default 64-chunk ring buffer.
func WithRingCapacity(n int) Option {
	return func(p *Pipeline) { p.ringCap = n }
}

// WithSweepInterval overrides the default 1 Hz TTL sweep timer, per §5's
// "≤1 Hz" bound. Values above 1s are accepted; values that would exceed
// 1 Hz are clamped.
func WithSweepInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d < time.Second {
			d = time.Second
		}
		p.sweepInterval = d
	}
}

// WithTag attaches a human-readable source tag used in log fields,
// mirroring source.go's WithSourceTag.
func WithTag(tag string) Option {
	return func(p *Pipeline) { p.tag = tag }
}

// Pipeline is one sample-acquisition + demod/decode/track worker pair,
// sharing a Tracker, whitelist and CRC engine supplied by the caller (so
// multiple Pipelines — one per receiver — can publish into one Tracker).
type Pipeline struct {
	id  uuid.UUID
	tag string

	ringCap       int
	sweepInterval time.Duration

	ring      *Ring
	mapper    *magnitude.Mapper
	detector  *preamble.Detector
	crcEngine *crc.Engine
	whitelist *whitelist.Whitelist
	tracker   *tracker.Tracker
	filter    *Filter

	stop chan struct{}
}

// New builds a Pipeline. crcEngine, wl and trk are shared collaborators
// the caller owns; Pipeline only reads/calls them, never closes them.
func New(crcEngine *crc.Engine, wl *whitelist.Whitelist, trk *tracker.Tracker, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:            uuid.New(),
		ringCap:       64,
		sweepInterval: time.Second,
		mapper:        magnitude.New(),
		detector:      preamble.New(),
		crcEngine:     crcEngine,
		whitelist:     wl,
		tracker:       trk,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ring = NewRing(p.ringCap)
	return p
}

// PushIQ enqueues one chunk of interleaved I/Q bytes for processing. If the
// ring is full, the oldest chunk is dropped and metrics.SamplesDropped is
// increased by the number of I/Q samples it held, per §5's back-pressure
// policy.
func (p *Pipeline) PushIQ(chunk []byte) {
	dropped, ok := p.ring.Push(chunk)
	if !ok {
		metrics.SamplesDropped.Add(float64(len(dropped) / 2))
		log.Debug().Str("source", p.tag).Str("id", p.id.String()).Msg("ring full, dropped oldest chunk")
	}
	if dropped != nil {
		ReleaseChunk(dropped)
	}
}

// Run drives the demod/decode/track worker and the TTL sweep timer until
// ctx is cancelled or Stop is called, whichever comes first. It does not
// itself run a sample-acquisition worker — that is the SDR/file/network
// collaborator's job (§1); PushIQ is the handoff point.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.processLoop(ctx) })
	g.Go(func() error { return p.sweepLoop(ctx) })

	return g.Wait()
}

// Stop requests cooperative shutdown; in-flight frames complete (§5).
func (p *Pipeline) Stop() {
	close(p.stop)
	p.ring.Close()
}

func (p *Pipeline) processLoop(ctx context.Context) error {
	var mags []uint16
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			return nil
		default:
		}

		chunk, ok := p.ring.Pop()
		if !ok {
			return nil
		}
		mags = p.mapper.Map(chunk, mags)
		p.processMagnitudes(mags)
		ReleaseChunk(chunk)
	}
}

// processMagnitudes walks every preamble candidate in mags and pushes each
// surviving frame through CRC, decode and tracker update.
func (p *Pipeline) processMagnitudes(mags []uint16) {
	at := 0
	for {
		cand, ok := p.detector.Next(mags, at)
		if !ok {
			return
		}
		at = cand.Offset + 1

		d, err := demod.Demodulate(mags, cand.Offset)
		if err != nil {
			continue // ran out of samples for this candidate; samples are not carried into the next chunk, so it is dropped
		}

		p.handleFrame(d.Bytes)
	}
}

func (p *Pipeline) handleFrame(data []byte) {
	df := data[0] >> 3
	masked := isMaskedICAODF(df)

	result, err := p.crcEngine.Check(data, masked, p.whitelist.Contains)
	if err != nil {
		metrics.FramesRejected.Inc()
		return
	}
	switch result.Correction {
	case crc.OneBitCorrection, crc.TwoBitCorrection:
		metrics.FramesCorrected.Inc()
	}

	msg, err := modes.Decode(result.Data)
	if err != nil {
		metrics.FramesRejected.Inc()
		return
	}
	if masked {
		msg.ICAO = result.ICAO
	}

	metrics.FramesDecoded.WithLabelValues(dfLabel(df)).Inc()

	if !p.filter.Allow(msg) {
		p.logRejectedByFilter(msg)
		return
	}

	now := time.Now()
	p.tracker.Update(msg.ICAO, msg, now)
	metrics.AircraftTracked.Set(float64(p.tracker.Len()))
}

func isMaskedICAODF(df uint8) bool {
	switch df {
	case 0, 4, 5, 16, 20, 21:
		return true
	default:
		return false
	}
}

func dfLabel(df uint8) string {
	const digits = "0123456789"
	if df < 10 {
		return digits[df : df+1]
	}
	return digits[df/10:df/10+1] + digits[df%10:df%10+1]
}

func (p *Pipeline) sweepLoop(ctx context.Context) error {
	t := time.NewTicker(p.sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.ring.Close() // unblock processLoop's pending Pop
			return ctx.Err()
		case <-p.stop:
			return nil
		case now := <-t.C:
			evicted := p.tracker.Sweep(now)
			if evicted > 0 {
				metrics.AircraftEvicted.Add(float64(evicted))
				metrics.AircraftTracked.Set(float64(p.tracker.Len()))
			}
		}
	}
}
