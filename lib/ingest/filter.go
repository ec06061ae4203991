package ingest

import (
	"github.com/rs/zerolog/log"

	"adsbcore/lib/modes"
)

// Filter narrows which decoded messages reach the tracker, by ICAO,
// downlink format, or extended-squitter message type. An empty Filter
// (the zero value) allows everything through.
//
// Adapted from the teacher's lib/example_finder/filter.go, which filtered
// *mode_s.Frame values the same way for debugging a single aircraft or
// message class; this version operates on our own *modes.Message and
// keeps downlink-format and ES-message-type filters in separate lists
// (the original conflated them into one slice).
type Filter struct {
	icaos   map[uint32]struct{}
	dfs     map[uint8]struct{}
	meTypes map[uint8]struct{}
}

// FilterOption configures a Filter at construction time.
type FilterOption func(*Filter)

// WithICAO restricts the filter to one or more specific aircraft.
func WithICAO(icao uint32) FilterOption {
	return func(f *Filter) {
		if f.icaos == nil {
			f.icaos = make(map[uint32]struct{})
		}
		f.icaos[icao] = struct{}{}
	}
}

// WithDownlinkFormat restricts the filter to one or more downlink formats.
func WithDownlinkFormat(df uint8) FilterOption {
	return func(f *Filter) {
		if f.dfs == nil {
			f.dfs = make(map[uint8]struct{})
		}
		f.dfs[df] = struct{}{}
	}
}

// WithMessageType restricts DF17/18 extended squitter frames to one or
// more ME type codes (§4.5's TC dispatch table).
func WithMessageType(meType uint8) FilterOption {
	return func(f *Filter) {
		if f.meTypes == nil {
			f.meTypes = make(map[uint8]struct{})
		}
		f.meTypes[meType] = struct{}{}
	}
}

// WithLocationMessageTypes allows through every TC range that carries a
// position (airborne, surface, or global/local CPR).
func WithLocationMessageTypes() FilterOption {
	return func(f *Filter) {
		for tc := uint8(5); tc <= 22; tc++ {
			WithMessageType(tc)(f)
		}
	}
}

// NewFilter builds a Filter from the given options.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Allow reports whether msg passes every configured restriction. A
// restriction list left empty imposes no constraint.
func (f *Filter) Allow(msg *modes.Message) bool {
	if f == nil {
		return true
	}
	if len(f.icaos) > 0 {
		if _, ok := f.icaos[msg.ICAO]; !ok {
			return false
		}
	}
	if len(f.dfs) > 0 {
		if _, ok := f.dfs[msg.DF]; !ok {
			return false
		}
	}
	if len(f.meTypes) > 0 {
		if msg.ES == nil {
			return false
		}
		if _, ok := f.meTypes[msg.ES.TypeCode]; !ok {
			return false
		}
	}
	return true
}

// WithFilter attaches a Filter to a Pipeline; frames it rejects still
// count toward FramesDecoded but are never handed to the Tracker.
func WithFilter(f *Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

func (p *Pipeline) logRejectedByFilter(msg *modes.Message) {
	log.Debug().Uint32("icao", msg.ICAO).Uint8("df", msg.DF).Msg("frame dropped by filter")
}
