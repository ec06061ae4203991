package tracker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"adsbcore/lib/cpr"
	"adsbcore/lib/metrics"
	"adsbcore/lib/modes"
	"adsbcore/lib/whitelist"
)

// lastSeenEntry orders records by (LastSeen, ICAO) in the eviction index, so
// a TTL sweep can walk from the oldest entry and stop as soon as it reaches
// one still within the TTL window.
type lastSeenEntry struct {
	lastSeen int64
	icao     uint32
}

func (a lastSeenEntry) Less(than btree.Item) bool {
	b := than.(lastSeenEntry)
	if a.lastSeen != b.lastSeen {
		return a.lastSeen < b.lastSeen
	}
	return a.icao < b.icao
}

// Option configures a Tracker at construction time.
type Option func(*Tracker)

// WithTTL overrides the default 60s eviction TTL.
func WithTTL(d time.Duration) Option {
	return func(t *Tracker) { t.ttl = d }
}

// WithMinMessages overrides the default ghost-suppression threshold of 2.
func WithMinMessages(n int) Option {
	return func(t *Tracker) { t.minMessages = n }
}

// WithReference sets a trusted reference point used for local CPR decoding
// when no fresh even/odd pair is available.
func WithReference(p orb.Point) Option {
	return func(t *Tracker) { t.reference = &p }
}

// WithWhitelist attaches the ICAO whitelist a new record must be validated
// against before creation for masked-ICAO forms.
func WithWhitelist(w *whitelist.Whitelist) Option {
	return func(t *Tracker) { t.whitelist = w }
}

// Tracker maintains the set of known aircraft described in §4.7. All
// mutation happens under one mutex, per §9's "a single mutex over the
// tracker map is sufficient at expected frame rates".
type Tracker struct {
	mu          sync.Mutex
	records     map[uint32]*AircraftRecord
	evictionIdx *btree.BTree

	ttl         time.Duration
	minMessages int
	reference   *orb.Point
	whitelist   *whitelist.Whitelist
}

// New builds a Tracker with the §4.7 defaults (ttl=60s, min_messages=2).
func New(opts ...Option) *Tracker {
	t := &Tracker{
		records:     make(map[uint32]*AircraftRecord),
		evictionIdx: btree.New(32),
		ttl:         60 * time.Second,
		minMessages: 2,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// selfIdentifying reports whether msg carries icao in the clear (DF11, and
// DF17/DF18-CF0 extended squitters), per §4.4's whitelist-seeding rule.
// DF18 CF>=1 non-transponder forms are excluded per §12.
func selfIdentifying(msg *modes.Message) bool {
	switch msg.Kind {
	case modes.KindAllCall:
		return true
	case modes.KindExtendedSquitter:
		return !msg.ES.NonTransponder
	}
	return false
}

// Update integrates one decoded message for icao, creating the record if
// needed. now is the message's arrival time (monotonic clock recommended).
// For a masked-ICAO DF (AltitudeReply/IdentityReply/AirAir) on a previously
// unseen address, the record is only created if icao is already whitelisted
// from an earlier self-identifying frame, per §4.4/§9's "masked ICAO
// ambiguity" guidance.
func (t *Tracker) Update(icao uint32, msg *modes.Message, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.whitelist != nil && selfIdentifying(msg) {
		t.whitelist.Add(icao)
	}

	r, exists := t.records[icao]
	if !exists {
		if t.whitelist != nil && !selfIdentifying(msg) && !t.whitelist.Contains(icao) {
			return
		}
		r = newRecord(icao, now)
		t.records[icao] = r
	} else {
		t.evictionIdx.Delete(lastSeenEntry{lastSeen: r.LastSeen.UnixNano(), icao: icao})
	}
	r.LastSeen = now
	r.MessageCount++
	t.evictionIdx.ReplaceOrInsert(lastSeenEntry{lastSeen: now.UnixNano(), icao: icao})

	t.merge(r, msg, now)
}

func (t *Tracker) merge(r *AircraftRecord, msg *modes.Message, now time.Time) {
	switch msg.Kind {
	case modes.KindAllCall:
		// capability only; nothing further to merge.

	case modes.KindAltitudeReply:
		ar := msg.AltitudeReply
		r.OnGround = ar.OnGround
		if ar.AltitudeOK {
			r.AltitudeFt, r.HasAltitude = ar.AltitudeFt, true
		}
		if len(ar.MB) == 7 {
			t.mergeBDS(r, ar.MB)
		}

	case modes.KindIdentityReply:
		ir := msg.IdentityReply
		r.OnGround = ir.OnGround
		r.Squawk = ir.Squawk
		r.Emergency = r.Emergency || ir.Emergency
		if len(ir.MB) == 7 {
			t.mergeBDS(r, ir.MB)
		}

	case modes.KindAirAir:
		aa := msg.AirAir
		r.OnGround = aa.OnGround
		if aa.AltitudeOK {
			r.AltitudeFt, r.HasAltitude = aa.AltitudeFt, true
		}

	case modes.KindExtendedSquitter:
		t.mergeES(r, msg.ES, now)
	}
}

func (t *Tracker) mergeBDS(r *AircraftRecord, mb []byte) {
	res := classifyBDS(mb)
	if res == nil {
		metrics.BDSInconsistent.Inc()
		return
	}
	if res.hasCallsign {
		r.Callsign = res.callsign
	}
	if res.hasMCPAlt || res.hasFMSAlt {
		alt := res.mcpAltFt
		if res.hasFMSAlt {
			alt = res.fmsAltFt
		}
		r.SelectedAltitudeFt, r.HasSelectedAlt = alt, true
	}
	if res.hasRoll {
		r.RollDeg, r.HasRoll = res.rollDeg, true
	}
	if res.hasTrueTrack {
		r.TrueTrackDeg, r.HasTrueTrack = res.trueTrackDeg, true
	}
	if res.hasTAS {
		r.TrueAirspeedKt, r.HasTAS = res.tasKt, true
	}
	if res.hasIAS {
		r.IASKt, r.HasIAS = res.iasKt, true
	}
	if res.hasMach {
		r.Mach, r.HasMach = res.mach, true
	}
}

func (t *Tracker) mergeES(r *AircraftRecord, es *modes.ExtendedSquitter, now time.Time) {
	switch es.Kind {
	case modes.MEIdentification:
		r.Callsign = es.Identification.Callsign

	case modes.MEAirbornePosition:
		ap := es.AirbornePosition
		if ap.AltitudeOK {
			r.AltitudeFt, r.HasAltitude = ap.AltitudeFt, true
		}
		t.mergePosition(r, cpr.Frame{Odd: ap.Odd, Lat17: ap.Lat17, Lon17: ap.Lon17, CapturedAt: now})

	case modes.MESurfacePosition:
		r.OnGround = true
		sp := es.SurfacePosition
		if sp.HeadingOK {
			r.TrackDeg = sp.Heading
		}
		// Surface CPR zones use a 90 degree span (vs 360 airborne) and are
		// only locally unambiguous, so these are resolved against the
		// configured reference rather than paired with the airborne
		// even/odd slots (§12's "decode but gate" resolution).
		if t.reference != nil {
			f := cpr.Frame{Odd: sp.Odd, Lat17: sp.Lat17, Lon17: sp.Lon17, CapturedAt: now}
			if p, err := cpr.LocalDecodeSurface(*t.reference, f); err == nil {
				r.Position, r.HasPosition = p, true
				t.annotateDistance(r)
			}
		}

	case modes.MEAirborneVelocity:
		v := es.AirborneVelocity
		r.GroundSpeedKt = v.GroundSpeedKt
		if !v.HeadingOK {
			r.TrackDeg = v.TrackDeg
		}
		if v.VerticalRateOK {
			r.VerticalRateFpm, r.HasVerticalRate = v.VerticalRateFpm, true
		}

	case modes.MEAircraftStatus:
		as := es.AircraftStatus
		if as.Subtype == 1 {
			r.Emergency = as.EmergencyCode != 0
			r.EmergencyCode = as.EmergencyCode
		}

	case modes.MEOperationalStatus:
		r.OnGround = es.OperationalStatus.OnGround
	}
}

// mergePosition implements the even/odd CPR pairing and global decode
// described in §4.7.
func (t *Tracker) mergePosition(r *AircraftRecord, f cpr.Frame) {
	if f.Odd {
		r.oddCPR = &f
	} else {
		r.evenCPR = &f
	}

	if r.evenCPR == nil || r.oddCPR == nil {
		if t.reference != nil {
			if p, err := cpr.LocalDecode(*t.reference, f); err == nil {
				r.Position, r.HasPosition = p, true
				t.annotateDistance(r)
			}
		}
		return
	}

	p, err := cpr.GlobalDecode(*r.evenCPR, *r.oddCPR)
	if err != nil {
		if errors.Is(err, cpr.ErrZoneMismatch) {
			metrics.CPRZoneMismatches.Inc()
		}
		log.Debug().Uint32("icao", r.ICAO).Err(err).Msg("cpr global decode deferred")
		if errors.Is(err, cpr.ErrStaleSplit) && t.reference != nil {
			if p, err := cpr.LocalDecode(*t.reference, f); err == nil {
				r.Position, r.HasPosition = p, true
				t.annotateDistance(r)
			}
		}
		return
	}
	r.Position, r.HasPosition = p, true
	t.annotateDistance(r)
}

// annotateDistance fills in the receiver-relative distance/bearing pair
// described in §6/§12, when the tracker has a reference point configured.
func (t *Tracker) annotateDistance(r *AircraftRecord) {
	if t.reference == nil || !r.HasPosition {
		return
	}
	r.DistanceM, r.BearingDeg = cpr.DistanceBearing(*t.reference, r.Position)
	r.HasDistance = true
}

// Sweep evicts every record whose last_seen is older than now-ttl. Intended
// to run on a ≤1Hz timer per §5.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.ttl).UnixNano()
	var expired []lastSeenEntry
	t.evictionIdx.Ascend(func(item btree.Item) bool {
		e := item.(lastSeenEntry)
		if e.lastSeen >= cutoff {
			return false
		}
		expired = append(expired, e)
		return true
	})
	for _, e := range expired {
		t.evictionIdx.Delete(e)
		delete(t.records, e.icao)
	}
	return len(expired)
}

// Snapshot returns every visible (non-ghost) aircraft, per §4.7's
// visibility filter.
func (t *Tracker) Snapshot() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Snapshot, 0, len(t.records))
	for _, r := range t.records {
		if r.visible(t.minMessages) {
			out = append(out, r.snapshot())
		}
	}
	return out
}

// Len reports the total number of tracked records, including ghosts.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
