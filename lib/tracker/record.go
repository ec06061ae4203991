// Package tracker implements the §4.7 Aircraft Tracker: per-ICAO state,
// CPR position merging, BDS register classification, TTL eviction and
// ghost-filtering.
package tracker

import (
	"time"

	"github.com/paulmach/orb"

	"adsbcore/lib/cpr"
)

// AircraftRecord is the per-ICAO state described in §3's data model.
// Mutated only while the owning Tracker's mutex is held; per §9 "a single
// mutex over the tracker map is sufficient at expected frame rates", no
// per-record lock is used.
type AircraftRecord struct {
	ICAO uint32 // immutable after creation

	Callsign        string
	AltitudeFt      int32
	HasAltitude     bool
	GroundSpeedKt   float64
	TrackDeg        float64
	VerticalRateFpm int32
	HasVerticalRate bool
	Squawk          uint16
	OnGround        bool
	Emergency       bool
	EmergencyCode   uint8

	Position     orb.Point
	HasPosition  bool
	DistanceM    float64
	BearingDeg   float64
	HasDistance  bool
	evenCPR      *cpr.Frame
	oddCPR       *cpr.Frame

	// BDS-derived fields.
	IASKt              float64
	HasIAS             bool
	Mach               float64
	HasMach            bool
	SelectedAltitudeFt int32
	HasSelectedAlt     bool
	RollDeg            float64
	HasRoll            bool
	TrueTrackDeg       float64
	HasTrueTrack       bool
	TrueAirspeedKt     float64
	HasTAS             bool

	MessageCount uint64
	FirstSeen    time.Time
	LastSeen     time.Time
}

func newRecord(icao uint32, now time.Time) *AircraftRecord {
	return &AircraftRecord{ICAO: icao, FirstSeen: now, LastSeen: now}
}

// visible reports whether the record has crossed the ghost-suppression
// threshold.
func (r *AircraftRecord) visible(minMessages int) bool {
	return r.MessageCount >= uint64(minMessages)
}

// Snapshot is the read-only view published to collaborators, per §6's
// Snapshot interface.
type Snapshot struct {
	ICAOHex         string
	Callsign        string
	Squawk          uint16
	AltitudeFt      int32
	GroundSpeedKt   float64
	TrackDeg        float64
	VerticalRateFpm int32
	Latitude        float64
	Longitude       float64
	HasPosition     bool
	DistanceM       float64
	BearingDeg      float64
	HasDistance     bool
	LastSeen        time.Time
	MessageCount    uint64
	Emergency       bool
	OnGround        bool
	IASKt           float64
	Mach            float64
	SelectedAltitudeFt int32
}

func (r *AircraftRecord) snapshot() Snapshot {
	s := Snapshot{
		ICAOHex:            icaoHex(r.ICAO),
		Callsign:           r.Callsign,
		Squawk:             r.Squawk,
		AltitudeFt:         r.AltitudeFt,
		GroundSpeedKt:      r.GroundSpeedKt,
		TrackDeg:           r.TrackDeg,
		VerticalRateFpm:    r.VerticalRateFpm,
		HasPosition:        r.HasPosition,
		DistanceM:          r.DistanceM,
		BearingDeg:         r.BearingDeg,
		HasDistance:        r.HasDistance,
		LastSeen:           r.LastSeen,
		MessageCount:       r.MessageCount,
		Emergency:          r.Emergency,
		OnGround:           r.OnGround,
		IASKt:              r.IASKt,
		Mach:               r.Mach,
		SelectedAltitudeFt: r.SelectedAltitudeFt,
	}
	if r.HasPosition {
		s.Longitude, s.Latitude = r.Position[0], r.Position[1]
	}
	return s
}

func icaoHex(icao uint32) string {
	const hexDigits = "0123456789ABCDEF"
	b := [6]byte{}
	v := icao
	for i := 5; i >= 0; i-- {
		b[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(b[:])
}
