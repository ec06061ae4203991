// Package cpr implements the §4.6 CPR Resolver: combining a paired
// even/odd airborne (or surface) position report into a WGS-84 point, and
// locally-referenced decoding against a trusted nearby fix.
//
// Grounded on other_examples' saviobatista-go1090 cpr.go (dump1090's
// published algorithm), generalized to drop that file's embedded
// per-aircraft map and mutex — state ownership belongs to the Tracker here
// — and to return orb.Point rather than bare float64 pairs.
package cpr

import (
	"errors"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const cprMax = 131072.0 // 2^17

// Frame is one CPR-encoded position report, per §3's CPRFrame.
type Frame struct {
	Odd        bool
	Lat17      uint32
	Lon17      uint32
	CapturedAt time.Time
}

// ErrZoneMismatch is returned when the even/odd pair straddle a latitude
// zone boundary (§7's CPRZoneMismatch) and must be discarded.
var ErrZoneMismatch = errors.New("cpr: even/odd latitude zone mismatch")

// ErrStaleSplit is returned when the two frames were captured more than 10s
// apart, per §4.7's pairing window.
var ErrStaleSplit = errors.New("cpr: even/odd frames too far apart in time")

// MaxPairAge is the maximum separation between an even and odd report that
// a GlobalDecode will accept, per §4.7.
const MaxPairAge = 10 * time.Second

// dlatEven and dlatOdd are the latitude zone heights for the even (60
// zones) and odd (59 zones) airborne CPR formats. Surface position reports
// use a quarter of this span (90 degrees of travel instead of 360), since a
// surface-moving aircraft's position is locally unambiguous over a much
// smaller area; see LocalDecodeSurface.
const (
	dlatEven = 360.0 / 60.0
	dlatOdd  = 360.0 / 59.0

	dlatEvenSurface = 90.0 / 60.0
	dlatOddSurface  = 90.0 / 59.0
)

func cprMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// GlobalDecode resolves a position from a matched even/odd pair, per the
// dump1090 global CPR algorithm described in §4.6.
func GlobalDecode(even, odd Frame) (orb.Point, error) {
	diff := even.CapturedAt.Sub(odd.CapturedAt)
	if diff < 0 {
		diff = -diff
	}
	if diff > MaxPairAge {
		return orb.Point{}, ErrStaleSplit
	}

	lat0 := float64(even.Lat17)
	lat1 := float64(odd.Lat17)
	lon0 := float64(even.Lon17)
	lon1 := float64(odd.Lon17)

	j := math.Floor((59*lat0-60*lat1)/cprMax + 0.5)

	rlat0 := dlatEven * (float64(cprMod(int(j), 60)) + lat0/cprMax)
	rlat1 := dlatOdd * (float64(cprMod(int(j), 59)) + lat1/cprMax)
	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}
	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return orb.Point{}, ErrZoneMismatch
	}
	if NL(rlat0) != NL(rlat1) {
		return orb.Point{}, ErrZoneMismatch
	}

	var rlat, rlon float64
	useOdd := odd.CapturedAt.After(even.CapturedAt)
	if useOdd {
		rlat = rlat1
		ni := nFunc(rlat1, 1)
		m := math.Floor((lon0*float64(NL(rlat1)-1)-lon1*float64(NL(rlat1)))/cprMax + 0.5)
		rlon = dlonFunc(rlat1, 1) * (float64(cprMod(int(m), ni)) + lon1/cprMax)
	} else {
		rlat = rlat0
		ni := nFunc(rlat0, 0)
		m := math.Floor((lon0*float64(NL(rlat0)-1)-lon1*float64(NL(rlat0)))/cprMax + 0.5)
		rlon = dlonFunc(rlat0, 0) * (float64(cprMod(int(m), ni)) + lon0/cprMax)
	}
	rlon -= math.Floor((rlon+180)/360) * 360

	return orb.Point{rlon, rlat}, nil
}

// LocalDecode resolves a position from a single CPR frame against a trusted
// reference point known to be within 180 NM, per §4.6.
func LocalDecode(ref orb.Point, f Frame) (orb.Point, error) {
	dlat := dlatEven
	if f.Odd {
		dlat = dlatOdd
	}
	return localDecode(ref, f, dlat, 360.0)
}

// LocalDecodeSurface resolves a ground-relative position report (TC 5-8,
// §12) against a trusted reference point within 45 NM. Surface CPR frames
// use a quarter of the airborne zone height (90 degrees of arc rather than
// 360), so both the latitude and longitude steps scale down accordingly.
func LocalDecodeSurface(ref orb.Point, f Frame) (orb.Point, error) {
	dlat := dlatEvenSurface
	if f.Odd {
		dlat = dlatOddSurface
	}
	return localDecode(ref, f, dlat, 90.0)
}

func localDecode(ref orb.Point, f Frame, dlat, lonSpan float64) (orb.Point, error) {
	fflag := boolToInt(f.Odd)
	refLat, refLon := ref[1], ref[0]

	j := math.Floor(refLat/dlat) + math.Floor(cprModFloat(refLat, dlat)/dlat-float64(f.Lat17)/cprMax+0.5)
	rlat := dlat * (j + float64(f.Lat17)/cprMax)
	if rlat < -90 || rlat > 90 {
		return orb.Point{}, ErrZoneMismatch
	}

	ni := nFunc(rlat, fflag)
	dlon := lonSpan / float64(ni)
	m := math.Floor(refLon/dlon) + math.Floor(cprModFloat(refLon, dlon)/dlon-float64(f.Lon17)/cprMax+0.5)
	rlon := dlon * (m + float64(f.Lon17)/cprMax)

	return orb.Point{rlon, rlat}, nil
}

func cprModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}

func nFunc(lat float64, fflag int) int {
	n := NL(lat) - fflag
	if n < 1 {
		n = 1
	}
	return n
}

func dlonFunc(lat float64, fflag int) float64 {
	return 360.0 / float64(nFunc(lat, fflag))
}

// Encode packs a WGS-84 point into a 17 bit CPR lat/lon pair for the given
// parity. Used by tests to verify the round trip described in §8 property 3.
func Encode(p orb.Point, odd bool) (lat17, lon17 uint32) {
	dlat := dlatEven
	nz := 60.0
	if odd {
		dlat = dlatOdd
		nz = 59.0
	}
	lat, lon := p[1], p[0]

	yz := math.Floor(cprMax*cprModFloat(lat, dlat)/dlat + 0.5)
	rlat := dlat * (yz/cprMax + math.Floor(lat/dlat))

	ni := float64(nFunc(rlat, boolToInt(odd)))
	var dlon float64
	if ni > 0 {
		dlon = 360.0 / ni
	} else {
		dlon = 360.0
	}
	xz := math.Floor(cprMax*cprModFloat(lon, dlon)/dlon + 0.5)

	lat17 = uint32(int(yz) & 0x1ffff)
	lon17 = uint32(int(xz) & 0x1ffff)
	_ = nz
	return lat17, lon17
}

// DistanceBearing returns the great-circle distance in metres and initial
// bearing in degrees from ref to point, for the receiver-relative annotation
// described in §6/§12 (NOT the CPR algorithm itself — a convenience for
// collaborators publishing a Snapshot).
func DistanceBearing(ref, point orb.Point) (metres, bearingDeg float64) {
	return geo.Distance(ref, point), geo.Bearing(ref, point)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
