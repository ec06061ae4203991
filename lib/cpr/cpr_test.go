package cpr

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNL_Boundaries(t *testing.T) {
	assert.Equal(t, 59, NL(0), "expected 59 zones at the equator")
	assert.Equal(t, 1, NL(89), "expected 1 zone near the pole")
	assert.Equal(t, 1, NL(-87), "expected NL to be symmetric about 0")
}

func TestGlobalDecode_RoundTrip(t *testing.T) {
	cases := []orb.Point{
		{4.48, 51.9}, // Rotterdam-ish, matches the worked example's ICAO region
		{-0.45, 51.47},
		{-122.3, 47.6},
		{0, 0},
		{30, 80},
	}
	now := time.Now()
	for _, want := range cases {
		elat, elon := Encode(want, false)
		olat, olon := Encode(want, true)
		even := Frame{Odd: false, Lat17: elat, Lon17: elon, CapturedAt: now}
		odd := Frame{Odd: true, Lat17: olat, Lon17: olon, CapturedAt: now.Add(time.Second)}

		got, err := GlobalDecode(even, odd)
		require.NoErrorf(t, err, "GlobalDecode(%v)", want)

		distDeg := math.Hypot(got[0]-want[0], got[1]-want[1])
		assert.LessOrEqualf(t, distDeg, 0.0001, "round trip for %v: got %v", want, got) // ~11m at the equator
	}
}

func TestGlobalDecode_StalePairRejected(t *testing.T) {
	now := time.Now()
	even := Frame{CapturedAt: now}
	odd := Frame{Odd: true, CapturedAt: now.Add(11 * time.Second)}
	_, err := GlobalDecode(even, odd)
	assert.ErrorIs(t, err, ErrStaleSplit)
}
