package tracker

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbcore/lib/cpr"
	"adsbcore/lib/modes"
	"adsbcore/lib/whitelist"
)

func decode(t *testing.T, s string) *modes.Message {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err, "bad hex")
	msg, err := modes.Decode(b)
	require.NoError(t, err, "Decode")
	return msg
}

func TestUpdate_IdentificationPopulatesCallsign(t *testing.T) {
	tr := New()
	msg := decode(t, "8D4840D6202CC371C32CE0576098")
	now := time.Now()

	tr.Update(msg.ICAO, msg, now)

	snaps := tr.Snapshot()
	require.Lenf(t, snaps, 0, "one message should still be a ghost below min_messages")

	tr.Update(msg.ICAO, msg, now.Add(time.Second))
	snaps = tr.Snapshot()
	require.Len(t, snaps, 1, "expected 1 visible record after 2 messages")
	assert.Equal(t, "KLM1023", snaps[0].Callsign)
}

func TestUpdate_EvenOddPairResolvesPosition(t *testing.T) {
	tr := New(WithMinMessages(1))

	want := orb.Point{4.48, 51.9} // matches the cpr package's own round-trip fixture
	elat, elon := cpr.Encode(want, false)
	olat, olon := cpr.Encode(want, true)

	even := &modes.Message{
		ICAO: 0x4840D6,
		Kind: modes.KindExtendedSquitter,
		ES: &modes.ExtendedSquitter{
			Kind: modes.MEAirbornePosition,
			AirbornePosition: &modes.AirbornePosition{
				AltitudeOK: true,
				AltitudeFt: 38000,
				Odd:        false,
				Lat17:      elat,
				Lon17:      elon,
			},
		},
	}
	odd := &modes.Message{
		ICAO: 0x4840D6,
		Kind: modes.KindExtendedSquitter,
		ES: &modes.ExtendedSquitter{
			Kind: modes.MEAirbornePosition,
			AirbornePosition: &modes.AirbornePosition{
				AltitudeOK: true,
				AltitudeFt: 38000,
				Odd:        true,
				Lat17:      olat,
				Lon17:      olon,
			},
		},
	}

	now := time.Now()
	tr.Update(even.ICAO, even, now)
	tr.Update(odd.ICAO, odd, now.Add(time.Second))

	snaps := tr.Snapshot()
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].HasPosition, "expected position to resolve from even/odd pair")
}

func TestSweep_EvictsStaleRecords(t *testing.T) {
	tr := New(WithTTL(time.Minute), WithMinMessages(1))
	msg := decode(t, "8D4840D6202CC371C32420F94B3D")

	base := time.Now()
	tr.Update(msg.ICAO, msg, base)
	require.Equal(t, 1, tr.Len())

	evicted := tr.Sweep(base.Add(30 * time.Second))
	assert.Equal(t, 0, evicted, "record within TTL should not be evicted")

	evicted = tr.Sweep(base.Add(2 * time.Minute))
	assert.Equal(t, 1, evicted, "expected 1 eviction past TTL")
	assert.Equal(t, 0, tr.Len())
}

func TestUpdate_MaskedICAOWithoutWhitelistEntryIsIgnored(t *testing.T) {
	w := whitelist.New(time.Minute, time.Minute)
	tr := New(WithWhitelist(w), WithMinMessages(1))

	altReply := &modes.Message{
		ICAO: 0xABCDEF,
		Kind: modes.KindAltitudeReply,
		AltitudeReply: &modes.AltitudeReply{
			AltitudeOK: true,
			AltitudeFt: 10000,
		},
	}
	tr.Update(altReply.ICAO, altReply, time.Now())
	assert.Equal(t, 0, tr.Len(), "unwhitelisted masked-ICAO address should not create a record")

	w.Add(altReply.ICAO)
	tr.Update(altReply.ICAO, altReply, time.Now())
	assert.Equal(t, 1, tr.Len(), "whitelisted address should create a record")
}

func TestConcurrentUpdates(t *testing.T) {
	tr := New(WithMinMessages(1))
	msg := decode(t, "8D4840D6202CC371C32420F94B3D")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				tr.Update(msg.ICAO, msg, time.Now())
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, 1, tr.Len(), "expected a single merged record under concurrent updates")
}
