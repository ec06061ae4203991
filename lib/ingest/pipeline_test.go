package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbcore/lib/crc"
	"adsbcore/lib/tracker"
	"adsbcore/lib/whitelist"
)

func TestRing_DropsOldestWhenFull(t *testing.T) {
	r := NewRing(2)

	_, ok := r.Push([]byte{1})
	assert.True(t, ok)
	_, ok = r.Push([]byte{2})
	assert.True(t, ok)

	dropped, ok := r.Push([]byte{3})
	assert.False(t, ok)
	assert.Equal(t, []byte{1}, dropped)

	first, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte{2}, first)

	second, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte{3}, second)
}

func TestRing_PopBlocksUntilClosed(t *testing.T) {
	r := NewRing(1)

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	r.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock on Close")
	}
}

func TestPipeline_RunStopsOnStop(t *testing.T) {
	trk := tracker.New(tracker.WithWhitelist(whitelist.New(time.Minute, time.Minute)))
	p := New(crc.New(), whitelist.New(time.Minute, time.Minute), trk, WithSweepInterval(50*time.Millisecond), WithTag("test"))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	p.Stop()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPipeline_RunStopsOnContextCancel(t *testing.T) {
	trk := tracker.New()
	p := New(crc.New(), whitelist.New(time.Minute, time.Minute), trk)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}

func TestPipeline_PushIQDecodesAndTracksDF11(t *testing.T) {
	wl := whitelist.New(time.Minute, time.Minute)
	trk := tracker.New(tracker.WithWhitelist(wl))
	p := New(crc.New(), wl, trk, WithSweepInterval(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	defer p.Stop()

	frame := buildDF11Frame(t, 0x4840d6)
	p.PushIQ(frameToIQ(frame))

	require.Eventually(t, func() bool {
		return trk.Len() == 1
	}, time.Second, 5*time.Millisecond)
}

// buildDF11Frame assembles a 7 byte DF11 (all-call reply) frame with a
// correct CRC for the given ICAO, used as a decode-pipeline smoke fixture.
// DF11 carries its ICAO in clear (unmasked CRC) and self-seeds the
// whitelist, so this fixture needs no pre-populated whitelist entry.
func buildDF11Frame(t *testing.T, icao uint32) []byte {
	t.Helper()
	data := []byte{
		11<<3 | 0x04, // DF=11, CA=4
		byte(icao >> 16), byte(icao >> 8), byte(icao),
		0, 0, 0,
	}
	e := crc.New()
	sum := e.ComputeCRC(data)
	data[4] = byte(sum >> 16)
	data[5] = byte(sum >> 8)
	data[6] = byte(sum)
	return data
}

// high and low are I/Q byte pairs chosen so magnitude.Map maps high well
// above low (127,127 is the table's zero point, so a pair offset from it
// maps to a large magnitude and (127,127) maps to exactly zero).
var (
	highSample = [2]byte{200, 127}
	lowSample  = [2]byte{127, 127}
)

// frameToIQ expands a decoded-bit frame into a preamble + PPM-encoded I/Q
// byte stream the mapper/detector/demodulator chain can round-trip,
// mirroring the bit-cell convention demod.decodeBits expects (a>b => 1).
func frameToIQ(frame []byte) []byte {
	var samples [][2]byte
	// preamble: pulses at 0,2,7,9 high (each followed by a low sample so
	// the "> next" test holds), the rest low, within a 16 sample window.
	preambleHigh := map[int]bool{0: true, 2: true, 7: true, 9: true}
	for i := 0; i < 16; i++ {
		if preambleHigh[i] {
			samples = append(samples, highSample)
		} else {
			samples = append(samples, lowSample)
		}
	}

	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				samples = append(samples, highSample, lowSample)
			} else {
				samples = append(samples, lowSample, highSample)
			}
		}
	}

	iq := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		iq = append(iq, s[0], s[1])
	}
	return iq
}
