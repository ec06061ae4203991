package crc

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoErrorf(t, err, "bad hex %q", s)
	return b
}

func TestCheck_ValidDF17(t *testing.T) {
	e := New()
	// DF17 identification frame from the end-to-end scenario corpus
	data := mustDecode(t, "8D4840D6202CC371C32CE0576098")
	res, err := e.Check(data, false, nil)
	require.NoError(t, err, "expected valid frame")
	assert.True(t, res.Valid)
	assert.Equal(t, NoCorrection, res.Correction)
}

func TestCheck_SingleBitFlipDetectedAndCorrectable(t *testing.T) {
	e := New(WithMode(ModeOneBit))
	good := mustDecode(t, "8D4840D6202CC371C32CE0576098")

	flipped := make([]byte, len(good))
	copy(flipped, good)
	flipped[2] ^= 0x01 // flip a data bit in the ICAO field

	_, err := New(WithMode(ModeNone)).Check(flipped, false, nil)
	assert.Error(t, err, "expected the flipped frame to fail CRC with correction disabled")

	res, err := e.Check(flipped, false, nil)
	require.NoError(t, err, "expected one-bit correction to succeed")
	assert.Equal(t, OneBitCorrection, res.Correction)
	assert.Equal(t, hex.EncodeToString(good), hex.EncodeToString(res.Data))
}

func TestCheck_MaskedICAORecovery(t *testing.T) {
	e := New()
	const whitelisted uint32 = 0x7C1234

	// build a DF4 body with an arbitrary payload, then mask in the ICAO
	data := make([]byte, 7)
	data[0] = 4 << 3 // DF4
	data[3] = 0xAB
	data[4] = 0x12

	plain := e.ComputeCRC(data)
	masked := plain ^ whitelisted
	data[4] = byte(masked >> 16)
	data[5] = byte(masked >> 8)
	data[6] = byte(masked)

	allow := func(icao uint32) bool { return icao == whitelisted }
	res, err := e.Check(data, true, allow)
	require.NoError(t, err, "expected masked ICAO recovery to succeed")
	assert.Equal(t, whitelisted, res.ICAO)
}

func TestCheck_MaskedICAORejectedWithEmptyWhitelist(t *testing.T) {
	e := New(WithMode(ModeNone))
	data := make([]byte, 7)
	data[0] = 4 << 3
	data[3] = 0xAB
	// leave the trailing 3 bytes as an arbitrary, non-matching value
	data[4], data[5], data[6] = 0x11, 0x22, 0x33

	allow := func(uint32) bool { return false }
	_, err := e.Check(data, true, allow)
	assert.ErrorIs(t, err, ErrUnknownICAO)
}
