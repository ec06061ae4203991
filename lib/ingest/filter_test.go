package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adsbcore/lib/modes"
)

func TestFilter_NilAllowsEverything(t *testing.T) {
	var f *Filter
	assert.True(t, f.Allow(&modes.Message{ICAO: 0x123456}))
}

func TestFilter_RestrictsByICAO(t *testing.T) {
	f := NewFilter(WithICAO(0x4840D6))
	assert.True(t, f.Allow(&modes.Message{ICAO: 0x4840D6}))
	assert.False(t, f.Allow(&modes.Message{ICAO: 0x123456}))
}

func TestFilter_RestrictsByDownlinkFormat(t *testing.T) {
	f := NewFilter(WithDownlinkFormat(17))
	assert.True(t, f.Allow(&modes.Message{DF: 17}))
	assert.False(t, f.Allow(&modes.Message{DF: 11}))
}

func TestFilter_RestrictsByMessageType(t *testing.T) {
	f := NewFilter(WithMessageType(5))
	assert.True(t, f.Allow(&modes.Message{ES: &modes.ExtendedSquitter{TypeCode: 5}}))
	assert.False(t, f.Allow(&modes.Message{ES: &modes.ExtendedSquitter{TypeCode: 6}}))
	assert.False(t, f.Allow(&modes.Message{}), "no ES payload should fail a message-type restriction")
}

func TestFilter_LocationMessageTypesCoversFullRange(t *testing.T) {
	f := NewFilter(WithLocationMessageTypes())
	for tc := uint8(5); tc <= 22; tc++ {
		assert.True(t, f.Allow(&modes.Message{ES: &modes.ExtendedSquitter{TypeCode: tc}}), "TC %d should be allowed", tc)
	}
	assert.False(t, f.Allow(&modes.Message{ES: &modes.ExtendedSquitter{TypeCode: 4}}), "TC 4 (identification) is not a location type")
}

func TestFilter_CombinesRestrictions(t *testing.T) {
	f := NewFilter(WithICAO(0x4840D6), WithDownlinkFormat(17))
	assert.True(t, f.Allow(&modes.Message{ICAO: 0x4840D6, DF: 17}))
	assert.False(t, f.Allow(&modes.Message{ICAO: 0x4840D6, DF: 11}), "wrong DF should be rejected even with matching ICAO")
	assert.False(t, f.Allow(&modes.Message{ICAO: 0x999999, DF: 17}), "wrong ICAO should be rejected even with matching DF")
}
