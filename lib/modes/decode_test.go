package modes

import (
	"encoding/hex"
	"math"
	"testing"
)

func decode(t *testing.T, s string) *Message {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %s", err)
	}
	msg, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	return msg
}

func TestDecode_ScenarioA_Identification(t *testing.T) {
	msg := decode(t, "8D4840D6202CC371C32CE0576098")
	if msg.ICAO != 0x4840D6 {
		t.Fatalf("expected ICAO 4840D6, got %06X", msg.ICAO)
	}
	if msg.Kind != KindExtendedSquitter || msg.ES.Kind != MEIdentification {
		t.Fatalf("expected identification ES, got %+v", msg)
	}
	if msg.ES.Identification.Callsign != "KLM1023" {
		t.Errorf("expected callsign KLM1023, got %q", msg.ES.Identification.Callsign)
	}
}

func TestDecode_ScenarioC_Velocity(t *testing.T) {
	msg := decode(t, "8D485020994409940838175B284F")
	if msg.ES.Kind != MEAirborneVelocity {
		t.Fatalf("expected velocity ES, got %+v", msg.ES)
	}
	v := msg.ES.AirborneVelocity
	if math.Abs(v.GroundSpeedKt-159) > 1 {
		t.Errorf("expected ~159 kt, got %.1f", v.GroundSpeedKt)
	}
	if math.Abs(v.TrackDeg-183) > 1 {
		t.Errorf("expected ~183 deg track, got %.1f", v.TrackDeg)
	}
	if !v.VerticalRateOK || math.Abs(float64(v.VerticalRateFpm-(-832))) > 64 {
		t.Errorf("expected ~-832 fpm, got %d", v.VerticalRateFpm)
	}
}

func TestDecodeSquawk_Emergency(t *testing.T) {
	// A=7 B=7 C=0 D=0 -> squawk 7700, packed per the Gillham bit order in
	// §4.5 (C1 A1 C2 A2 C4 A4 _ B1 D1 B2 D2 B4 D4).
	sq := decodeSquawk(0x0A, 0xAA)
	if sq != 7700 {
		t.Errorf("expected squawk 7700, got %d", sq)
	}
}

func TestDecodeAC13_QBit(t *testing.T) {
	// N=56 -> (56*25)-1000 = 400ft. With Q=1, M=0, N packs into the 13 bit
	// AC field as 0xB8 (bit7=N[5], bit5=N[4], bit4=Q, bit3=N[3]).
	ac := uint32(0xB8)
	ft, metres, ok := DecodeAC13(ac)
	if metres || !ok {
		t.Fatalf("expected a valid imperial decode, got metres=%v ok=%v", metres, ok)
	}
	if ft != 400 {
		t.Errorf("expected 400 ft, got %d", ft)
	}
}

func TestDecodeAC12_QBit(t *testing.T) {
	// Same N=56 value as TestDecodeAC13_QBit (->400ft), packed into the 12
	// bit ES altitude field instead: N occupies bits 11-5 and 3-0, Q is
	// bit4, with no M bit. ac = 0x78: bit6=1,bit5=1 (N[10:4]=3<<... ->
	// ((ac&0x0fe0)>>1)=48), bit4=1 (Q), bit3=1 (ac&0x000f=8); 48|8=56.
	ft, ok := DecodeAC12(0x78)
	if !ok {
		t.Fatal("expected a valid decode")
	}
	if ft != 400 {
		t.Errorf("expected 400 ft, got %d", ft)
	}
}

func TestDecodeAC12_GillhamPath(t *testing.T) {
	// ac=0x0800 is the 12 bit field that results from compressing
	// ac13=0x1000 (bit12 set, M=0 at bit6, Q=0 at bit4) by removing the M
	// bit, per DecodeAC12's "reinsert M=0 at bit 6" transform. Both must
	// decode to the same altitude, since decodeID13Field sees an
	// identical 13 bit value either way.
	want13, metres, ok13 := DecodeAC13(0x1000)
	if metres || !ok13 {
		t.Fatalf("fixture precondition failed: DecodeAC13(0x1000) = %v, metres=%v ok=%v", want13, metres, ok13)
	}

	ft, ok := DecodeAC12(0x0800)
	if !ok {
		t.Fatal("expected a valid Gillham decode")
	}
	if ft != want13 {
		t.Errorf("expected DecodeAC12 to agree with DecodeAC13 (%d ft), got %d ft", want13, ft)
	}
	if ft != -800 {
		t.Errorf("expected -800 ft, got %d", ft)
	}
}

func TestDecodeCallsign_TrimsTrailingSpace(t *testing.T) {
	b, _ := hex.DecodeString("202CC371C32CE0")
	if got := decodeCallsign(b[1:7]); got != "KLM1023" {
		t.Errorf("expected KLM1023, got %q", got)
	}
}
