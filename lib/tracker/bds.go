package tracker

import "adsbcore/lib/modes"

// bdsResult carries whichever BDS 20/40/50/60 fields a Comm-B MB block
// decoded to, plus a confidence score used to pick among candidates per
// §9 ("prefer the one whose status bits are all set").
type bdsResult struct {
	register    string
	score       int
	callsign    string
	hasCallsign bool

	mcpAltFt, fmsAltFt   int32
	hasMCPAlt, hasFMSAlt bool
	baroMb               float64
	hasBaro              bool

	rollDeg, trueTrackDeg, tasKt float64
	hasRoll, hasTrueTrack, hasTAS bool
	groundSpeedKt                 float64
	hasGroundSpeed                bool

	headingDeg, iasKt, mach float64
	hasHeading, hasIAS, hasMach bool
}

func signExtend(v uint32, bits uint) int32 {
	m := int32(1) << (bits - 1)
	x := int32(v)
	return (x ^ m) - m
}

// classifyBDS attempts each of the §4.7 candidate BDS registers against mb
// (7 bytes) and returns the best-scoring match, or nil if none passes its
// sanity checks.
func classifyBDS(mb []byte) *bdsResult {
	var best *bdsResult
	for _, try := range []func([]byte) *bdsResult{bds10, bds20, bds40, bds50, bds60} {
		if r := try(mb); r != nil && (best == nil || r.score > best.score) {
			best = r
		}
	}
	return best
}

func bds10(mb []byte) *bdsResult {
	if mb[0] != 0x10 {
		return nil
	}
	return &bdsResult{register: "1,0", score: 1}
}

func bds20(mb []byte) *bdsResult {
	if mb[0] != 0x20 {
		return nil
	}
	return &bdsResult{register: "2,0", score: 1, callsign: modes.DecodeCallsign(mb[1:7]), hasCallsign: true}
}

func bds40(mb []byte) *bdsResult {
	r := &bdsResult{register: "4,0"}
	if mb[0]&0x80 != 0 {
		raw := (uint32(mb[0]&0x7f) << 5) | uint32(mb[1]>>3)
		r.mcpAltFt = int32(raw) * 16
		r.hasMCPAlt = true
		r.score++
	}
	if mb[1]&0x04 != 0 {
		raw := (uint32(mb[1]&0x03) << 10) | (uint32(mb[2]) << 2) | uint32(mb[3]>>6)
		r.fmsAltFt = int32(raw) * 16
		r.hasFMSAlt = true
		r.score++
	}
	if mb[3]&0x20 != 0 {
		raw := (uint32(mb[3]&0x1f) << 7) | uint32(mb[4]>>1)
		r.baroMb = 800 + float64(raw)*0.1
		r.hasBaro = true
		r.score++
	}
	if r.score == 0 {
		return nil
	}
	return r
}

func bds50(mb []byte) *bdsResult {
	r := &bdsResult{register: "5,0"}

	if mb[0]&0x80 != 0 {
		raw := (uint32(mb[0]&0x7f) << 4) | uint32(mb[1]>>4)
		deg := float64(signExtend(raw, 11)) * 45.0 / 256.0
		if deg < -50 || deg > 50 {
			return nil
		}
		r.rollDeg, r.hasRoll = deg, true
		r.score++
	}
	if mb[1]&0x08 != 0 {
		raw := (uint32(mb[1]&0x07) << 8) | uint32(mb[2])
		r.trueTrackDeg = float64(signExtend(raw, 11)) * 90.0 / 512.0
		r.hasTrueTrack = true
		r.score++
	}
	if mb[3]&0x80 != 0 {
		raw := (uint32(mb[3]&0x7f) << 3) | uint32(mb[4]>>5)
		r.groundSpeedKt = float64(raw) * 2
		r.hasGroundSpeed = true
		r.score++
	}
	if mb[5]&0x02 != 0 {
		raw := (uint32(mb[5]&0x01) << 8) | uint32(mb[6])
		tas := float64(raw) * 2
		if tas > 500 {
			return nil
		}
		r.tasKt, r.hasTAS = tas, true
		r.score++
	}
	if r.score == 0 {
		return nil
	}
	return r
}

func bds60(mb []byte) *bdsResult {
	r := &bdsResult{register: "6,0"}

	if mb[0]&0x80 != 0 {
		raw := (uint32(mb[0]&0x7f) << 4) | uint32(mb[1]>>4)
		r.headingDeg = float64(signExtend(raw, 11)) * 90.0 / 512.0
		r.hasHeading = true
		r.score++
	}
	if mb[1]&0x08 != 0 {
		raw := (uint32(mb[1]&0x07) << 7) | uint32(mb[2]>>1)
		ias := float64(raw)
		if ias > 500 {
			return nil
		}
		r.iasKt, r.hasIAS = ias, true
		r.score++
	}
	if mb[2]&0x01 != 0 {
		raw := (uint32(mb[3]) << 2) | uint32(mb[4]>>6)
		mach := float64(raw) * 0.008
		if mach > 1 {
			return nil
		}
		r.mach, r.hasMach = mach, true
		r.score++
	}
	if r.score == 0 {
		return nil
	}
	return r
}
