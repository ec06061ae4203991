package modes

// invalidModeC is the sentinel ModeAToModeC returns for a Gillham pattern
// that doesn't correspond to a valid altitude.
const invalidModeC = -9999

// DecodeAC13 decodes the 13 bit AC altitude field carried directly in
// DF0/DF4/DF16/DF20 messages (bits 20-32 of the frame). Bit 6 (0x40) is the
// M (metric) bit, bit 4 (0x10) is the Q (25 ft resolution) bit.
func DecodeAC13(ac uint32) (ft int32, metres bool, ok bool) {
	m := ac&0x40 != 0
	q := ac&0x10 != 0

	switch {
	case !m && q:
		// 25 ft increments: N is the 11 bit integer left after removing
		// the Q and M bits.
		n := int32(((ac & 0x1f80) >> 2) | ((ac & 0x0020) >> 1) | (ac & 0x000f))
		return n*25 - 1000, false, true

	case !m && !q:
		modeC := modeAToModeC(decodeID13Field(int32(ac)))
		if modeC == invalidModeC {
			return 0, false, false
		}
		return modeC * 100, false, true

	default:
		// metric altitudes are not decoded; distinct from "invalid".
		return 0, true, false
	}
}

// DecodeAC12 decodes the 12 bit altitude code carried in a DF17/18
// airborne-position ME field (ME bits 8-19). There is no M bit in this
// field; bit 4 (0x0010) is Q, same position as DecodeAC13's Q bit.
func DecodeAC12(ac uint32) (ft int32, ok bool) {
	if ac&0x0010 != 0 {
		// 25 ft increments: N is the 11 bit integer left after removing Q.
		n := ((ac & 0x0fe0) >> 1) | (ac & 0x000f)
		return int32(n)*25 - 1000, true
	}

	// Gillham path: this 12 bit field is DecodeAC13's 13 bit field with the
	// M bit removed. Reinsert M=0 at bit 6 to rebuild that 13 bit layout,
	// then reuse its Gillham table directly instead of re-deriving one.
	id13 := int32(((ac & 0x0fc0) << 1) | (ac & 0x003f))
	modeC := modeAToModeC(decodeID13Field(id13))
	if modeC == invalidModeC {
		return 0, false
	}
	return modeC * 100, true
}

// decodeID13Field maps the identity/Gillham-style 13 bit field bit ordering
// (bit 12 = C1, 11 = A1, 10 = C2, 9 = A2, 8 = C4, 7 = A4, 5 = B1, 4 = D1,
// 3 = B2, 2 = D2, 1 = B4, 0 = D4) onto the canonical Gillham mask layout
// ModeAToModeC expects.
func decodeID13Field(id13 int32) int32 {
	var g int32
	if id13&0x1000 != 0 {
		g |= 0x0010
	}
	if id13&0x0800 != 0 {
		g |= 0x1000
	}
	if id13&0x0400 != 0 {
		g |= 0x0020
	}
	if id13&0x0200 != 0 {
		g |= 0x2000
	}
	if id13&0x0100 != 0 {
		g |= 0x0040
	}
	if id13&0x0080 != 0 {
		g |= 0x4000
	}
	if id13&0x0020 != 0 {
		g |= 0x0100
	}
	if id13&0x0010 != 0 {
		g |= 0x0001
	}
	if id13&0x0008 != 0 {
		g |= 0x0200
	}
	if id13&0x0004 != 0 {
		g |= 0x0002
	}
	if id13&0x0002 != 0 {
		g |= 0x0400
	}
	if id13&0x0001 != 0 {
		g |= 0x0004
	}
	return g
}

// modeAToModeC converts a Gillham-coded "Mode A" style pattern (as produced
// by decodeID13Field, or directly by the DF17 Gillham reorder) into 100s of
// feet, per the standard Gillham-to-Gray-to-binary table. Returns
// invalidModeC for patterns with no valid altitude meaning.
func modeAToModeC(modeA int32) int32 {
	if (uint32(modeA)&0xffff8889) != 0 || (modeA&0x000000f0) == 0 {
		return invalidModeC
	}

	var oneHundreds int32
	if modeA&0x0010 != 0 {
		oneHundreds ^= 0x0007
	}
	if modeA&0x0020 != 0 {
		oneHundreds ^= 0x0003
	}
	if modeA&0x0040 != 0 {
		oneHundreds ^= 0x0001
	}

	if oneHundreds&5 == 5 {
		oneHundreds ^= 2
	}
	if oneHundreds > 5 {
		return invalidModeC
	}

	var fiveHundreds int32
	if modeA&0x0002 != 0 {
		fiveHundreds ^= 0x00ff
	}
	if modeA&0x0004 != 0 {
		fiveHundreds ^= 0x007f
	}
	if modeA&0x1000 != 0 {
		fiveHundreds ^= 0x003f
	}
	if modeA&0x2000 != 0 {
		fiveHundreds ^= 0x001f
	}
	if modeA&0x4000 != 0 {
		fiveHundreds ^= 0x000f
	}
	if modeA&0x0100 != 0 {
		fiveHundreds ^= 0x0007
	}
	if modeA&0x0200 != 0 {
		fiveHundreds ^= 0x0003
	}
	if modeA&0x0400 != 0 {
		fiveHundreds ^= 0x0001
	}

	if fiveHundreds&1 != 0 {
		oneHundreds = 6 - oneHundreds
	}

	return fiveHundreds*5 + oneHundreds - 13
}
