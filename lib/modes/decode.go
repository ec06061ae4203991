package modes

import "fmt"

// Decode parses a CRC-validated Mode S frame (7 or 56-bit short, or 14-byte
// 112-bit long). data is assumed already corrected by the CRC engine.
//
// For DF with the ICAO embedded in clear (11, 17, 18) Message.ICAO is filled
// in directly from the frame. For masked-ICAO forms (0, 4, 5, 16, 20, 21) the
// caller must set Message.ICAO from the CRC engine's recovered candidate;
// Decode leaves it zero.
func Decode(data []byte) (*Message, error) {
	if len(data) != 7 && len(data) != 14 {
		return nil, fmt.Errorf("modes: frame must be 7 or 14 bytes, got %d", len(data))
	}
	df := data[0] >> 3
	wantLong := df >= 16
	if wantLong != (len(data) == 14) {
		return nil, fmt.Errorf("modes: DF%d length mismatch (%d bytes)", df, len(data))
	}

	msg := &Message{DF: df}

	switch df {
	case 0:
		msg.Kind = KindAirAir
		msg.AirAir = decodeAirAir(data)

	case 4:
		msg.Kind = KindAltitudeReply
		msg.AltitudeReply = decodeAltitudeReply(data, false)

	case 5:
		msg.Kind = KindIdentityReply
		msg.IdentityReply = decodeIdentityReply(data, false)

	case 11:
		msg.Kind = KindAllCall
		msg.ICAO = icao24(data)
		msg.AllCall = &AllCall{Capability: data[0] & 0x07}

	case 16:
		msg.Kind = KindAirAir
		msg.AirAir = decodeAirAir(data)

	case 17:
		msg.Kind = KindExtendedSquitter
		msg.ICAO = icao24(data)
		msg.ES = decodeES(data[0]&0x07, data[4:11])

	case 18:
		cf := data[0] & 0x07
		msg.Kind = KindExtendedSquitter
		if cf == 0 {
			msg.ICAO = icao24(data)
			msg.ES = decodeES(cf, data[4:11])
		} else {
			// CF >= 1: non-transponder / ground vehicle / anonymous forms.
			// Per the open question at §9, these are still carried through
			// as an ExtendedSquitter so a collaborator can choose to use
			// them, but the ME is not interpreted beyond the type code, and
			// the ICAO is flagged so it never seeds the whitelist (§12).
			msg.ICAO = icao24(data)
			msg.ES = &ExtendedSquitter{CA: cf, TypeCode: data[4] >> 3, Kind: MEUnknown, NonTransponder: true}
		}

	case 20:
		msg.Kind = KindAltitudeReply
		msg.AltitudeReply = decodeAltitudeReply(data, true)

	case 21:
		msg.Kind = KindIdentityReply
		msg.IdentityReply = decodeIdentityReply(data, true)

	default:
		return nil, fmt.Errorf("modes: unsupported DF%d", df)
	}

	return msg, nil
}

func icao24(data []byte) uint32 {
	return uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
}

func decodeAirAir(data []byte) *AirAir {
	vs := data[0]&0x04 != 0
	ac := uint32(data[2]&0x1f)<<8 | uint32(data[3])
	ft, _, ok := DecodeAC13(ac)
	return &AirAir{OnGround: vs, AltitudeFt: ft, AltitudeOK: ok}
}

func decodeAltitudeReply(data []byte, long bool) *AltitudeReply {
	fs := data[0] & 0x07
	onGround := fs == 1 || fs == 3
	ac := uint32(data[2]&0x1f)<<8 | uint32(data[3])
	ft, _, ok := DecodeAC13(ac)
	r := &AltitudeReply{FlightStatus: fs, OnGround: onGround, AltitudeFt: ft, AltitudeOK: ok}
	if long {
		r.MB = append([]byte(nil), data[4:11]...)
	}
	return r
}

func decodeIdentityReply(data []byte, long bool) *IdentityReply {
	fs := data[0] & 0x07
	onGround := fs == 1 || fs == 3
	squawk := decodeSquawk(data[2], data[3])
	r := &IdentityReply{
		FlightStatus: fs,
		OnGround:     onGround,
		Squawk:       squawk,
		Emergency:    squawk == 7500 || squawk == 7600 || squawk == 7700,
	}
	if long {
		r.MB = append([]byte(nil), data[4:11]...)
	}
	return r
}

// decodeSquawk decodes the 13 bit Gillham-interleaved identity field spread
// across message bytes 2 and 3, per §4.5.
func decodeSquawk(b2, b3 byte) uint16 {
	m2, m3 := uint32(b2), uint32(b3)
	a := ((m3 & 0x80) >> 5) | ((m2 & 0x02) >> 0) | ((m2 & 0x08) >> 3)
	b := ((m3 & 0x02) << 1) | ((m3 & 0x08) >> 2) | ((m3 & 0x20) >> 5)
	c := ((m2 & 0x01) << 2) | ((m2 & 0x04) >> 1) | ((m2 & 0x10) >> 4)
	d := ((m3 & 0x01) << 2) | ((m3 & 0x04) >> 1) | ((m3 & 0x10) >> 4)
	return uint16(a*1000 + b*100 + c*10 + d)
}
