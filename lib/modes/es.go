package modes

// decodeES parses a DF17/18 ME field (7 bytes) per §4.5, dispatching on the
// type code in the top 5 bits.
func decodeES(ca uint8, me []byte) *ExtendedSquitter {
	tc := me[0] >> 3
	es := &ExtendedSquitter{CA: ca, TypeCode: tc}

	switch {
	case tc >= 1 && tc <= 4:
		es.Kind = MEIdentification
		es.Identification = &Identification{
			EmitterCategory: me[0] & 0x07,
			Callsign:        decodeCallsign(me[1:7]),
		}

	case tc >= 5 && tc <= 8:
		es.Kind = MESurfacePosition
		es.SurfacePosition = decodeSurfacePosition(me)

	case (tc >= 9 && tc <= 18) || (tc >= 20 && tc <= 22):
		es.Kind = MEAirbornePosition
		es.AirbornePosition = decodeAirbornePosition(me)

	case tc == 19:
		es.Kind = MEAirborneVelocity
		es.AirborneVelocity = decodeVelocity(me)

	case tc == 28:
		es.Kind = MEAircraftStatus
		es.AircraftStatus = &AircraftStatus{
			Subtype:       me[0] & 0x07,
			EmergencyCode: (me[1] >> 5) & 0x07,
		}

	case tc == 31:
		es.Kind = MEOperationalStatus
		// subtype 0 is the airborne form, subtype 1 the surface form
		es.OperationalStatus = &OperationalStatus{OnGround: me[0]&0x07 == 1}

	default:
		es.Kind = MEUnknown
	}

	return es
}

func decodeAirbornePosition(me []byte) *AirbornePosition {
	alt12 := uint32(me[1])<<4 | uint32(me[2]>>4)
	ft, ok := DecodeAC12(alt12)

	odd := me[2]&0x04 != 0
	lat17 := uint32(me[2]&0x03)<<15 | uint32(me[3])<<7 | uint32(me[4]>>1)
	lon17 := uint32(me[4]&0x01)<<16 | uint32(me[5])<<8 | uint32(me[6])

	return &AirbornePosition{
		Surveillance: (me[0] >> 1) & 0x03,
		AltitudeFt:   ft,
		AltitudeOK:   ok,
		Odd:          odd,
		Lat17:        lat17,
		Lon17:        lon17,
	}
}

func decodeSurfacePosition(me []byte) *SurfacePosition {
	movement := (me[0]&0x07)<<4 | me[1]>>4
	headingOK := me[1]&0x08 != 0
	headingRaw := (uint32(me[1]&0x07)<<4 | uint32(me[2]>>4))

	odd := me[2]&0x04 != 0
	lat17 := uint32(me[2]&0x03)<<15 | uint32(me[3])<<7 | uint32(me[4]>>1)
	lon17 := uint32(me[4]&0x01)<<16 | uint32(me[5])<<8 | uint32(me[6])

	sp := &SurfacePosition{
		Movement:  movement,
		HeadingOK: headingOK,
		Odd:       odd,
		Lat17:     lat17,
		Lon17:     lon17,
	}
	if headingOK {
		sp.Heading = float64(headingRaw) * 360 / 128
	}
	return sp
}
