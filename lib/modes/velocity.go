package modes

import "math"

// decodeVelocity parses a TC19 ME payload (7 bytes) per §4.5. The subtype 1/2
// (ground speed) and 3/4 (airspeed) layouts share bytes 4-6 (vertical rate,
// geo/baro diff) and differ only in bytes 1-3.
func decodeVelocity(me []byte) *AirborneVelocity {
	st := me[0] & 0x07
	v := &AirborneVelocity{Subtype: st}

	vrSign := me[4]&0x08 != 0
	vrRaw := int32(me[4]&0x07)<<6 | int32(me[5]>>2)
	if vrRaw != 0 {
		rate := (vrRaw - 1) * 64
		if vrSign {
			rate = -rate
		}
		v.VerticalRateFpm = rate
		v.VerticalRateOK = true
	}

	switch st {
	case 1, 2:
		ewDir := me[1]&0x04 != 0
		ewRaw := int32(me[1]&0x03)<<8 | int32(me[2])
		nsDir := me[3]&0x80 != 0
		nsRaw := int32(me[3]&0x7f)<<3 | int32(me[4]>>5)

		mult := float64(1)
		if st == 2 {
			mult = 4
		}
		vew := float64(0)
		if ewRaw != 0 {
			vew = float64(ewRaw-1) * mult
			if ewDir {
				vew = -vew
			}
		}
		vns := float64(0)
		if nsRaw != 0 {
			vns = float64(nsRaw-1) * mult
			if nsDir {
				vns = -vns
			}
		}
		v.GroundSpeedKt = math.Hypot(vew, vns)
		track := math.Atan2(vew, vns) * 180 / math.Pi
		if track < 0 {
			track += 360
		}
		v.TrackDeg = track

	case 3, 4:
		headingOK := me[1]&0x04 != 0
		headingRaw := int32(me[1]&0x03)<<8 | int32(me[2])
		airspeedRaw := int32(me[3]&0x7f)<<3 | int32(me[4]>>5)

		v.HeadingOK = headingOK
		if headingOK {
			v.TrackDeg = float64(headingRaw) * 360 / 1024
		}
		mult := float64(1)
		if st == 4 {
			mult = 4
		}
		v.GroundSpeedKt = float64(airspeedRaw) * mult
	}

	return v
}
