// Package modes implements the §4.5 Frame Decoder: dispatch on Downlink
// Format and extraction of the DF-specific payload fields, grounded on
// plane-watch's lib/tracker/mode_s/decode.go.
package modes

// Kind identifies which DecodedMessage payload variant is populated.
type Kind int

const (
	KindUnknown Kind = iota
	KindAllCall
	KindAltitudeReply
	KindIdentityReply
	KindAirAir
	KindExtendedSquitter
)

func (k Kind) String() string {
	switch k {
	case KindAllCall:
		return "AllCall"
	case KindAltitudeReply:
		return "AltitudeReply"
	case KindIdentityReply:
		return "IdentityReply"
	case KindAirAir:
		return "AirAir"
	case KindExtendedSquitter:
		return "ExtendedSquitter"
	default:
		return "Unknown"
	}
}

// MEKind identifies which ME payload variant an ExtendedSquitter carries.
type MEKind int

const (
	MEUnknown MEKind = iota
	MEIdentification
	MESurfacePosition
	MEAirbornePosition
	MEAirborneVelocity
	MEOperationalStatus
	MEAircraftStatus
)

// Message is the tagged variant over DF-specific payloads described in the
// data model as DecodedMessage. Exactly one of the payload pointers below is
// non-nil, matching Kind (and, for ExtendedSquitter, ME.Kind).
type Message struct {
	DF   uint8
	ICAO uint32
	Kind Kind

	AllCall       *AllCall
	AltitudeReply *AltitudeReply
	IdentityReply *IdentityReply
	AirAir        *AirAir
	ES            *ExtendedSquitter
}

// AllCall is the DF11 payload.
type AllCall struct {
	Capability uint8
}

// AltitudeReply is the DF4/DF20 payload. MB is only populated for DF20.
type AltitudeReply struct {
	FlightStatus uint8
	OnGround     bool
	AltitudeFt   int32
	AltitudeOK   bool
	MB           []byte
}

// IdentityReply is the DF5/DF21 payload. MB is only populated for DF21.
type IdentityReply struct {
	FlightStatus uint8
	OnGround     bool
	Squawk       uint16
	Emergency    bool
	MB           []byte
}

// AirAir is the DF0/DF16 payload.
type AirAir struct {
	OnGround   bool
	AltitudeFt int32
	AltitudeOK bool
}

// ExtendedSquitter is the DF17/DF18 payload.
type ExtendedSquitter struct {
	CA       uint8 // capability (DF17) or control field (DF18)
	TypeCode uint8
	Kind     MEKind

	// NonTransponder is set for DF18 CF>=1 (non-transponder/anonymous/TIS-B
	// forms, per §12): the ICAO field is carried through but must never seed
	// the self-identifying whitelist, since it isn't a transponder address
	// in the same sense DF11/DF17/DF18-CF0 addresses are.
	NonTransponder bool

	Identification     *Identification
	SurfacePosition    *SurfacePosition
	AirbornePosition   *AirbornePosition
	AirborneVelocity   *AirborneVelocity
	OperationalStatus  *OperationalStatus
	AircraftStatus     *AircraftStatus
}

// Identification is the TC 1-4 ME payload.
type Identification struct {
	EmitterCategory uint8
	Callsign        string
}

// SurfacePosition is the TC 5-8 ME payload.
type SurfacePosition struct {
	Movement  uint8
	Heading   float64
	HeadingOK bool
	Odd       bool
	Lat17     uint32
	Lon17     uint32
}

// AirbornePosition is the TC 9-18 / 20-22 ME payload.
type AirbornePosition struct {
	Surveillance uint8
	AltitudeFt   int32
	AltitudeOK   bool
	Odd          bool
	Lat17        uint32
	Lon17        uint32
}

// AirborneVelocity is the TC 19 ME payload.
type AirborneVelocity struct {
	Subtype        uint8
	GroundSpeedKt  float64
	TrackDeg       float64
	HeadingOK      bool // true for subtype 3/4 where TrackDeg is a magnetic heading
	VerticalRateFpm int32
	VerticalRateOK  bool
	GeoMinusBaroFt  int32
}

// OperationalStatus is the TC 31 ME payload (minimal: ground flag only, taken
// from the subtype: 0 airborne, 1 surface).
type OperationalStatus struct {
	OnGround bool
}

// AircraftStatus is the TC 28 ME payload.
type AircraftStatus struct {
	Subtype       uint8
	EmergencyCode uint8
}

// EmergencyName returns the human label for a TC28 subtype-1 emergency code.
func EmergencyName(code uint8) string {
	switch code {
	case 0:
		return "none"
	case 1:
		return "general"
	case 2:
		return "lifeguard"
	case 3:
		return "minfuel"
	case 4:
		return "no-comm"
	case 5:
		return "unlawful"
	case 6:
		return "downed"
	default:
		return "reserved"
	}
}
