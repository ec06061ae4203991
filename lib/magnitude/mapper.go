// Package magnitude turns interleaved 8 bit I/Q samples into 16 bit
// magnitude samples using a precomputed lookup table, the same way
// dump1090-family decoders avoid a sqrt per sample pair.
package magnitude

import "math"

// TableSize is the number of (i,j) byte-pair combinations in the lookup table.
const TableSize = 256 * 256

// table[i*256+j] = round(sqrt((i-127)^2+(j-127)^2) * scale), computed once at
// package init so Map never touches the FPU on the hot path.
var table [TableSize]uint16

func init() {
	// the largest magnitude occurs at the corner (255,255), 128 away from
	// the 127 zero point on both axes; scale so that maps to the top of
	// the uint16 range.
	maxDist := math.Hypot(128, 128)
	scale := 65535.0 / maxDist

	for i := 0; i < 256; i++ {
		di := float64(i) - 127
		for j := 0; j < 256; j++ {
			dj := float64(j) - 127
			dist := math.Hypot(di, dj)
			table[i*256+j] = uint16(math.Round(dist * scale))
		}
	}
}

// Mapper converts an interleaved I/Q byte stream into a magnitude stream.
// It is stateless: Map may be called concurrently from multiple goroutines.
type Mapper struct{}

// New returns a ready to use Mapper. There is no per-instance state; callers
// may also use the package-level Map function directly.
func New() *Mapper {
	return &Mapper{}
}

// Map converts iq (an even-length, interleaved-unsigned-byte I/Q stream) into
// magnitude samples, one per I/Q pair. Output is sized len(iq)/2 regardless of
// the length of out; if out has enough capacity it is reused, else a new
// slice is allocated.
func (m *Mapper) Map(iq []byte, out []uint16) []uint16 {
	return Map(iq, out)
}

// Map is the stateless, allocation-reusing form used by Mapper.Map.
func Map(iq []byte, out []uint16) []uint16 {
	n := len(iq) / 2
	if cap(out) < n {
		out = make([]uint16, n)
	} else {
		out = out[:n]
	}
	for k := 0; k < n; k++ {
		i := iq[2*k]
		j := iq[2*k+1]
		out[k] = table[int(i)*256+int(j)]
	}
	return out
}

// Lookup exposes a single table entry, mostly useful for tests.
func Lookup(i, j byte) uint16 {
	return table[int(i)*256+int(j)]
}
