// Package preamble scans a magnitude stream for the 8 microsecond Mode S
// preamble: four pulses at sample offsets 0, 2, 7 and 9 of a 16 sample
// window, at 2 Msps. It is deliberately permissive — false positives are
// expected and are rejected downstream by CRC, per the chain design.
package preamble

// WindowLen is the number of magnitude samples a preamble occupies,
// including the quiet zone that follows the four pulses.
const WindowLen = 16

// NoiseFloor is the minimum mean of the four high pulses for a preamble to
// be considered a candidate at all. It is a fixed floor rather than an
// adaptive one: adaptive noise floors belong to the SDR-facing collaborator,
// not this decoder core.
const NoiseFloor = 1

// Detector scans magnitude windows for preamble candidates. It carries no
// state of its own; a single Detector may be reused (and shared) across
// goroutines.
type Detector struct {
	// QuietFactor scales the mean of the high pulses to derive the quiet
	// zone threshold; samples 10-14 must fall below high-pulse-mean/QuietFactor.
	QuietFactor float64
}

// New returns a Detector with the default quiet-zone factor.
func New() *Detector {
	return &Detector{QuietFactor: 2}
}

// Candidate describes one accepted preamble.
type Candidate struct {
	// Offset is the index into the magnitude stream of the first preamble
	// pulse (sample 0 of the 16 sample window).
	Offset int
	// PulseMean is the mean magnitude of the four preamble pulses, the same
	// value demod.SignalStrength reports as a per-message signal strength.
	PulseMean float64
}

// Scan examines every possible window start in mags and returns all
// candidates found. Callers that only need the next candidate should prefer
// Next, which stops at the first hit.
func (d *Detector) Scan(mags []uint16) []Candidate {
	var out []Candidate
	for o := 0; o+WindowLen <= len(mags); o++ {
		if c, ok := d.test(mags[o : o+WindowLen]); ok {
			c.Offset = o
			out = append(out, c)
		}
	}
	return out
}

// Next returns the first preamble candidate at or after startAt, and the
// magnitude-stream offset it was found at, or ok=false if none remain in
// mags. This is the form the ingest pipeline's sliding window uses, since it
// need not buffer every candidate in a chunk.
func (d *Detector) Next(mags []uint16, startAt int) (Candidate, bool) {
	for o := startAt; o+WindowLen <= len(mags); o++ {
		if c, ok := d.test(mags[o : o+WindowLen]); ok {
			c.Offset = o
			return c, true
		}
	}
	return Candidate{}, false
}

// test evaluates one 16 sample window against the §4.2 preamble shape.
func (d *Detector) test(m []uint16) (Candidate, bool) {
	_ = m[15] // bounds check hint, window is always exactly WindowLen long

	// four pulses, each a rising-then-falling pair
	if !(m[0] > m[1] && m[2] > m[3] && m[7] > m[8] && m[9] > m[6]) {
		return Candidate{}, false
	}

	// the gap between pulse pairs (samples 4,5,6) must be low relative to
	// the first pulse
	if !(m[4] < m[0] && m[5] < m[0] && m[6] < m[0]) {
		return Candidate{}, false
	}

	high := (float64(m[0]) + float64(m[2]) + float64(m[7]) + float64(m[9])) / 4
	if high < NoiseFloor {
		return Candidate{}, false
	}

	quietThreshold := high / d.QuietFactor
	for _, q := range m[10:15] {
		if float64(q) >= quietThreshold {
			return Candidate{}, false
		}
	}

	return Candidate{PulseMean: high}, true
}
