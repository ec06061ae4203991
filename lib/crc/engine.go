// Package crc implements the Mode S CRC-24 checksum, covering both plain
// validation (DF11/17/18, ICAO carried in clear) and masked-ICAO recovery
// (DF0/4/5/16/20/21, ICAO XORed into the checksum field), plus optional
// single- and two-bit error correction.
//
// The generator is 0x1FFF409 per spec, which is the 25 bit representation
// (implicit leading coefficient) of the 24 bit constant 0xFFF409 used by the
// shift-and-XOR table below.
package crc

import "errors"

const generatorPoly = 0xfff409

// Correction records what, if anything, was done to make a frame's CRC
// check out.
type Correction int

const (
	NoCorrection Correction = iota
	OneBitCorrection
	TwoBitCorrection
)

func (c Correction) String() string {
	switch c {
	case OneBitCorrection:
		return "1-bit"
	case TwoBitCorrection:
		return "2-bit"
	default:
		return "none"
	}
}

// Mode selects which corrections the Engine is permitted to attempt.
type Mode int

const (
	// ModeNone performs no correction; a CRC mismatch is a hard reject.
	ModeNone Mode = iota
	// ModeOneBit attempts single-bit correction (the default).
	ModeOneBit
	// ModeTwoBit attempts single-bit then two-bit correction. Expensive:
	// O(n^2) trials per frame: gate this behind explicit configuration.
	ModeTwoBit
)

// ErrCRCMismatch is returned when no enabled correction recovers a valid frame.
var ErrCRCMismatch = errors.New("crc: checksum mismatch")

// ErrUnknownICAO is returned for masked-ICAO downlink formats whose
// recovered candidate address is not in the ICAO whitelist.
var ErrUnknownICAO = errors.New("crc: recovered ICAO not in whitelist")

// ErrAmbiguousCorrection is returned when more than one candidate bit flip
// (or flip pair) would make a frame pass; accepting any one of them would be
// a guess, so the frame is rejected instead.
var ErrAmbiguousCorrection = errors.New("crc: ambiguous correction candidates")

// Engine computes and validates Mode S CRC-24 checksums. It is stateless
// after construction (the tables are fixed) and safe for concurrent use.
type Engine struct {
	byteTable     [256]uint32
	bitTableLong  [88]uint32 // contribution of data bit k (0..87) in a 112 bit frame
	bitTableShort [32]uint32 // contribution of data bit k (0..31) in a 56 bit frame
	mode          Mode
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithMode sets the correction mode. Default is ModeOneBit.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// New builds an Engine, precomputing its CRC tables.
func New(opts ...Option) *Engine {
	e := &Engine{mode: ModeOneBit}
	e.initByteTable()
	e.initBitTables()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) initByteTable() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ generatorPoly
			} else {
				c <<= 1
			}
		}
		e.byteTable[i] = c & 0xffffff
	}
}

func (e *Engine) initBitTables() {
	buf := make([]byte, 11)
	for k := 0; k < 88; k++ {
		for i := range buf {
			buf[i] = 0
		}
		buf[k/8] = 1 << (7 - uint(k%8))
		e.bitTableLong[k] = e.rawChecksum(buf)
	}
	short := make([]byte, 4)
	for k := 0; k < 32; k++ {
		for i := range short {
			short[i] = 0
		}
		short[k/8] = 1 << (7 - uint(k%8))
		e.bitTableShort[k] = e.rawChecksum(short)
	}
}

// rawChecksum runs the byte-table polynomial division over data, with no
// knowledge of frame length or ICAO masking.
func (e *Engine) rawChecksum(data []byte) uint32 {
	var rem uint32
	for _, b := range data {
		rem = (rem << 8) ^ e.byteTable[byte(rem>>16)^b]
		rem &= 0xffffff
	}
	return rem
}

// ComputeCRC computes the checksum over the first len(data)-3 bytes of data
// (i.e. excluding the trailing 24 bit CRC field), the same convention as
// Mode S frames which are 7 or 14 bytes with the last 3 bytes carrying
// either the plain checksum or the masked-ICAO checksum.
func (e *Engine) ComputeCRC(data []byte) uint32 {
	if len(data) < 3 {
		return 0
	}
	return e.rawChecksum(data[:len(data)-3])
}

// receivedCRC reads the trailing 24 bits of data.
func receivedCRC(data []byte) uint32 {
	n := len(data)
	return uint32(data[n-3])<<16 | uint32(data[n-2])<<8 | uint32(data[n-1])
}

// bitTable returns the per-bit contribution table and valid data-bit range
// for a frame of this byte length.
func (e *Engine) bitTable(dataLen int) []uint32 {
	if dataLen == 7 {
		return e.bitTableShort[:]
	}
	return e.bitTableLong[:]
}

func flipBit(data []byte, pos int) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	out[pos/8] ^= 1 << (7 - uint(pos%8))
	return out
}

// Result is the outcome of a Check.
type Result struct {
	Valid       bool
	Data        []byte // possibly bit-corrected copy of the input
	Correction  Correction
	ComputedCRC uint32
	ReceivedCRC uint32
	ICAO        uint32 // resolved ICAO for masked forms; 0 for embedded forms (read it from the frame instead)
}

// Check validates data (7 or 14 bytes) against its trailing CRC.
//
// masked selects the policy: when false (DF11/17/18) the frame is valid iff
// computed == received. When true (DF0/4/5/16/20/21) the ICAO is XORed into
// the checksum field; the candidate computed^received is accepted only if
// icaoOK reports it as whitelisted.
func (e *Engine) Check(data []byte, masked bool, icaoOK func(uint32) bool) (*Result, error) {
	computed := e.ComputeCRC(data)
	received := receivedCRC(data)

	if !masked {
		if computed == received {
			return &Result{Valid: true, Data: data, ComputedCRC: computed, ReceivedCRC: received}, nil
		}
	} else {
		candidate := computed ^ received
		if icaoOK(candidate) {
			return &Result{Valid: true, Data: data, ComputedCRC: computed, ReceivedCRC: received, ICAO: candidate}, nil
		}
	}

	if e.mode == ModeNone {
		return e.reject(masked)
	}

	table := e.bitTable(len(data))

	if r, err := e.tryFlips(data, table, 1, masked, icaoOK, computed, received); err == nil {
		return r, nil
	} else if !errors.Is(err, errNoMatch) {
		return nil, err
	}

	if e.mode == ModeTwoBit {
		if r, err := e.tryFlips(data, table, 2, masked, icaoOK, computed, received); err == nil {
			return r, nil
		} else if !errors.Is(err, errNoMatch) {
			return nil, err
		}
	}

	return e.reject(masked)
}

func (e *Engine) reject(masked bool) (*Result, error) {
	if masked {
		return nil, ErrUnknownICAO
	}
	return nil, ErrCRCMismatch
}

var errNoMatch = errors.New("crc: no correction candidate matched")

// tryFlips performs the nBits-wise (1 or 2) brute-force search described in
// §4.4, using the precomputed per-bit table so each trial is an O(1) XOR
// rather than a full recompute.
func (e *Engine) tryFlips(data []byte, table []uint32, nBits int, masked bool, icaoOK func(uint32) bool, computed, received uint32) (*Result, error) {
	type match struct {
		positions []int
		icao      uint32
	}
	var matches []match

	n := len(table)
	switch nBits {
	case 1:
		for p := 0; p < n; p++ {
			trial := computed ^ table[p]
			if ok, icao := e.accepts(trial, received, masked, icaoOK); ok {
				matches = append(matches, match{positions: []int{p}, icao: icao})
			}
		}
	case 2:
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				trial := computed ^ table[p] ^ table[q]
				if ok, icao := e.accepts(trial, received, masked, icaoOK); ok {
					matches = append(matches, match{positions: []int{p, q}, icao: icao})
				}
			}
		}
	}

	if len(matches) == 0 {
		return nil, errNoMatch
	}
	if len(matches) > 1 {
		return nil, ErrAmbiguousCorrection
	}

	m := matches[0]
	corrected := data
	// positions here are data-bit indices (0-based from the start of the
	// data portion); the data portion starts at byte 0, so they map
	// directly onto bit offsets in the full frame.
	for _, p := range m.positions {
		corrected = flipBit(corrected, p)
	}

	corr := OneBitCorrection
	if nBits == 2 {
		corr = TwoBitCorrection
	}

	return &Result{
		Valid:       true,
		Data:        corrected,
		Correction:  corr,
		ComputedCRC: computed,
		ReceivedCRC: received,
		ICAO:        m.icao,
	}, nil
}

func (e *Engine) accepts(trialComputed, received uint32, masked bool, icaoOK func(uint32) bool) (bool, uint32) {
	if !masked {
		return trialComputed == received, 0
	}
	candidate := trialComputed ^ received
	return icaoOK(candidate), candidate
}
