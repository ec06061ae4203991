package modes

import "strings"

// aisCharset is the 6-bit alphabet used by the ADS-B identification ME and
// the BDS 2,0 callsign register: 0->space, 1-26->A-Z, 48-57->0-9, else '?'.
var aisCharset = func() [64]byte {
	var t [64]byte
	for i := range t {
		t[i] = '?'
	}
	t[0] = ' '
	for i := 0; i < 26; i++ {
		t[1+i] = byte('A' + i)
	}
	t[32] = ' '
	for i := 0; i < 10; i++ {
		t[48+i] = byte('0' + i)
	}
	return t
}()

// DecodeCallsign unpacks 8 characters, 6 bits each, from a 48-bit (6 byte)
// field and trims trailing spaces. Shared by the DF17/18 identification ME
// and the BDS 2,0 Comm-B register, which use the same alphabet.
func DecodeCallsign(b []byte) string {
	return decodeCallsign(b)
}

func decodeCallsign(b []byte) string {
	if len(b) != 6 {
		panic("modes: decodeCallsign requires exactly 6 bytes")
	}
	out := make([]byte, 8)
	out[0] = aisCharset[b[0]>>2]
	out[1] = aisCharset[((b[0]&3)<<4)|(b[1]>>4)]
	out[2] = aisCharset[((b[1]&15)<<2)|(b[2]>>6)]
	out[3] = aisCharset[b[2]&63]
	out[4] = aisCharset[b[3]>>2]
	out[5] = aisCharset[((b[3]&3)<<4)|(b[4]>>4)]
	out[6] = aisCharset[((b[4]&15)<<2)|(b[5]>>6)]
	out[7] = aisCharset[b[5]&63]
	return strings.TrimRight(string(out), " ")
}
