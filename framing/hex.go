package framing

import "github.com/tamzrod/divecomputer/status"

const hexDigits = "0123456789ABCDEF"

// BinToHex renders src as uppercase ASCII hex, two characters per byte.
func BinToHex(src []byte) []byte {
	dst := make([]byte, 2*len(src))
	HexEncode(dst, src)
	return dst
}

// HexEncode writes the hex encoding of src into dst, which must be exactly
// 2*len(src) bytes long. It exists alongside BinToHex so callers building a
// fixed-size envelope in place (see Encode) don't need an extra allocation.
func HexEncode(dst, src []byte) {
	for i, b := range src {
		dst[2*i] = hexDigits[b>>4]
		dst[2*i+1] = hexDigits[b&0x0F]
	}
}

// HexToBin decodes ASCII hex into binary. It fails with status.Protocol on
// any byte that isn't a hex digit or on an odd-length input.
func HexToBin(src []byte) ([]byte, status.Status) {
	if len(src)%2 != 0 {
		return nil, status.Protocol
	}
	dst := make([]byte, len(src)/2)
	if !HexDecode(dst, src) {
		return nil, status.Protocol
	}
	return dst, status.Success
}

// HexDecode decodes src (2*len(dst) hex characters) into dst. It reports
// false if src contains anything but hex digits.
func HexDecode(dst, src []byte) bool {
	if len(src) != 2*len(dst) {
		return false
	}
	for i := range dst {
		hi, ok1 := hexNibble(src[2*i])
		lo, ok2 := hexNibble(src[2*i+1])
		if !ok1 || !ok2 {
			return false
		}
		dst[i] = hi<<4 | lo
	}
	return true
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
