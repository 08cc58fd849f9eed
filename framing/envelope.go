package framing

import "github.com/tamzrod/divecomputer/status"

// EnvelopeSize returns the on-wire size of an envelope carrying an
// n-byte payload: '{' + 2n hex payload chars + 4 hex CRC chars + '}'.
func EnvelopeSize(n int) int {
	return 2*n + 6
}

// Encode builds a stream-family envelope around payload:
//
//	'{' hex(payload) hex_be_u16(crc(hex(payload))) '}'
//
// The CRC is computed over the ASCII-hex representation of payload, not
// over payload itself.
func Encode(payload []byte) []byte {
	out := make([]byte, EnvelopeSize(len(payload)))

	out[0] = '{'
	hexPayload := out[1 : 1+2*len(payload)]
	HexEncode(hexPayload, payload)

	crc := CRC(hexPayload)
	checksum := []byte{byte(crc >> 8), byte(crc)}
	HexEncode(out[1+2*len(payload):len(out)-1], checksum)

	out[len(out)-1] = '}'

	return out
}

// Decode parses and validates a stream-family envelope, returning the
// decoded payload. It rejects malformed brackets, odd-length or non-hex
// payloads, and a mismatched CRC, all with status.Protocol.
func Decode(frame []byte) ([]byte, status.Status) {
	if len(frame) < 6 || frame[0] != '{' || frame[len(frame)-1] != '}' {
		return nil, status.Protocol
	}

	hexPayload := frame[1 : len(frame)-5]
	hexChecksum := frame[len(frame)-5 : len(frame)-1]

	checksum := make([]byte, 2)
	if !HexDecode(checksum, hexChecksum) {
		return nil, status.Protocol
	}
	crc := U16BE(checksum)
	if CRC(hexPayload) != crc {
		return nil, status.Protocol
	}

	payload, st := HexToBin(hexPayload)
	if st != status.Success {
		return nil, st
	}

	return payload, status.Success
}
