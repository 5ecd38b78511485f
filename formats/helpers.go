package formats

import "encoding/binary"

func u16le(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func u32le(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
func u32be(b []byte, off int) uint32 { return binary.BigEndian.Uint32(b[off:]) }

// clampLength bounds an estimated length to the format's max and to the
// bytes actually available before end-of-input. Returns false if the result
// falls below min.
func clampLength(est, min, max, avail int64) (int64, bool) {
	if est > max {
		est = max
	}
	if est > avail {
		est = avail
	}
	if est < min {
		return 0, false
	}
	return est, true
}
