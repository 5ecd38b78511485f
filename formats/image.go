package formats

import (
	"bytes"
	"strconv"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// validatePNG walks the chunk list to the IEND marker for an exact length.
// A hit whose chunk chain never reaches IEND inside the size cap is treated
// as a torn image and rejected.
func validatePNG(w Window) *Region {
	d := w.Data
	if len(d) < 33 || !bytes.HasPrefix(d, pngMagic) {
		return nil
	}

	size := int64(8)
	pos := 8
	foundEnd := false
	for pos+12 <= len(d) {
		chunkLen := int64(u32be(d, pos))
		if chunkLen > 50*mb {
			break
		}
		total := 4 + 4 + chunkLen + 4
		size += total
		if string(d[pos+4:pos+8]) == "IEND" {
			foundEnd = true
			break
		}
		pos += int(total)
		if size > 50*mb {
			break
		}
	}
	if !foundEnd {
		return nil
	}

	length, ok := clampLength(size, 67, 50*mb, int64(len(d)))
	if !ok {
		return nil
	}

	meta := map[string]string{}
	if len(d) >= 24 && string(d[12:16]) == "IHDR" {
		meta["width"] = strconv.FormatUint(uint64(u32be(d, 16)), 10)
		meta["height"] = strconv.FormatUint(uint64(u32be(d, 20)), 10)
	}
	return &Region{FormatID: "png", Offset: w.Offset, Length: length, Metadata: meta}
}

// validateBIK reads the Bink size field directly after the magic.
func validateBIK(w Window) *Region {
	d := w.Data
	if len(d) < 8 {
		return nil
	}
	declared := int64(u32le(d, 4))
	if declared < 20 || declared > 500*mb {
		return nil
	}
	length, ok := clampLength(declared+8, 20, 500*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: "bik", Offset: w.Offset, Length: length}
}

