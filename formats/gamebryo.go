package formats

import "bytes"

// validateGamebryo sizes NetImmerse/Gamebryo containers (NIF models, KF
// animations, EGM/EGT FaceGen data). The header carries a version string but
// no total length; for the 20.x line the block count yields a usable
// estimate, otherwise a fixed fallback is carved.
func validateGamebryo(maxSize int64) ValidateFunc {
	return func(w Window) *Region {
		if len(w.Data) < 64 {
			return nil
		}
		d := w.Data
		if !bytes.HasPrefix(d, gamebryoMagic) {
			return nil
		}

		versionStart := len(gamebryoMagic) + 2
		nul := bytes.IndexByte(d[versionStart:min(versionStart+40, len(d))], 0)
		if nul == -1 {
			return nil
		}
		version := string(d[versionStart : versionStart+nul])

		est := int64(50000)
		if bytes.Contains([]byte(version), []byte("20.")) && len(d) >= 100 {
			// Block count sits shortly after the version string; scan
			// dword-aligned positions for a plausible value.
			parseOff := versionStart + nul + 1
			for off := parseOff; off < parseOff+60 && off+4 <= len(d); off += 4 {
				blocks := int64(u32le(d, off))
				if blocks >= 1 && blocks <= 10000 {
					est = blocks*500 + 1000
					if est > 20*mb {
						est = 20 * mb
					}
					break
				}
			}
		}

		length, ok := clampLength(est, 100, maxSize, w.Remaining)
		if !ok {
			return nil
		}
		return &Region{
			Offset:   w.Offset,
			Length:   length,
			Metadata: map[string]string{"version": version},
		}
	}
}
