package formats

// validateSizeAt4LE covers formats whose total length sits as a
// little-endian dword right after the magic (TES4 plugins, BSA archives).
// Out-of-range declared sizes are rejected outright.
func validateSizeAt4LE(minSize, maxSize int64) ValidateFunc {
	return func(w Window) *Region {
		if len(w.Data) < 8 {
			return nil
		}
		declared := int64(u32le(w.Data, 4))
		if declared < minSize || declared > maxSize {
			return nil
		}
		length, ok := clampLength(declared, minSize, maxSize, w.Remaining)
		if !ok {
			return nil
		}
		return &Region{Offset: w.Offset, Length: length}
	}
}
