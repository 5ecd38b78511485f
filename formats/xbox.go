package formats

// Xbox 360 system format validators. All multi-byte header fields on the
// console are big-endian.

// validateXEX sizes an XEX2 executable from its header:
//
//	0x10  header size
//	0x14  in-memory image size
func validateXEX(w Window) *Region {
	d := w.Data
	if len(d) < 24 {
		return nil
	}
	headerSize := int64(u32be(d, 0x10))
	imageSize := int64(u32be(d, 0x14))

	est := max(headerSize, 4096)
	if imageSize > 0 && imageSize < 100*mb {
		est = imageSize
		if est > 50*mb {
			est = 50 * mb
		}
	}
	length, ok := clampLength(est, 24, 100*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: "xex", Offset: w.Offset, Length: length}
}

// validateXDBF estimates a dashboard file from its entry tables: 24-byte
// header, 18 bytes per entry-table slot, 8 per free-space slot, then roughly
// a kilobyte per entry.
func validateXDBF(w Window) *Region {
	d := w.Data
	if len(d) < 24 {
		return nil
	}
	entryTableLen := int64(u32be(d, 8))
	entryCount := int64(u32be(d, 12))
	freeTableLen := int64(u32be(d, 16))

	est := 24 + entryTableLen*18 + freeTableLen*8 + entryCount*1024
	if est > 10*mb {
		est = 10 * mb
	}
	length, ok := clampLength(est, 24, 10*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: "xdbf", Offset: w.Offset, Length: length}
}

// validateXUI handles XUIS scenes and XUIB binaries. Compiled XUIB carries a
// size dword; scenes get a conservative estimate.
func validateXUI(w Window) *Region {
	d := w.Data
	if len(d) < 16 {
		return nil
	}
	id := "xuis"
	est := int64(50000)
	if string(d[:4]) == "XUIB" {
		id = "xuib"
		if size := int64(u32be(d, 8)); size > 16 && size < 10*mb {
			est = size
		}
	}
	length, ok := clampLength(est, 16, 10*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: id, Offset: w.Offset, Length: length}
}

// validateSTFS sizes PIRS/CON packages from the content size dword at
// 0x344, plus the metadata header.
func validateSTFS(w Window) *Region {
	d := w.Data
	if len(d) < 0x348 {
		return nil
	}
	est := int64(100000)
	if contentSize := int64(u32be(d, 0x344)); contentSize > 0 && contentSize < 100*mb {
		est = contentSize + 0x1000
	}
	length, ok := clampLength(est, 0x344+4, 100*mb, w.Remaining)
	if !ok {
		return nil
	}
	id := "pirs"
	if string(d[:4]) == "CON " {
		id = "con"
	}
	return &Region{FormatID: id, Offset: w.Offset, Length: length}
}
