package formats

// XMA format codes carried in a RIFF fmt chunk.
var xmaFormatCodes = map[uint16]bool{0x0165: true, 0x0166: true}

// validateXMA accepts RIFF/WAVE containers whose chunk list identifies Xbox
// Media Audio, either by an XMA2 chunk or a fmt chunk with an XMA format
// tag. Plain PC WAV files are rejected here.
func validateXMA(w Window) *Region {
	if len(w.Data) < 12 {
		return nil
	}
	d := w.Data
	if string(d[:4]) != "RIFF" || string(d[8:12]) != "WAVE" {
		return nil
	}
	fileSize := int64(u32le(d, 4)) + 8

	isXMA := false
	limit := len(d) - 8
	if limit > 200 {
		limit = 200
	}
	for pos := 12; pos < limit; {
		chunkID := string(d[pos : pos+4])
		if chunkID == "XMA2" {
			isXMA = true
			break
		}
		if chunkID == "fmt " && len(d) >= pos+10 {
			if xmaFormatCodes[u16le(d, pos+8)] {
				isXMA = true
				break
			}
		}
		chunkSize := int(u32le(d, pos+4))
		pos += 8 + ((chunkSize + 1) &^ 1)
	}
	if !isXMA {
		return nil
	}

	length, ok := clampLength(fileSize, 44, 100*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: "xma", Offset: w.Offset, Length: length}
}

// validateOgg walks Ogg pages from the hit until the end-of-stream page, a
// non-page byte, or the size cap. The page chain gives an exact length, no
// header size field needed.
func validateOgg(w Window) *Region {
	d := w.Data
	var length int64
	pos := 0
	for {
		if pos+27 > len(d) || string(d[pos:pos+4]) != "OggS" {
			break
		}
		if d[pos+4] != 0 { // stream structure version
			break
		}
		headerType := d[pos+5]
		nseg := int(d[pos+26])
		if pos+27+nseg > len(d) {
			break
		}
		pageLen := 27 + nseg
		for _, lace := range d[pos+27 : pos+27+nseg] {
			pageLen += int(lace)
		}
		if pos+pageLen > len(d) {
			break
		}
		pos += pageLen
		length = int64(pos)
		if headerType&0x04 != 0 { // EOS page
			break
		}
	}
	if length == 0 {
		return nil
	}
	length, ok := clampLength(length, 58, 50*mb, int64(len(d)))
	if !ok {
		return nil
	}
	return &Region{FormatID: "ogg", Offset: w.Offset, Length: length}
}

// validateLIP accepts lip-sync blobs on the magic alone; the container has
// no usable length field, so a conservative fixed estimate is carved.
func validateLIP(w Window) *Region {
	if len(w.Data) < 8 {
		return nil
	}
	length, ok := clampLength(10000, 20, 5*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{FormatID: "lip", Offset: w.Offset, Length: length}
}
