package formats

const ddsHeaderSize = 128

// validateDDS sizes a DirectDraw Surface from its header. Xbox 360 builds
// store the header dwords big-endian; when the little-endian read looks
// implausible the fields are re-read big-endian and the region is tagged so
// the endian-swap converter can produce a PC-readable texture.
func validateDDS(w Window) *Region {
	if len(w.Data) < ddsHeaderSize {
		return nil
	}
	h := w.Data[:ddsHeaderSize]

	headerSize := u32le(h, 4)
	height := int64(u32le(h, 12))
	width := int64(u32le(h, 16))
	pitchOrLinear := int64(u32le(h, 20))
	mipCount := int(u32le(h, 28))
	endianness := "little"

	if height > 16384 || width > 16384 || headerSize != 124 {
		height = int64(u32be(h, 12))
		width = int64(u32be(h, 16))
		pitchOrLinear = int64(u32be(h, 20))
		mipCount = int(u32be(h, 28))
		endianness = "big"
	}
	if height == 0 || width == 0 || height > 16384 || width > 16384 {
		return nil
	}

	fourcc := trimFourCC(h[84:88])
	perBlock := ddsBytesPerBlock(fourcc)

	var est int64
	if !isBlockCompressed(fourcc) && pitchOrLinear > 0 {
		est = ddsUncompressedSize(height, pitchOrLinear, mipCount, perBlock)
	} else {
		est = ddsMipChainSize(width, height, mipCount, perBlock)
	}
	est += ddsHeaderSize

	length, ok := clampLength(est, 128, 50*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{
		FormatID: "dds",
		Offset:   w.Offset,
		Length:   length,
		Metadata: map[string]string{"endianness": endianness, "fourcc": fourcc},
	}
}

func trimFourCC(b []byte) string {
	out := make([]byte, 0, 4)
	for _, c := range b {
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	return string(out)
}

func isBlockCompressed(fourcc string) bool {
	switch fourcc {
	case "DXT1", "DXT2", "DXT3", "DXT4", "DXT5", "ATI1", "BC4U", "BC4S", "ATI2", "BC5U", "BC5S":
		return true
	}
	return false
}

func ddsBytesPerBlock(fourcc string) int64 {
	switch fourcc {
	case "DXT1", "ATI1", "BC4U", "BC4S":
		return 8
	}
	return 16
}

func ddsMipChainSize(width, height int64, mipCount int, perBlock int64) int64 {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	size := blocksW * blocksH * perBlock

	if mipCount > 1 {
		mw, mh := width, height
		for i := 1; i < mipCount && i < 16; i++ {
			mw = max(1, mw/2)
			mh = max(1, mh/2)
			size += max(1, (mw+3)/4) * max(1, (mh+3)/4) * perBlock
		}
	}
	return size
}

func ddsUncompressedSize(height, pitch int64, mipCount int, perBlock int64) int64 {
	size := pitch * height
	if mipCount > 1 {
		mip := size
		for i := 1; i < mipCount && i < 16; i++ {
			mip /= 4
			size += max(mip, perBlock)
		}
	}
	return size
}
