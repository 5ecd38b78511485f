package formats

import "fmt"

// DDX is the Xbox 360 texture container: a small header, a 52-byte
// D3DTexture record, then XMemCompress-packed texel data. Header layout per
// the DDXConv tooling:
//
//	0x00  magic "3XDO" or "3XDR"
//	0x04  priority bytes (3)
//	0x07  version, uint16 LE, must be >= 3
//	0x08  D3DTexture header (52 bytes)
//	0x3C  trailer (8 bytes)
//	0x44  compressed texel data
const ddxHeaderSize = 68

// xbox360GPUFormats maps Xbox 360 GPU texture format codes to DXT names.
var xbox360GPUFormats = map[byte]string{
	0x12: "DXT1",
	0x13: "DXT3",
	0x14: "DXT5",
	0x52: "DXT1",
	0x53: "DXT3",
	0x54: "DXT5",
	0x71: "ATI2",
	0x7B: "ATI1",
	0x82: "DXT1",
	0x86: "DXT1",
	0x88: "DXT5",
}

func validateDDX(w Window) *Region {
	if len(w.Data) < ddxHeaderSize {
		return nil
	}
	h := w.Data

	version := u16le(h, 0x07)
	if version < 3 {
		return nil
	}

	// Dimension dword sits 36 bytes into the D3DTexture header, stored
	// big-endian: bits 0-12 width-1, bits 13-25 height-1.
	dword5 := u32be(h, 0x08+36)
	width := int64(dword5&0x1FFF) + 1
	height := int64((dword5>>13)&0x1FFF) + 1
	if width > 4096 || height > 4096 {
		return nil
	}

	dword3 := u32le(h, 0x18+12)
	dword4 := u32le(h, 0x18+16)
	formatCode := byte((dword4 >> 24) & 0xFF)
	if formatCode == 0 {
		formatCode = byte(dword3 & 0xFF)
	}
	formatName, known := xbox360GPUFormats[formatCode]
	if !known {
		formatName = fmt.Sprintf("Unknown(0x%02X)", formatCode)
	}

	perBlock := int64(16)
	if formatName == "DXT1" || formatName == "ATI1" {
		perBlock = 8
	}
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	uncompressed := blocksW * blocksH * perBlock

	// XMemCompress output size is not recorded in the header; 70% of the
	// uncompressed DXT size is the original tool's working estimate.
	est := ddxHeaderSize + uncompressed*7/10

	id := "ddx_3xdo"
	if string(h[:4]) == "3XDR" {
		id = "ddx_3xdr"
	}
	length, ok := clampLength(est, 68, 50*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{
		FormatID: id,
		Offset:   w.Offset,
		Length:   length,
		Metadata: map[string]string{"gpu_format": formatName, "dims": fmt.Sprintf("%dx%d", width, height)},
	}
}
