package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ConvertStatus tags a conversion outcome so fallback-to-original is an
// explicit branch rather than a nil check.
type ConvertStatus int

const (
	// NotApplicable means the converter declined this payload; the engine
	// writes the original bytes and the manifest records no conversion.
	NotApplicable ConvertStatus = iota
	// Converted means Bytes/Kind/Extension hold the transformed output.
	Converted
	// Failed means conversion was attempted and did not succeed; the engine
	// writes the original bytes and flags the failure in the manifest.
	Failed
)

// Conversion is the result of a ConvertFunc.
type Conversion struct {
	Status    ConvertStatus
	Bytes     []byte
	Kind      string
	Extension string
	Err       error
}

// ConvertFunc optionally post-processes extracted bytes. data is the exact
// carved range; region is the validator's result for it.
type ConvertFunc func(data []byte, region *Region) Conversion

func converted(data []byte, kind, ext string) Conversion {
	return Conversion{Status: Converted, Bytes: data, Kind: kind, Extension: ext}
}

func conversionFailed(err error) Conversion {
	return Conversion{Status: Failed, Err: err}
}

// convertDDSEndian byte-swaps big-endian (Xbox 360) DDS texel data into the
// PC layout. DXT block words are 16-bit, so a pairwise swap of everything
// after the 128-byte header is sufficient. Little-endian textures pass
// through untouched.
func convertDDSEndian(data []byte, region *Region) Conversion {
	if region.Metadata["endianness"] != "big" {
		return Conversion{Status: NotApplicable}
	}
	if len(data) < ddsHeaderSize {
		return conversionFailed(fmt.Errorf("dds payload shorter than header: %d bytes", len(data)))
	}
	out := make([]byte, len(data))
	copy(out, data[:4])
	// Header dwords after the magic are stored big-endian too.
	for off := 4; off+4 <= ddsHeaderSize; off += 4 {
		binary.LittleEndian.PutUint32(out[off:], binary.BigEndian.Uint32(data[off:]))
	}
	body := data[ddsHeaderSize:]
	if len(body)%2 != 0 {
		return conversionFailed(fmt.Errorf("odd texel payload length %d", len(body)))
	}
	for i := 0; i < len(body); i += 2 {
		out[ddsHeaderSize+i] = body[i+1]
		out[ddsHeaderSize+i+1] = body[i]
	}
	return converted(out, "endian-swap", ".dds")
}

// convertZlib inflates a carved zlib stream and picks an extension from the
// decompressed payload. The carved range is exactly the compressed stream,
// so a short or corrupt stream surfaces here as a Failed conversion and the
// raw stream is kept instead.
func convertZlib(data []byte, region *Region) Conversion {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return conversionFailed(fmt.Errorf("zlib open: %w", err))
	}
	defer r.Close()
	plain, err := io.ReadAll(io.LimitReader(r, 256*mb))
	if err != nil {
		return conversionFailed(fmt.Errorf("zlib inflate: %w", err))
	}
	if len(plain) < 20 {
		return conversionFailed(fmt.Errorf("inflated to only %d bytes", len(plain)))
	}
	kind, ext := classifyDecompressed(plain)
	return converted(plain, "zlib:"+kind, ext)
}

// classifyDecompressed maps an inflated payload to a content label and
// output extension by its leading bytes.
func classifyDecompressed(plain []byte) (string, string) {
	type sig struct {
		magic []byte
		kind  string
		ext   string
	}
	sigs := []sig{
		{gamebryoMagic, "nif", ".nif"},
		{[]byte("DDS "), "dds", ".dds"},
		{[]byte("3XDO"), "ddx", ".ddx"},
		{[]byte("3XDR"), "ddx", ".ddx"},
		{[]byte("TES4"), "esp", ".esp"},
		{[]byte("BSA\x00"), "bsa", ".bsa"},
		{[]byte("OggS"), "ogg", ".ogg"},
		{[]byte("\x89PNG"), "png", ".png"},
		{[]byte("BIKi"), "bik", ".bik"},
		{[]byte("LIPS"), "lip", ".lip"},
		{[]byte("XEX2"), "xex", ".xex"},
		{[]byte("XDBF"), "xdbf", ".xdbf"},
		{[]byte("XUIS"), "xui", ".xui"},
		{[]byte("XUIB"), "xui", ".xui"},
	}
	for _, s := range sigs {
		if bytes.HasPrefix(plain, s.magic) {
			return s.kind, s.ext
		}
	}
	if bytes.HasPrefix(plain, []byte("RIFF")) {
		head := plain
		if len(head) > 100 {
			head = head[:100]
		}
		if bytes.Contains(head, []byte("XMA2")) || bytes.Contains(head, []byte("fmt ")) {
			return "xma", ".xma"
		}
		return "riff", ".riff"
	}
	if bytes.HasPrefix(plain, []byte("scn ")) || bytes.HasPrefix(plain, []byte("ScriptName ")) {
		return "script", ".txt"
	}
	if bytes.HasPrefix(plain, []byte("<?xml")) || bytes.HasPrefix(plain, []byte("<")) {
		return "xml", ".xml"
	}
	if isMostlyText(plain) {
		return "text", ".txt"
	}
	return "binary", ".bin"
}

func isMostlyText(data []byte) bool {
	sample := data
	if len(sample) > 500 {
		sample = sample[:500]
	}
	if len(sample) == 0 {
		return false
	}
	printable := 0
	for _, b := range sample {
		if (b >= 32 && b < 127) || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable)/float64(len(sample)) > 0.85
}
