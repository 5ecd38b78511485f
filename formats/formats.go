// Package formats holds the file-format registry for dump carving: one
// entry per recoverable format with its magic bytes, plausible size bounds,
// output category, a validator that turns a raw signature hit into a
// length-bounded region, and an optional converter run after extraction.
package formats

// LookBehind is how many bytes of preceding context the engine hands to
// validators, clamped to the start of the input. Some formats (embedded path
// strings before binary headers) need it.
const LookBehind = 512

// Window is the context assembled around one candidate offset. Data starts
// at the candidate and extends up to the format's MaxSize, clamped to the
// end of the input (the engine may cap it lower for sources that cannot be
// sliced without copying). Before holds up to LookBehind preceding bytes.
// Remaining is the true byte count from the candidate to end-of-input, which
// can exceed len(Data); validators bound declared lengths against it.
type Window struct {
	Offset    int64
	Data      []byte
	Before    []byte
	Remaining int64
}

// Region is a validated candidate: a concrete byte range in the dump, plus
// optional naming and metadata for the extraction stage. Validators only
// produce regions whose Length lies within the format's [MinSize, MaxSize].
type Region struct {
	FormatID    string
	Offset      int64
	Length      int64
	DisplayName string
	Metadata    map[string]string
}

// ValidateFunc confirms a candidate and computes its true length. A nil
// return is a hard rejection: the engine drops the candidate, there is no
// magic-only fallback sizing.
type ValidateFunc func(w Window) *Region

// Format describes one carvable file format. Immutable once registered.
type Format struct {
	ID          string
	Magic       []byte
	MinSize     int64
	MaxSize     int64
	Category    string
	Extension   string
	Description string
	Validate    ValidateFunc
	Convert     ConvertFunc
}

const (
	kb = 1024
	mb = 1024 * 1024
	gb = 1024 * 1024 * 1024
)

// All returns the built-in format registry in registration order. The slice
// is rebuilt per call; callers may filter it freely.
func All() []Format {
	return []Format{
		// Textures
		{ID: "dds", Magic: []byte("DDS "), MinSize: 128, MaxSize: 50 * mb,
			Category: "textures", Extension: ".dds", Description: "DirectDraw Surface texture",
			Validate: validateDDS, Convert: convertDDSEndian},
		{ID: "ddx_3xdo", Magic: []byte("3XDO"), MinSize: 68, MaxSize: 50 * mb,
			Category: "ddx", Extension: ".ddx", Description: "Xbox 360 DDX texture (3XDO)",
			Validate: validateDDX},
		{ID: "ddx_3xdr", Magic: []byte("3XDR"), MinSize: 68, MaxSize: 50 * mb,
			Category: "ddx", Extension: ".ddx", Description: "Xbox 360 DDX texture (3XDR engine-tiled)",
			Validate: validateDDX},

		// Models and animation (all Gamebryo-container formats)
		{ID: "nif", Magic: gamebryoMagic, MinSize: 100, MaxSize: 20 * mb,
			Category: "nif", Extension: ".nif", Description: "NetImmerse/Gamebryo 3D model",
			Validate: validateGamebryo(20 * mb)},
		{ID: "kf", Magic: gamebryoMagic, MinSize: 100, MaxSize: 10 * mb,
			Category: "kf", Extension: ".kf", Description: "Gamebryo animation",
			Validate: validateGamebryo(10 * mb)},
		{ID: "egm", Magic: gamebryoMagic, MinSize: 100, MaxSize: 5 * mb,
			Category: "egm", Extension: ".egm", Description: "FaceGen morph data",
			Validate: validateGamebryo(5 * mb)},
		{ID: "egt", Magic: gamebryoMagic, MinSize: 100, MaxSize: 1 * mb,
			Category: "egt", Extension: ".egt", Description: "FaceGen tint data",
			Validate: validateGamebryo(1 * mb)},

		// Audio
		{ID: "xma", Magic: []byte("RIFF"), MinSize: 44, MaxSize: 100 * mb,
			Category: "audio", Extension: ".xma", Description: "Xbox Media Audio (RIFF/XMA)",
			Validate: validateXMA},
		{ID: "ogg", Magic: []byte("OggS"), MinSize: 58, MaxSize: 50 * mb,
			Category: "audio", Extension: ".ogg", Description: "Ogg Vorbis audio",
			Validate: validateOgg},
		{ID: "lip", Magic: []byte("LIPS"), MinSize: 20, MaxSize: 5 * mb,
			Category: "lip", Extension: ".lip", Description: "Lip-sync animation",
			Validate: validateLIP},

		// ObScript sources (debug builds only)
		{ID: "script_scn", Magic: []byte("scn "), MinSize: 20, MaxSize: 100 * kb,
			Category: "scripts", Extension: ".txt", Description: "Bethesda ObScript (scn)",
			Validate: validateScript},
		{ID: "script_sn", Magic: []byte("ScriptName "), MinSize: 20, MaxSize: 100 * kb,
			Category: "scripts", Extension: ".txt", Description: "Bethesda ObScript (ScriptName)",
			Validate: validateScript},

		// Game data
		{ID: "esp", Magic: []byte("TES4"), MinSize: 24, MaxSize: 500 * mb,
			Category: "esp", Extension: ".esp", Description: "Elder Scrolls plugin",
			Validate: validateSizeAt4LE(24, 500*mb)},
		{ID: "bsa", Magic: []byte("BSA\x00"), MinSize: 36, MaxSize: 2 * gb,
			Category: "bsa", Extension: ".bsa", Description: "Bethesda archive",
			Validate: validateSizeAt4LE(36, 2*gb)},

		// Images and video
		{ID: "png", Magic: []byte("\x89PNG\r\n\x1a\n"), MinSize: 67, MaxSize: 50 * mb,
			Category: "png", Extension: ".png", Description: "PNG image",
			Validate: validatePNG},
		{ID: "bik", Magic: []byte("BIKi"), MinSize: 20, MaxSize: 500 * mb,
			Category: "bik", Extension: ".bik", Description: "Bink video",
			Validate: validateBIK},

		// Xbox 360 system formats
		{ID: "xex", Magic: []byte("XEX2"), MinSize: 24, MaxSize: 100 * mb,
			Category: "xex", Extension: ".xex", Description: "Xbox 360 executable",
			Validate: validateXEX},
		{ID: "xdbf", Magic: []byte("XDBF"), MinSize: 24, MaxSize: 10 * mb,
			Category: "xdbf", Extension: ".xdbf", Description: "Xbox dashboard file",
			Validate: validateXDBF},
		{ID: "xuis", Magic: []byte("XUIS"), MinSize: 16, MaxSize: 10 * mb,
			Category: "xui", Extension: ".xuis", Description: "Xbox UI scene",
			Validate: validateXUI},
		{ID: "xuib", Magic: []byte("XUIB"), MinSize: 16, MaxSize: 10 * mb,
			Category: "xui", Extension: ".xuib", Description: "Xbox UI binary",
			Validate: validateXUI},
		{ID: "pirs", Magic: []byte("PIRS"), MinSize: 0x344 + 4, MaxSize: 100 * mb,
			Category: "stfs", Extension: ".pirs", Description: "Xbox LIVE signed package",
			Validate: validateSTFS},
		{ID: "con", Magic: []byte("CON "), MinSize: 0x344 + 4, MaxSize: 100 * mb,
			Category: "stfs", Extension: ".con", Description: "Xbox LIVE content package",
			Validate: validateSTFS},

		// Compressed streams
		{ID: "zlib_default", Magic: []byte{0x78, 0x9c}, MinSize: 10, MaxSize: 10 * mb,
			Category: "zlib", Extension: ".zlib", Description: "Zlib stream (default compression)",
			Validate: validateZlib, Convert: convertZlib},
		{ID: "zlib_best", Magic: []byte{0x78, 0xda}, MinSize: 10, MaxSize: 10 * mb,
			Category: "zlib", Extension: ".zlib", Description: "Zlib stream (best compression)",
			Validate: validateZlib, Convert: convertZlib},
	}
}

// Filter returns the registry entries whose IDs appear in ids, preserving
// registration order. A nil ids selects everything.
func Filter(ids []string) []Format {
	all := All()
	if ids == nil {
		return all
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]Format, 0, len(all))
	for _, f := range all {
		if want[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// IDs returns every registered format id, in registration order.
func IDs() []string {
	all := All()
	ids := make([]string, len(all))
	for i, f := range all {
		ids[i] = f.ID
	}
	return ids
}

var gamebryoMagic = []byte("Gamebryo File Format")
