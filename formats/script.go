package formats

import (
	"bytes"
	"strings"
)

// ObScript sources appear back to back in debug-build dumps, so the end of
// one script is found by the next script header or the first garbage byte.
var scriptHeaders = [][]byte{
	[]byte("scn "), []byte("Scn "), []byte("SCN "),
	[]byte("ScriptName "), []byte("scriptname "), []byte("SCRIPTNAME "),
}

// validateScript extracts one Bethesda ObScript source. The parsed script
// name becomes the output file's display name; scripts without a closing
// "end" are carved anyway and marked incomplete.
func validateScript(w Window) *Region {
	if len(w.Data) < 10 {
		return nil
	}
	d := w.Data

	firstLineEnd := bytes.IndexByte(d, '\n')
	if firstLineEnd == -1 {
		return nil
	}
	name := scriptName(strings.TrimSpace(string(d[:firstLineEnd])))
	if name == "" {
		return nil
	}

	// Require real content after the header line.
	rest := d[firstLineEnd+1:]
	if len(rest) < 5 || bytes.IndexByte(rest, '\n') == -1 {
		return nil
	}

	end := scriptEnd(d, firstLineEnd)
	if end < 10 {
		return nil
	}

	text := strings.ToLower(string(d[:end]))
	complete := strings.Contains(text, "\nend") || strings.HasSuffix(strings.TrimRight(text, " \t\r\n"), "end")

	display := name
	if !complete {
		display = name + "_INCOMPLETE"
	}

	id := "script_scn"
	if strings.HasPrefix(strings.ToLower(string(d[:min(11, len(d))])), "scriptname") {
		id = "script_sn"
	}
	length, ok := clampLength(int64(end), 20, 100*kb, int64(len(d)))
	if !ok {
		return nil
	}
	return &Region{FormatID: id, Offset: w.Offset, Length: length, DisplayName: display}
}

// scriptName pulls the identifier off a "scn X" or "ScriptName X" line and
// rejects anything that is not a plain identifier.
func scriptName(line string) string {
	lower := strings.ToLower(line)
	var name string
	switch {
	case strings.HasPrefix(lower, "scn "):
		name = strings.TrimSpace(line[4:])
	case strings.HasPrefix(lower, "scriptname "):
		name = strings.TrimSpace(line[11:])
	default:
		return ""
	}
	for _, sep := range []string{";", "\r", "\t", " "} {
		if i := strings.Index(name, sep); i != -1 {
			name = name[:i]
		}
	}
	if name == "" {
		return ""
	}
	for _, c := range name {
		if !isIdentChar(c) {
			return ""
		}
	}
	return name
}

func isIdentChar(c rune) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scriptEnd finds where the script text stops: the line boundary before the
// next script header, or the first non-printable byte, whichever is earlier.
// Trailing whitespace is trimmed off the length.
func scriptEnd(d []byte, firstLineEnd int) int {
	end := len(d)
	searchStart := firstLineEnd + 1

	for _, header := range scriptHeaders {
		next := bytes.Index(d[searchStart:], header)
		if next == -1 {
			continue
		}
		next += searchStart
		boundary := bytes.LastIndexByte(d[:next], '\n')
		if boundary == -1 {
			boundary = next
		}
		if boundary < end {
			end = boundary
		}
	}

	for i, b := range d[:end] {
		if b == 0 || b > 126 || (b < 32 && b != '\t' && b != '\n' && b != '\r') {
			end = i
			break
		}
	}

	for end > 0 {
		b := d[end-1]
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			break
		}
		end--
	}
	return end
}
