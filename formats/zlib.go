package formats

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// validateZlib inflates from the hit to find the exact compressed stream
// length, checksum included. bytes.Reader is an io.ByteReader, so the
// decompressor consumes exactly the stream bytes and the reader's residue
// gives the carved length. Tiny payloads are noise and rejected.
func validateZlib(w Window) *Region {
	br := bytes.NewReader(w.Data)
	r, err := zlib.NewReader(br)
	if err != nil {
		return nil
	}
	defer r.Close()

	inflated, err := io.Copy(io.Discard, r)
	if err != nil || inflated <= 50 {
		return nil
	}
	compressed := int64(len(w.Data)) - int64(br.Len())

	length, ok := clampLength(compressed, 10, 10*mb, w.Remaining)
	if !ok {
		return nil
	}
	return &Region{Offset: w.Offset, Length: length}
}
