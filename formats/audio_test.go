package formats

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riffWave(fileSize uint32, chunks ...[]byte) []byte {
	d := make([]byte, 0, 256)
	d = append(d, "RIFF"...)
	d = binary.LittleEndian.AppendUint32(d, fileSize)
	d = append(d, "WAVE"...)
	for _, c := range chunks {
		d = append(d, c...)
	}
	return append(d, make([]byte, 64)...)
}

func riffChunk(id string, payload []byte) []byte {
	c := append([]byte(id), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(c[4:], uint32(len(payload)))
	return append(c, payload...)
}

func TestValidateXMA_XMA2Chunk(t *testing.T) {
	d := riffWave(192, riffChunk("XMA2", make([]byte, 32)))
	r := validateXMA(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(200), r.Length)
}

func TestValidateXMA_FmtFormatTag(t *testing.T) {
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk, 0x0165)
	d := riffWave(192, riffChunk("fmt ", fmtChunk))
	r := validateXMA(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(200), r.Length)
}

func TestValidateXMA_RejectsPCWave(t *testing.T) {
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk, 0x0001) // plain PCM
	d := riffWave(192, riffChunk("fmt ", fmtChunk), riffChunk("data", make([]byte, 16)))
	assert.Nil(t, validateXMA(window(d)))
}

func TestValidateXMA_DeclaredSizeClampedToInput(t *testing.T) {
	d := riffWave(90*1024*1024, riffChunk("XMA2", make([]byte, 32)))
	r := validateXMA(windowAhead(d, 5000))
	require.NotNil(t, r)
	assert.Equal(t, int64(5000), r.Length)
}

func oggPage(headerType byte, laces ...byte) []byte {
	p := make([]byte, 27+len(laces))
	copy(p, "OggS")
	p[5] = headerType
	p[26] = byte(len(laces))
	copy(p[27:], laces)
	body := 0
	for _, l := range laces {
		body += int(l)
	}
	return append(p, make([]byte, body)...)
}

func TestValidateOgg_PageChainToEOS(t *testing.T) {
	first := oggPage(0x02, 100)
	last := oggPage(0x04, 50)
	d := append(append(first, last...), "garbage"...)

	r := validateOgg(window(d))
	require.NotNil(t, r)
	assert.Equal(t, int64(len(first)+len(last)), r.Length)
}

func TestValidateOgg_StopsAtNonPageByte(t *testing.T) {
	page := oggPage(0x02, 200)
	d := append(append([]byte{}, page...), "not a page"...)

	r := validateOgg(window(d))
	require.NotNil(t, r)
	assert.Equal(t, int64(len(page)), r.Length)
}

func TestValidateOgg_Rejects(t *testing.T) {
	assert.Nil(t, validateOgg(window(oggPage(0x04, 10))), "below minimum size")

	bad := oggPage(0x04, 100)
	bad[4] = 9 // unknown stream structure version
	assert.Nil(t, validateOgg(window(bad)))
}

func TestValidateLIP_FixedEstimate(t *testing.T) {
	d := make([]byte, 64)
	copy(d, "LIPS")
	r := validateLIP(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(10000), r.Length)

	r = validateLIP(windowAhead(d, 300))
	require.NotNil(t, r)
	assert.Equal(t, int64(300), r.Length)
}
