package formats

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestValidateZlib_ExactStreamLength(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 12)
	stream := deflate(t, payload)
	d := append(append([]byte{}, stream...), make([]byte, 64)...)

	r := validateZlib(window(d))
	require.NotNil(t, r)
	assert.Equal(t, int64(len(stream)), r.Length)
}

func TestValidateZlib_TinyPayloadRejected(t *testing.T) {
	stream := deflate(t, []byte("too small"))
	assert.Nil(t, validateZlib(window(stream)))
}

func TestValidateZlib_GarbageRejected(t *testing.T) {
	d := append([]byte{0x78, 0xda}, bytes.Repeat([]byte{0xFF}, 64)...)
	assert.Nil(t, validateZlib(window(d)))
}

func TestConvertZlib_InflatesAndClassifies(t *testing.T) {
	payload := append([]byte("DDS "), make([]byte, 200)...)
	stream := deflate(t, payload)

	conv := convertZlib(stream, &Region{})
	require.Equal(t, Converted, conv.Status)
	assert.Equal(t, payload, conv.Bytes)
	assert.Equal(t, "zlib:dds", conv.Kind)
	assert.Equal(t, ".dds", conv.Extension)
}

func TestConvertZlib_TextPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("set questStage to 10\n"), 10)
	conv := convertZlib(deflate(t, payload), &Region{})
	require.Equal(t, Converted, conv.Status)
	assert.Equal(t, "zlib:text", conv.Kind)
	assert.Equal(t, ".txt", conv.Extension)
}

func TestConvertZlib_CorruptStreamFails(t *testing.T) {
	conv := convertZlib([]byte{0x78, 0xda, 0x00, 0x01, 0x02}, &Region{})
	assert.Equal(t, Failed, conv.Status)
	assert.Error(t, conv.Err)
}

func TestClassifyDecompressed(t *testing.T) {
	kind, ext := classifyDecompressed(append([]byte("TES4"), make([]byte, 32)...))
	assert.Equal(t, "esp", kind)
	assert.Equal(t, ".esp", ext)

	kind, ext = classifyDecompressed([]byte("<?xml version=\"1.0\"?><root/>"))
	assert.Equal(t, "xml", kind)
	assert.Equal(t, ".xml", ext)

	kind, ext = classifyDecompressed(bytes.Repeat([]byte{0xFE, 0x01}, 64))
	assert.Equal(t, "binary", kind)
	assert.Equal(t, ".bin", ext)
}
