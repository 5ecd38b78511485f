package formats

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ddsHeader(bigEndian bool, width, height, pitch, mips uint32, fourcc string) []byte {
	h := make([]byte, ddsHeaderSize)
	copy(h, "DDS ")
	put := binary.LittleEndian.PutUint32
	if bigEndian {
		put = binary.BigEndian.PutUint32
	}
	put(h[4:], 124)
	put(h[12:], height)
	put(h[16:], width)
	put(h[20:], pitch)
	put(h[28:], mips)
	copy(h[84:], fourcc)
	return h
}

func TestValidateDDS_LittleEndianDXT1(t *testing.T) {
	r := validateDDS(windowAhead(ddsHeader(false, 64, 64, 0, 1, "DXT1"), 1<<20))
	require.NotNil(t, r)

	// 16x16 blocks of 8 bytes plus the header.
	assert.Equal(t, int64(16*16*8+128), r.Length)
	assert.Equal(t, "little", r.Metadata["endianness"])
	assert.Equal(t, "DXT1", r.Metadata["fourcc"])
}

func TestValidateDDS_BigEndianFallback(t *testing.T) {
	r := validateDDS(windowAhead(ddsHeader(true, 64, 64, 0, 1, "DXT1"), 1<<20))
	require.NotNil(t, r)

	assert.Equal(t, int64(16*16*8+128), r.Length)
	assert.Equal(t, "big", r.Metadata["endianness"])
}

func TestValidateDDS_MipChain(t *testing.T) {
	r := validateDDS(windowAhead(ddsHeader(false, 64, 64, 0, 3, "DXT5"), 1<<20))
	require.NotNil(t, r)

	// 64x64 + 32x32 + 16x16 in 16-byte blocks.
	want := int64(16*16*16 + 8*8*16 + 4*4*16 + 128)
	assert.Equal(t, want, r.Length)
}

func TestValidateDDS_UncompressedUsesPitch(t *testing.T) {
	r := validateDDS(windowAhead(ddsHeader(false, 64, 64, 256, 1, ""), 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(256*64+128), r.Length)
}

func TestValidateDDS_Rejects(t *testing.T) {
	assert.Nil(t, validateDDS(window(ddsHeader(false, 0, 64, 0, 1, "DXT1"))), "zero width")
	assert.Nil(t, validateDDS(window(make([]byte, 64))), "short header")

	// Implausible in both byte orders.
	h := ddsHeader(false, 64, 64, 0, 1, "DXT1")
	binary.LittleEndian.PutUint32(h[12:], 100000)
	binary.LittleEndian.PutUint32(h[4:], 999)
	assert.Nil(t, validateDDS(window(h)))
}

func TestValidateDDS_ClampedToRemaining(t *testing.T) {
	r := validateDDS(Window{Data: ddsHeader(false, 1024, 1024, 0, 1, "DXT5"), Remaining: 4096})
	require.NotNil(t, r)
	assert.Equal(t, int64(4096), r.Length)
}
