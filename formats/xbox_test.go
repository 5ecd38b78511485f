package formats

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateXEX_ImageSize(t *testing.T) {
	d := make([]byte, 64)
	copy(d, "XEX2")
	binary.BigEndian.PutUint32(d[0x10:], 2000)
	binary.BigEndian.PutUint32(d[0x14:], 300000)

	r := validateXEX(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(300000), r.Length)
}

func TestValidateXEX_HeaderOnlyFallback(t *testing.T) {
	d := make([]byte, 64)
	copy(d, "XEX2")
	binary.BigEndian.PutUint32(d[0x10:], 2000)

	r := validateXEX(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(4096), r.Length)
}

func TestValidateXDBF_EntryTableEstimate(t *testing.T) {
	d := make([]byte, 64)
	copy(d, "XDBF")
	binary.BigEndian.PutUint32(d[8:], 10) // entry table length
	binary.BigEndian.PutUint32(d[12:], 5) // entry count
	binary.BigEndian.PutUint32(d[16:], 2) // free table length

	r := validateXDBF(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(24+10*18+2*8+5*1024), r.Length)
}

func TestValidateXUI_SceneAndBinary(t *testing.T) {
	scene := make([]byte, 32)
	copy(scene, "XUIS")
	r := validateXUI(windowAhead(scene, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, "xuis", r.FormatID)
	assert.Equal(t, int64(50000), r.Length)

	bin := make([]byte, 32)
	copy(bin, "XUIB")
	binary.BigEndian.PutUint32(bin[8:], 1234)
	r = validateXUI(windowAhead(bin, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, "xuib", r.FormatID)
	assert.Equal(t, int64(1234), r.Length)
}

func TestValidateSTFS_ContentSize(t *testing.T) {
	d := make([]byte, 0x400)
	copy(d, "PIRS")
	binary.BigEndian.PutUint32(d[0x344:], 50000)

	r := validateSTFS(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, "pirs", r.FormatID)
	assert.Equal(t, int64(50000+0x1000), r.Length)

	copy(d, "CON ")
	r = validateSTFS(windowAhead(d, 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, "con", r.FormatID)
}

func TestValidateSTFS_ShortHeaderRejected(t *testing.T) {
	d := make([]byte, 0x200)
	copy(d, "PIRS")
	assert.Nil(t, validateSTFS(window(d)))
}
