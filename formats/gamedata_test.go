package formats

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizeAt4(magic string, declared uint32) []byte {
	d := make([]byte, 64)
	copy(d, magic)
	binary.LittleEndian.PutUint32(d[4:], declared)
	return d
}

func TestValidateSizeAt4LE(t *testing.T) {
	v := validateSizeAt4LE(24, 500*mb)

	r := v(windowAhead(sizeAt4("TES4", 100000), 1<<20))
	require.NotNil(t, r)
	assert.Equal(t, int64(100000), r.Length)

	r = v(windowAhead(sizeAt4("TES4", 100000), 400))
	require.NotNil(t, r)
	assert.Equal(t, int64(400), r.Length)

	assert.Nil(t, v(window(sizeAt4("TES4", 10))), "declared below minimum")
	assert.Nil(t, v(window(sizeAt4("TES4", 0))), "zero size")
	assert.Nil(t, v(window([]byte("TES4"))), "truncated header")
}
