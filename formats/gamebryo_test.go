package formats

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gamebryoHeader(version string, blocks uint32) []byte {
	d := make([]byte, 256)
	n := copy(d, gamebryoMagic)
	n += copy(d[n:], ", ")
	n += copy(d[n:], version)
	// NUL terminator is the zero fill; the block count sits dword-aligned
	// shortly after the version string.
	if blocks > 0 {
		binary.LittleEndian.PutUint32(d[n+5:], blocks)
	}
	return d
}

func TestValidateGamebryo_BlockCountEstimate(t *testing.T) {
	v := validateGamebryo(20 * mb)
	r := v(windowAhead(gamebryoHeader("Version 20.2.0.7", 100), 1<<22))
	require.NotNil(t, r)
	assert.Equal(t, int64(100*500+1000), r.Length)
	assert.Equal(t, "Version 20.2.0.7", r.Metadata["version"])
}

func TestValidateGamebryo_OldVersionFallback(t *testing.T) {
	v := validateGamebryo(20 * mb)
	r := v(windowAhead(gamebryoHeader("Version 4.0.0.2", 0), 1<<22))
	require.NotNil(t, r)
	assert.Equal(t, int64(50000), r.Length)
}

func TestValidateGamebryo_MaxSizePerContainer(t *testing.T) {
	v := validateGamebryo(30000)
	r := v(windowAhead(gamebryoHeader("Version 20.2.0.7", 9000), 1<<22))
	require.NotNil(t, r)
	assert.Equal(t, int64(30000), r.Length)
}

func TestValidateGamebryo_Rejects(t *testing.T) {
	v := validateGamebryo(20 * mb)
	assert.Nil(t, v(window(make([]byte, 32))), "short input")
	assert.Nil(t, v(window(make([]byte, 256))), "wrong magic")

	// Version string never terminates.
	d := gamebryoHeader("Version 20.2.0.7", 100)
	for i := len(gamebryoMagic) + 2; i < len(gamebryoMagic)+2+40; i++ {
		if d[i] == 0 {
			d[i] = 'x'
		}
	}
	assert.Nil(t, v(window(d)))
}
