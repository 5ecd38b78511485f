package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// window wraps raw bytes as validator input with nothing before the hit and
// nothing past the buffer.
func window(data []byte) Window {
	return Window{Offset: 0, Data: data, Remaining: int64(len(data))}
}

// windowAhead is window with more input remaining past the buffered bytes.
func windowAhead(data []byte, remaining int64) Window {
	return Window{Offset: 0, Data: data, Remaining: remaining}
}

func TestAll_RegistryShape(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	seen := map[string]bool{}
	for _, f := range all {
		assert.NotEmpty(t, f.ID)
		assert.False(t, seen[f.ID], "duplicate id %q", f.ID)
		seen[f.ID] = true

		assert.NotEmpty(t, f.Magic, "%s has no magic", f.ID)
		assert.Greater(t, f.MinSize, int64(0), "%s min size", f.ID)
		assert.GreaterOrEqual(t, f.MaxSize, f.MinSize, "%s size bounds", f.ID)
		assert.NotEmpty(t, f.Category, "%s category", f.ID)
		assert.NotEmpty(t, f.Extension, "%s extension", f.ID)
		assert.NotNil(t, f.Validate, "%s validator", f.ID)
	}
}

func TestFilter(t *testing.T) {
	got := Filter([]string{"png", "dds", "nope"})
	require.Len(t, got, 2)
	// Registration order is preserved, not request order.
	assert.Equal(t, "dds", got[0].ID)
	assert.Equal(t, "png", got[1].ID)

	assert.Len(t, Filter(nil), len(All()))
	assert.Empty(t, Filter([]string{}))
}

func TestIDs(t *testing.T) {
	ids := IDs()
	assert.Len(t, ids, len(All()))
	assert.Contains(t, ids, "xma")
	assert.Contains(t, ids, "zlib_best")
}

func TestClampLength(t *testing.T) {
	tests := []struct {
		name                 string
		est, min, max, avail int64
		want                 int64
		ok                   bool
	}{
		{"in range", 500, 100, 1000, 2000, 500, true},
		{"capped by max", 5000, 100, 1000, 2000, 1000, true},
		{"capped by avail", 500, 100, 1000, 300, 300, true},
		{"below min after clamp", 500, 100, 1000, 50, 0, false},
		{"below min estimate", 50, 100, 1000, 2000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := clampLength(tt.est, tt.min, tt.max, tt.avail)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
