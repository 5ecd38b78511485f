package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	content := "# module table offsets\n0x1000\n4096\n\n0XDEAD\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	offsets, err := readBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{0x1000, 4096, 0xDEAD}, offsets)
}

func TestReadBlacklist_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("0x1000\nnot-a-number\n"), 0644))

	_, err := readBlacklist(path)
	assert.Error(t, err)
}

func TestFindDumpFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.dmp", "a.DMP", "notes.txt", "c.dmp.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	found, err := findDumpFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.DMP"),
		filepath.Join(dir, "b.dmp"),
	}, found)
}

func TestFindDumpFiles_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.dmp")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	found, err := findDumpFiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, found)
}
