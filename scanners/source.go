package scanners

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ByteSource is a dump image addressable by position. ReadAt must be safe
// for concurrent callers; implementations never share a mutable cursor.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Slicer is implemented by sources that can expose a byte range without
// copying (memory maps, in-memory buffers). The returned slice is read-only
// and valid for the life of the source. The requested range must be in
// bounds.
type Slicer interface {
	Slice(off, n int64) []byte
}

// MmapSource maps the whole dump read-only. This is the preferred source for
// local files: concurrent extraction slices the mapping directly.
type MmapSource struct {
	file *os.File
	data mmap.MMap
}

// OpenMmap opens path and memory-maps it read-only.
func OpenMmap(path string) (*MmapSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	return &MmapSource{file: file, data: data}, nil
}

func (m *MmapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MmapSource) Size() int64 { return int64(len(m.data)) }

// Bytes exposes the underlying mapping. Callers must treat it as read-only.
func (m *MmapSource) Bytes() []byte { return m.data }

func (m *MmapSource) Slice(off, n int64) []byte { return m.data[off : off+n] }

func (m *MmapSource) Close() error {
	err := m.data.Unmap()
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// FileSource uses positioned reads on an open file. Fallback for inputs that
// cannot be mapped (e.g. very large dumps on 32-bit hosts).
type FileSource struct {
	file *os.File
	size int64
}

func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &FileSource{file: file, size: info.Size()}, nil
}

func (f *FileSource) ReadAt(p []byte, off int64) (int, error) { return f.file.ReadAt(p, off) }
func (f *FileSource) Size() int64                             { return f.size }
func (f *FileSource) Close() error                            { return f.file.Close() }

// BytesSource wraps an in-memory buffer. Used by tests and the serve command.
type BytesSource struct {
	data []byte
}

func NewBytesSource(data []byte) *BytesSource { return &BytesSource{data: data} }

func (b *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *BytesSource) Size() int64 { return int64(len(b.data)) }

func (b *BytesSource) Slice(off, n int64) []byte { return b.data[off : off+n] }
