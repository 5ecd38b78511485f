// Package scanners drives signature search over dump images too large to
// hold in memory. The chunk scanner walks the input in fixed windows with
// enough overlap that no signature straddling a window boundary is missed,
// and hands each window's deduplicated, offset-ordered candidates to a
// caller-supplied function before advancing.
package scanners

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/jackmaun/x360carve/automaton"
)

// Candidate is a raw signature hit awaiting validation.
type Candidate struct {
	PatternID string
	Offset    int64
}

// Chunk is one scanned window plus the candidates it owns. Window holds the
// bytes [Base, Base+len(Window)); candidates may peek into the trailing
// overlap region without touching the source again.
type Chunk struct {
	Index      int
	Base       int64
	Window     []byte
	Candidates []Candidate
}

// Contains reports whether [off, off+n) lies inside the buffered window.
func (c *Chunk) Contains(off, n int64) bool {
	return off >= c.Base && off+n <= c.Base+int64(len(c.Window))
}

// Slice returns the buffered bytes at [off, off+n). Caller must check
// Contains first.
func (c *Chunk) Slice(off, n int64) []byte {
	return c.Window[off-c.Base : off-c.Base+n]
}

// Progress receives monotonically non-decreasing completion fractions. The
// scanner reports once per chunk boundary.
type Progress interface {
	Update(fraction float64, phase string)
}

type noopProgress struct{}

func (noopProgress) Update(float64, string) {}

// ChunkFunc processes one chunk's candidates. The chunk's window buffer is
// reused by the scanner and is only valid until fn returns. Returning an
// error aborts the scan.
type ChunkFunc func(ctx context.Context, chunk *Chunk) error

// DefaultWindowSize matches a comfortable resident-set bound for
// gigabyte-scale dumps.
const DefaultWindowSize = 10 * 1024 * 1024

// minOverlap keeps the validators' 512-byte look-behind inside the buffered
// window for all but file-leading candidates.
const minOverlap = 512

// Scanner applies a built automaton to a ByteSource window by window. Safe
// to reuse across runs; all per-run state lives on the stack of Scan.
type Scanner struct {
	ac         *automaton.Automaton
	windowSize int
	overlap    int
	progress   Progress
	logger     *log.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWindowSize overrides the scan window size.
func WithWindowSize(n int) Option {
	return func(s *Scanner) { s.windowSize = n }
}

// WithProgress attaches a progress observer.
func WithProgress(p Progress) Option {
	return func(s *Scanner) { s.progress = p }
}

// WithLogger attaches a logger. Nil loggers are replaced by a discard
// logger; the scanner never touches global logging state.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New builds a Scanner over a finished automaton. The window overlap is
// derived from the longest registered pattern so the deduplicated candidate
// set is identical for any window size.
func New(ac *automaton.Automaton, opts ...Option) (*Scanner, error) {
	if !ac.Built() {
		return nil, fmt.Errorf("automaton must be built before scanning")
	}
	s := &Scanner{
		ac:         ac,
		windowSize: DefaultWindowSize,
		progress:   noopProgress{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.overlap = ac.MaxPatternLen() - 1
	if s.overlap < minOverlap {
		s.overlap = minOverlap
	}
	if s.windowSize <= s.overlap {
		return nil, fmt.Errorf("window size %d must exceed overlap %d", s.windowSize, s.overlap)
	}
	return s, nil
}

// Overlap returns the derived window overlap in bytes.
func (s *Scanner) Overlap() int { return s.overlap }

// Scan walks src and invokes fn once per chunk, in order. Each window reads
// windowSize+overlap bytes but owns only the offsets in its leading
// windowSize span; hits starting in the trailing overlap are left to the
// next window, which is what makes the candidate set independent of the
// window size and free of cross-window duplicates. Multiple patterns hitting
// the same offset within one window are all reported.
//
// Cancellation is cooperative: the context is checked before each chunk.
func (s *Scanner) Scan(ctx context.Context, src ByteSource, fn ChunkFunc) error {
	size := src.Size()
	if size == 0 || s.ac.PatternCount() == 0 {
		s.progress.Update(1.0, "scan complete")
		return nil
	}

	buf := make([]byte, s.windowSize+s.overlap)
	index := 0
	for base := int64(0); base < size; base += int64(s.windowSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		want := int64(len(buf))
		if base+want > size {
			want = size - base
		}
		n, err := src.ReadAt(buf[:want], base)
		if err != nil && err != io.EOF {
			return fmt.Errorf("read window at 0x%X: %w", base, err)
		}
		if int64(n) < want {
			return fmt.Errorf("short read at 0x%X: %d of %d bytes", base, n, want)
		}

		window := buf[:want]
		owned := base + int64(s.windowSize)

		var cands []Candidate
		s.ac.SearchFunc(window, base, func(m automaton.Match) {
			if m.Offset < owned {
				cands = append(cands, Candidate{PatternID: m.PatternID, Offset: m.Offset})
			}
		})
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].Offset < cands[j].Offset })

		if len(cands) > 0 {
			s.logger.Debug("chunk scanned", "index", index, "base", base, "candidates", len(cands))
		}

		if err := fn(ctx, &Chunk{Index: index, Base: base, Window: window, Candidates: cands}); err != nil {
			return err
		}

		done := base + int64(s.windowSize)
		if done > size {
			done = size
		}
		s.progress.Update(float64(done)/float64(size), "scanning")
		index++
	}
	s.progress.Update(1.0, "scan complete")
	return nil
}

// ScanAll collects every candidate from a full scan. Convenience for tests
// and small inputs; Scan is the streaming entry point.
func (s *Scanner) ScanAll(ctx context.Context, src ByteSource) ([]Candidate, error) {
	var all []Candidate
	err := s.Scan(ctx, src, func(_ context.Context, chunk *Chunk) error {
		all = append(all, chunk.Candidates...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
