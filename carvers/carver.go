// Package carvers turns validated signature hits into files on disk. The
// Carver owns the pattern automaton and the format registry; each Carve call
// runs one session: scan chunk by chunk, validate candidates in offset
// order, extract them concurrently under offset dedup and per-format quotas,
// then persist a single manifest at the session root.
package carvers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackmaun/x360carve/automaton"
	"github.com/jackmaun/x360carve/formats"
	"github.com/jackmaun/x360carve/scanners"
)

// DefaultMaxPerFormat bounds runaway extraction of noisy signatures.
const DefaultMaxPerFormat = 10000

// DefaultWorkers is the per-chunk extraction concurrency.
const DefaultWorkers = 4

// contextCap bounds validator context reads for sources that cannot be
// sliced without copying. Slicing sources always get the full MaxSize
// context.
const contextCap = 16 * 1024 * 1024

// Options configures a Carver. Zero values select the defaults.
type Options struct {
	OutputRoot   string
	Formats      []formats.Format // nil means the full registry
	MaxPerFormat int
	WindowSize   int
	Workers      int
	NoConvert    bool
	Blacklist    []int64 // absolute offsets already extracted out-of-band
	Logger       *log.Logger
	Progress     scanners.Progress
}

// Carver is the extraction orchestrator. The automaton is built once in New
// and shared read-only across sessions; all per-run state lives in the
// session.
type Carver struct {
	opts   Options
	ac     *automaton.Automaton
	byID   map[string]formats.Format
	logger *log.Logger
}

// New registers every format's magic in a fresh automaton and builds it.
func New(opts Options) (*Carver, error) {
	if opts.OutputRoot == "" {
		return nil, errors.New("output root is required")
	}
	if opts.Formats == nil {
		opts.Formats = formats.All()
	}
	if opts.MaxPerFormat <= 0 {
		opts.MaxPerFormat = DefaultMaxPerFormat
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	ac := automaton.New()
	byID := make(map[string]formats.Format, len(opts.Formats))
	for _, f := range opts.Formats {
		if _, dup := byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate format id %q", f.ID)
		}
		if f.Validate == nil {
			return nil, fmt.Errorf("format %q has no validator", f.ID)
		}
		if err := ac.AddPattern(f.ID, f.Magic); err != nil {
			return nil, fmt.Errorf("register %q: %w", f.ID, err)
		}
		byID[f.ID] = f
	}
	if err := ac.Build(); err != nil {
		return nil, err
	}
	return &Carver{opts: opts, ac: ac, byID: byID, logger: opts.Logger}, nil
}

// Carve runs one extraction session over src. The manifest is persisted at
// the session root even when ctx is cancelled mid-run; the returned error is
// then ctx's error. Per-candidate failures never abort the session.
func (c *Carver) Carve(ctx context.Context, src scanners.ByteSource, sourceName string) (*Manifest, error) {
	if err := os.MkdirAll(c.opts.OutputRoot, 0755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	sess := newSession(c.opts.MaxPerFormat, c.opts.Blacklist)

	scanOpts := []scanners.Option{scanners.WithLogger(c.logger)}
	if c.opts.WindowSize > 0 {
		scanOpts = append(scanOpts, scanners.WithWindowSize(c.opts.WindowSize))
	}
	if c.opts.Progress != nil {
		scanOpts = append(scanOpts, scanners.WithProgress(c.opts.Progress))
	}
	scanner, err := scanners.New(c.ac, scanOpts...)
	if err != nil {
		return nil, err
	}

	c.logger.Info("carve session started", "source", sourceName, "size", src.Size())

	scanErr := scanner.Scan(ctx, src, func(ctx context.Context, chunk *scanners.Chunk) error {
		c.processChunk(ctx, sess, src, chunk)
		return nil
	})
	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		return nil, scanErr
	}

	// Workers record in completion order; the manifest is offset-ordered.
	sort.Slice(sess.entries, func(i, j int) bool { return sess.entries[i].Offset < sess.entries[j].Offset })

	manifest := &Manifest{
		SessionID: uuid.NewString(),
		Source:    sourceName,
		SourceLen: src.Size(),
		CreatedAt: time.Now().UTC(),
		Entries:   sess.entries,
	}
	manifest.Summary = buildSummary(manifest.Entries)
	manifest.Summary.ConversionFailures = sess.convFail
	manifest.Summary.DuplicateOffsets = sess.dupSkips
	manifest.Summary.CapSkips = sess.capSkips
	manifest.Summary.Rejected = sess.rejected
	manifest.Summary.IoFailures = sess.ioFails

	if err := manifest.write(c.opts.OutputRoot); err != nil {
		return nil, err
	}
	c.logger.Info("carve session finished",
		"files", manifest.Summary.TotalFiles,
		"converted", manifest.Summary.Converted,
		"conversion_failures", manifest.Summary.ConversionFailures,
		"cancelled", scanErr != nil)
	return manifest, scanErr
}

// processChunk validates the chunk's candidates synchronously in ascending
// offset order, then extracts the survivors on a bounded worker group and
// joins it before the scan advances. Claim order across formats at the same
// offset is whatever order the workers reach the claim; only "exactly one
// winner" is guaranteed.
func (c *Carver) processChunk(ctx context.Context, sess *session, src scanners.ByteSource, chunk *scanners.Chunk) {
	var validated []*formats.Region
	for _, cand := range chunk.Candidates {
		f, ok := c.byID[cand.PatternID]
		if !ok {
			continue
		}
		if sess.atCap(f.ID) {
			continue
		}
		region := f.Validate(c.assembleWindow(src, chunk, cand.Offset, f))
		if region == nil {
			sess.noteRejected()
			continue
		}
		region.FormatID = f.ID
		region.Offset = cand.Offset
		validated = append(validated, region)
	}
	if len(validated) == 0 {
		return
	}

	jobs := make(chan *formats.Region)
	var wg sync.WaitGroup
	workers := c.opts.Workers
	if workers > len(validated) {
		workers = len(validated)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for region := range jobs {
				// Cooperative cancellation: drain without starting new
				// extractions; in-flight writes have already finished by
				// the time the context error is visible here.
				if ctx.Err() != nil {
					continue
				}
				c.extract(sess, src, chunk, region)
			}
		}()
	}
	for _, region := range validated {
		jobs <- region
	}
	close(jobs)
	wg.Wait()
}

// assembleWindow builds the validator context: up to LookBehind bytes before
// the candidate plus up to MaxSize bytes after it, clamped to the input
// bounds. Buffered window bytes are sliced; slicing sources are sliced
// zero-copy; anything else gets a bounded positioned read.
func (c *Carver) assembleWindow(src scanners.ByteSource, chunk *scanners.Chunk, off int64, f formats.Format) formats.Window {
	remaining := src.Size() - off
	want := f.MaxSize
	if want > remaining {
		want = remaining
	}

	w := formats.Window{Offset: off, Remaining: remaining}
	w.Data = c.readRange(src, chunk, off, want, true)

	behind := int64(formats.LookBehind)
	if behind > off {
		behind = off
	}
	if behind > 0 {
		w.Before = c.readRange(src, chunk, off-behind, behind, false)
	}
	return w
}

// readRange fetches [off, off+n) preferring the buffered chunk window, then
// zero-copy slicing, then a positioned read. capped limits copy size for
// non-slicing sources.
func (c *Carver) readRange(src scanners.ByteSource, chunk *scanners.Chunk, off, n int64, capped bool) []byte {
	if n <= 0 {
		return nil
	}
	if chunk != nil && chunk.Contains(off, n) {
		return chunk.Slice(off, n)
	}
	if sl, ok := src.(scanners.Slicer); ok {
		return sl.Slice(off, n)
	}
	if capped && n > contextCap {
		n = contextCap
	}
	buf := make([]byte, n)
	got, err := src.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		c.logger.Warn("context read failed", "offset", off, "err", err)
		return nil
	}
	return buf[:got]
}

// extract runs the claim -> name -> materialize -> convert -> record
// pipeline for one validated region. Skips are silent; an I/O failure rolls
// back the claim and the counter so the candidate is never half-counted.
func (c *Carver) extract(sess *session, src scanners.ByteSource, chunk *scanners.Chunk, region *formats.Region) {
	f := c.byID[region.FormatID]

	release, status := sess.claim(f.ID, region.Offset)
	switch status {
	case claimDuplicate:
		c.logger.Debug("offset already claimed", "format", f.ID, "offset", region.Offset)
		return
	case claimCapReached:
		c.logger.Debug("format cap reached", "format", f.ID)
		return
	}

	data := c.readRange(src, chunk, region.Offset, region.Length, false)
	if int64(len(data)) != region.Length {
		c.logger.Warn("source read failed", "format", f.ID, "offset", region.Offset)
		sess.noteIoFailure()
		release()
		return
	}

	out := data
	ext := f.Extension
	kind := ""
	wasConverted := false
	conversionFailed := false
	if !c.opts.NoConvert && f.Convert != nil {
		conv := f.Convert(data, region)
		switch conv.Status {
		case formats.Converted:
			out = conv.Bytes
			kind = conv.Kind
			if conv.Extension != "" {
				ext = conv.Extension
			}
			wasConverted = true
			sess.noteConversion(true)
		case formats.Failed:
			// Keep the original bytes; the failure is flagged, not fatal.
			conversionFailed = true
			sess.noteConversion(false)
			c.logger.Warn("conversion failed", "format", f.ID, "offset", region.Offset, "err", conv.Err)
		}
	}

	if sess.seenContent(f.ID, out) {
		c.logger.Debug("duplicate content skipped", "format", f.ID, "offset", region.Offset)
		release()
		return
	}

	base := fmt.Sprintf("%s_%08X", f.ID, region.Offset)
	if region.DisplayName != "" {
		base = sanitizeName(region.DisplayName)
	}
	name := sess.reserveName(f.Category, base, ext)

	path := filepath.Join(c.opts.OutputRoot, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.logger.Warn("create category dir failed", "path", path, "err", err)
		sess.noteIoFailure()
		sess.releaseName(name)
		release()
		return
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		c.logger.Warn("write failed", "path", path, "err", err)
		sess.noteIoFailure()
		sess.releaseName(name)
		release()
		return
	}

	sess.record(Record{
		Offset:         region.Offset,
		FormatID:       f.ID,
		SourceLength:   region.Length,
		OutputLength:   int64(len(out)),
		FileName:       name,
		WasConverted:   wasConverted,
		ConversionKind: kind,
		ConversionFail: conversionFailed,
	})
	c.logger.Debug("carved", "format", f.ID, "offset", region.Offset, "file", name, "bytes", len(out))
}
