package carvers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// session holds the mutable state of one carve run: the claimed-offset set,
// per-format counters, name reservations, content hashes, and the growing
// manifest entry list. One mutex guards everything; the claim step and the
// record step are each a single critical section so concurrent extractions
// can neither double-claim an offset nor push a counter past its cap.
type session struct {
	mu      sync.Mutex
	claimed map[int64]bool
	counts  map[string]int
	maxPer  int
	names   map[string]bool
	hashes  map[string]map[uint64]bool
	entries []Record

	convOK   int
	convFail int
	dupSkips int
	capSkips int
	ioFails  int
	rejected int
}

func newSession(maxPerFormat int, blacklist []int64) *session {
	s := &session{
		claimed: make(map[int64]bool),
		counts:  make(map[string]int),
		maxPer:  maxPerFormat,
		names:   make(map[string]bool),
		hashes:  make(map[string]map[uint64]bool),
	}
	// Blacklisted offsets were extracted out-of-band (module tables); mark
	// them claimed so they are skipped exactly like duplicates.
	for _, off := range blacklist {
		s.claimed[off] = true
	}
	return s
}

type claimStatus int

const (
	claimOK claimStatus = iota
	claimDuplicate
	claimCapReached
)

// claim atomically checks that off is unclaimed by any format and that the
// format's counter is below the cap, then takes both. The returned release
// undoes the claim after a downstream failure.
func (s *session) claim(formatID string, off int64) (release func(), status claimStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[off] {
		s.dupSkips++
		return nil, claimDuplicate
	}
	if s.counts[formatID] >= s.maxPer {
		s.capSkips++
		return nil, claimCapReached
	}
	s.claimed[off] = true
	s.counts[formatID]++
	release = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.claimed, off)
		s.counts[formatID]--
	}
	return release, claimOK
}

// atCap is an advisory read used to skip validation work for formats whose
// quota is already exhausted; claim remains the authoritative check.
func (s *session) atCap(formatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[formatID] >= s.maxPer
}

// seenContent records the output payload hash for a format and reports
// whether an identical payload was already written. Duplicate content under
// the same format is skipped, matching the original carver's byte-compare
// dedup; distinct offsets with distinct content are never suppressed.
func (s *session) seenContent(formatID string, data []byte) bool {
	h := xxhash.Sum64(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.hashes[formatID]
	if set == nil {
		set = make(map[uint64]bool)
		s.hashes[formatID] = set
	}
	if set[h] {
		return true
	}
	set[h] = true
	return false
}

// reserveName turns a base name into a free relative output path, appending
// a numeric suffix on collision.
func (s *session) reserveName(category, base, ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := category + "/" + base + ext
	for i := 1; s.names[name]; i++ {
		name = fmt.Sprintf("%s/%s_%d%s", category, base, i, ext)
	}
	s.names[name] = true
	return name
}

func (s *session) releaseName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, name)
}

func (s *session) record(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, rec)
}

func (s *session) noteConversion(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.convOK++
	} else {
		s.convFail++
	}
}

func (s *session) noteIoFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ioFails++
}

func (s *session) noteRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
}

// sanitizeName strips filesystem-hostile characters from validator-provided
// display names.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch c {
		case '<', '>', ':', '"', '|', '?', '*', '\\', '/', 0:
			b.WriteByte('_')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
