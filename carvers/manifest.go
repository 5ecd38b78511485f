package carvers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ManifestName is the manifest file written at the session root.
const ManifestName = "carve_manifest.json"

// Record describes one carved artifact. The persisted manifest lists records
// in ascending offset order.
type Record struct {
	Offset         int64  `json:"offset"`
	FormatID       string `json:"format_id"`
	SourceLength   int64  `json:"source_length"`
	OutputLength   int64  `json:"output_length"`
	FileName       string `json:"file_name"`
	WasConverted   bool   `json:"was_converted"`
	ConversionKind string `json:"conversion_kind,omitempty"`
	ConversionFail bool   `json:"conversion_failed,omitempty"`
}

// TypeStats aggregates per-format totals for the manifest summary.
type TypeStats struct {
	Count       int   `json:"count"`
	BytesInDump int64 `json:"bytes_in_dump"`
	BytesOutput int64 `json:"bytes_output"`
}

// Summary is the end-of-session roll-up. Per-candidate skips are counted,
// never enumerated.
type Summary struct {
	TotalFiles         int                   `json:"total_files"`
	TotalBytesInDump   int64                 `json:"total_bytes_in_dump"`
	TotalBytesOutput   int64                 `json:"total_bytes_output"`
	ByType             map[string]*TypeStats `json:"by_type"`
	Converted          int                   `json:"converted"`
	ConversionFailures int                   `json:"conversion_failures"`
	DuplicateOffsets   int                   `json:"duplicate_offsets_skipped"`
	CapSkips           int                   `json:"cap_skips"`
	Rejected           int                   `json:"rejected_candidates"`
	IoFailures         int                   `json:"io_failures"`
}

// Manifest is the session-level record of everything carved, persisted once
// at session end as indented JSON.
type Manifest struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	SourceLen int64     `json:"source_size"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Record  `json:"entries"`
	Summary   Summary   `json:"summary"`
}

func buildSummary(entries []Record) Summary {
	s := Summary{ByType: make(map[string]*TypeStats)}
	for _, e := range entries {
		ts := s.ByType[e.FormatID]
		if ts == nil {
			ts = &TypeStats{}
			s.ByType[e.FormatID] = ts
		}
		ts.Count++
		ts.BytesInDump += e.SourceLength
		ts.BytesOutput += e.OutputLength
		s.TotalFiles++
		s.TotalBytesInDump += e.SourceLength
		s.TotalBytesOutput += e.OutputLength
		if e.WasConverted {
			s.Converted++
		}
	}
	return s
}

func (m *Manifest) write(root string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(root, ManifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// SortedByOffset returns a copy of the entries in ascending offset order.
func (m *Manifest) SortedByOffset() []Record {
	out := make([]Record, len(m.Entries))
	copy(out, m.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
