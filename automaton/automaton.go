// Package automaton implements a multi-pattern byte matcher (Aho-Corasick)
// used to locate file signatures in a single pass over dump data.
//
// Nodes live in a flat arena slice; children are sparse byte->index maps and
// failure links are plain indices into the same arena, so the trie carries no
// pointer cycles. After Build the automaton is read-only and safe for
// concurrent Search calls without synchronization.
package automaton

import (
	"errors"
	"fmt"
)

// Match is a raw, unvalidated signature hit. Offset is absolute in the
// scanned input, not relative to the searched window.
type Match struct {
	PatternID string
	Offset    int64
}

type output struct {
	id     string
	length int
}

type node struct {
	children map[byte]int32
	fail     int32
	outputs  []output
}

// Automaton matches every registered pattern in one pass. Patterns are added
// with AddPattern, then Build is called exactly once before any Search.
type Automaton struct {
	nodes  []node
	built  bool
	maxLen int
	count  int
}

var (
	errAlreadyBuilt = errors.New("automaton already built")
	errNotBuilt     = errors.New("automaton not built")
	errEmptyPattern = errors.New("empty pattern")
)

func New() *Automaton {
	a := &Automaton{}
	a.nodes = append(a.nodes, node{children: make(map[byte]int32), fail: 0})
	return a
}

// AddPattern inserts magic into the trie, tagging the terminal node with id.
// It fails once Build has been called.
func (a *Automaton) AddPattern(id string, magic []byte) error {
	if a.built {
		return errAlreadyBuilt
	}
	if len(magic) == 0 {
		return fmt.Errorf("pattern %q: %w", id, errEmptyPattern)
	}
	cur := int32(0)
	for _, b := range magic {
		next, ok := a.nodes[cur].children[b]
		if !ok {
			a.nodes = append(a.nodes, node{children: make(map[byte]int32)})
			next = int32(len(a.nodes) - 1)
			a.nodes[cur].children[b] = next
		}
		cur = next
	}
	a.nodes[cur].outputs = append(a.nodes[cur].outputs, output{id: id, length: len(magic)})
	if len(magic) > a.maxLen {
		a.maxLen = len(magic)
	}
	a.count++
	return nil
}

// Build computes failure links breadth-first and merges each node's output
// set with its failure node's outputs, so patterns that are suffixes of other
// patterns are still reported. Must be called exactly once.
func (a *Automaton) Build() error {
	if a.built {
		return errAlreadyBuilt
	}
	queue := make([]int32, 0, len(a.nodes))
	for _, idx := range a.nodes[0].children {
		a.nodes[idx].fail = 0
		queue = append(queue, idx)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for b, child := range a.nodes[cur].children {
			queue = append(queue, child)
			f := a.nodes[cur].fail
			for {
				if next, ok := a.nodes[f].children[b]; ok && next != child {
					a.nodes[child].fail = next
					break
				}
				if f == 0 {
					a.nodes[child].fail = 0
					break
				}
				f = a.nodes[f].fail
			}
			fn := a.nodes[child].fail
			if len(a.nodes[fn].outputs) > 0 {
				a.nodes[child].outputs = append(a.nodes[child].outputs, a.nodes[fn].outputs...)
			}
		}
	}
	a.built = true
	return nil
}

// Search reports every pattern occurrence in window. base is the absolute
// offset of window[0]; reported offsets are absolute. Overlapping and suffix
// matches are all reported.
func (a *Automaton) Search(window []byte, base int64) []Match {
	var out []Match
	a.SearchFunc(window, base, func(m Match) {
		out = append(out, m)
	})
	return out
}

// SearchFunc is Search without the result slice; fn is invoked for each hit
// in end-position order.
func (a *Automaton) SearchFunc(window []byte, base int64, fn func(Match)) {
	if !a.built {
		return
	}
	cur := int32(0)
	for i, b := range window {
		for {
			if next, ok := a.nodes[cur].children[b]; ok {
				cur = next
				break
			}
			if cur == 0 {
				break
			}
			cur = a.nodes[cur].fail
		}
		for _, o := range a.nodes[cur].outputs {
			fn(Match{PatternID: o.id, Offset: base + int64(i) - int64(o.length) + 1})
		}
	}
}

// MaxPatternLen returns the longest registered pattern length. The scanner
// derives its window overlap from it.
func (a *Automaton) MaxPatternLen() int { return a.maxLen }

// PatternCount returns the number of registered patterns.
func (a *Automaton) PatternCount() int { return a.count }

// Built reports whether Build has completed.
func (a *Automaton) Built() bool { return a.built }
