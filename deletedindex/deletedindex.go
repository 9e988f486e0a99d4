// Package deletedindex is the trie-indexed recognizer of previously
// removed comments used to classify re-insertions as restorations
// (spec §4, §4.4 Phase E). It wraps github.com/BobuSumisu/aho-corasick,
// a multi-pattern Aho-Corasick matcher, with a longest-match,
// non-overlapping selection pass the underlying library does not do on
// its own.
package deletedindex

import (
	"sort"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// Value is what a removed comment's literal text maps to: the action it
// originated from, that action's indentation, and the revision it was
// removed at (used by retention pruning, spec §5).
type Value struct {
	ActionID          string
	Indent            int
	RemovedAtRevision int
}

// Match is one longest, non-overlapping hit returned by FindAllLongest,
// in text-byte offsets.
type Match struct {
	Start, End int
	Value      Value
}

// Index is a DeletedIndex (spec §3): a trie over removed-comment text,
// rebuilt lazily since the underlying library's Trie is immutable once
// built.
type Index struct {
	patterns map[string]Value
	trie     *ahocorasick.Trie
	dirty    bool
}

// New returns an empty Index.
func New() *Index {
	return &Index{patterns: make(map[string]Value)}
}

// Add registers content's literal text with the action it was removed
// from, per spec §4.7 (only called for removals exceeding the
// configured token threshold).
func (idx *Index) Add(content string, value Value) {
	if content == "" {
		return
	}
	idx.patterns[content] = value
	idx.dirty = true
}

// Delete drops content from the index (used by retention pruning, spec
// §5).
func (idx *Index) Delete(content string) {
	if _, ok := idx.patterns[content]; ok {
		delete(idx.patterns, content)
		idx.dirty = true
	}
}

// PruneBefore deletes every entry removed strictly before cutoffRevision
// (spec §5: a DeletedIndex entry survives a bounded number of revisions
// without being touched again). Callers pass currentRevision -
// retentionRevisions as cutoffRevision; retentionRevisions <= 0 means
// unbounded and callers should not invoke PruneBefore at all.
func (idx *Index) PruneBefore(cutoffRevision int) {
	for content, v := range idx.patterns {
		if v.RemovedAtRevision < cutoffRevision {
			idx.Delete(content)
		}
	}
}

// Len returns the number of distinct patterns currently indexed.
func (idx *Index) Len() int { return len(idx.patterns) }

// Entries returns a snapshot of every pattern currently indexed, for
// checkpoint serialization (spec §6's deleted_comments list).
func (idx *Index) Entries() map[string]Value {
	out := make(map[string]Value, len(idx.patterns))
	for k, v := range idx.patterns {
		out[k] = v
	}
	return out
}

// LoadEntries bulk-registers patterns restored from a checkpoint,
// replacing anything already indexed.
func (idx *Index) LoadEntries(entries map[string]Value) {
	idx.patterns = make(map[string]Value, len(entries))
	for k, v := range entries {
		idx.patterns[k] = v
	}
	idx.dirty = true
}

func (idx *Index) rebuild() {
	if !idx.dirty && idx.trie != nil {
		return
	}
	b := ahocorasick.NewTrieBuilder()
	strs := make([]string, 0, len(idx.patterns))
	for p := range idx.patterns {
		strs = append(strs, p)
	}
	b.AddStrings(strs)
	idx.trie = b.Build()
	idx.dirty = false
}

// FindAllLongest scans text and returns the longest, non-overlapping
// matches against the index, processed left to right (spec §4.4 Phase
// E, §3 DeletedIndex contract).
func (idx *Index) FindAllLongest(text string) []Match {
	if len(idx.patterns) == 0 || text == "" {
		return nil
	}
	idx.rebuild()

	raw := idx.trie.MatchString(text)
	if len(raw) == 0 {
		return nil
	}

	type cand struct {
		start, end int
		word       string
	}
	cands := make([]cand, 0, len(raw))
	for _, m := range raw {
		start := m.Pos()
		word := string(m.Word())
		cands = append(cands, cand{start: start, end: start + len(word), word: word})
	}

	// Prefer longer matches, then earlier starts, so that among
	// overlapping candidates the longest wins and ties break to the
	// earliest position (spec §9 open question (a) applied to matches
	// as well as rearrangement candidates).
	sort.Slice(cands, func(i, j int) bool {
		li, lj := cands[i].end-cands[i].start, cands[j].end-cands[j].start
		if li != lj {
			return li > lj
		}
		return cands[i].start < cands[j].start
	})

	var chosen []cand
	occupied := make([]bool, len(text)+1)
	markRange := func(s, e int) bool {
		for i := s; i < e; i++ {
			if occupied[i] {
				return false
			}
		}
		for i := s; i < e; i++ {
			occupied[i] = true
		}
		return true
	}
	for _, c := range cands {
		if markRange(c.start, c.end) {
			chosen = append(chosen, c)
		}
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].start < chosen[j].start })

	out := make([]Match, 0, len(chosen))
	for _, c := range chosen {
		out = append(out, Match{Start: c.start, End: c.end, Value: idx.patterns[c.word]})
	}
	return out
}
