// Package pagestate implements the ordered offset -> (action id,
// indentation) map that lets a revision locate the actions already on
// a page (spec §3, §4.3). It is shaped after the teacher's
// adapter/driver connection-config structs in its use of a small
// exported Config-like Entry value, but the lookup engine itself is a
// google/btree-backed ordered map, giving get_action_start/get_action_end
// the O(log n) floor/ceiling semantics spec §4.3 requires.
package pagestate

import (
	"fmt"

	"github.com/google/btree"
)

// SentinelActionID and SentinelIndent mark the end-of-page entry that
// must live at the maximum offset of every initialized page (spec §3
// invariant ii).
const (
	SentinelActionID = "" // the sentinel action id is always empty
	SentinelIndent   = -1
)

// Entry is the value half of a PageState mapping: the action owning an
// offset, and that action's indentation depth.
type Entry struct {
	ActionID string
	Indent   int
	Sentinel bool
}

func sentinelEntry() Entry { return Entry{ActionID: SentinelActionID, Indent: SentinelIndent, Sentinel: true} }

type item struct {
	offset int
	value  Entry
}

func less(a, b item) bool { return a.offset < b.offset }

// PageState is the ordered offset -> Entry map for one wiki page.
type PageState struct {
	PageID    string
	PageTitle string

	tree *btree.BTreeG[item]
}

// New creates an initialized, empty PageState: offset 0 maps to the
// sentinel, which is also the (only, so far) maximum key — invariants
// (i) and (ii) of spec §3 hold from construction.
func New(pageID, pageTitle string) *PageState {
	ps := &PageState{
		PageID:    pageID,
		PageTitle: pageTitle,
		tree:      btree.NewG[item](32, less),
	}
	ps.tree.ReplaceOrInsert(item{offset: 0, value: sentinelEntry()})
	return ps
}

// Len returns the number of offset keys currently tracked.
func (ps *PageState) Len() int { return ps.tree.Len() }

// Keys returns all offsets in ascending order.
func (ps *PageState) Keys() []int {
	keys := make([]int, 0, ps.tree.Len())
	ps.tree.Ascend(func(it item) bool {
		keys = append(keys, it.offset)
		return true
	})
	return keys
}

// Get returns the entry stored exactly at offset, if any.
func (ps *PageState) Get(offset int) (Entry, bool) {
	it, ok := ps.tree.Get(item{offset: offset})
	return it.value, ok
}

// Insert sets offset -> entry, creating or overwriting the key.
func (ps *PageState) Insert(offset int, entry Entry) {
	ps.tree.ReplaceOrInsert(item{offset: offset, value: entry})
}

// Remove deletes the key at offset, if present.
func (ps *PageState) Remove(offset int) {
	ps.tree.Delete(item{offset: offset})
}

// Move re-keys the entry at oldOffset to newOffset (spec §3 "moved"
// lifecycle transition), preserving its Entry value.
func (ps *PageState) Move(oldOffset, newOffset int) error {
	entry, ok := ps.Get(oldOffset)
	if !ok {
		return fmt.Errorf("pagestate: no entry at offset %d to move", oldOffset)
	}
	ps.Remove(oldOffset)
	ps.Insert(newOffset, entry)
	return nil
}

// GetActionStart returns the greatest key <= offset (spec §4.3).
func (ps *PageState) GetActionStart(offset int) (int, Entry, bool) {
	var found int
	var entry Entry
	ok := false
	ps.tree.DescendLessOrEqual(item{offset: offset}, func(it item) bool {
		found = it.offset
		entry = it.value
		ok = true
		return false
	})
	return found, entry, ok
}

// GetActionEnd returns the least key > start (spec §4.3).
func (ps *PageState) GetActionEnd(start int) (int, Entry, bool) {
	var found int
	var entry Entry
	ok := false
	ps.tree.AscendGreaterOrEqual(item{offset: start + 1}, func(it item) bool {
		found = it.offset
		entry = it.value
		ok = true
		return false
	})
	return found, entry, ok
}

// FindPos returns the index of GetActionStart(offset) in the sorted key
// list (spec §4.3), or -1 if the page has no keys at or below offset.
// google/btree's BTreeG exposes no order-statistics (rank) query, so
// this walks keys in ascending order and stops as soon as it passes
// offset: O(rank) rather than the O(log n) a rank-augmented tree would
// give, but well short of a full O(n) scan for any offset short of the
// page's end.
func (ps *PageState) FindPos(offset int) int {
	idx := -1
	i := 0
	ps.tree.Ascend(func(it item) bool {
		if it.offset > offset {
			return false
		}
		idx = i
		i++
		return true
	})
	return idx
}

// MaxKey returns the greatest offset in the page (the sentinel's key).
func (ps *PageState) MaxKey() int {
	it, _ := ps.tree.Max()
	return it.offset
}

// Clone returns a deep copy, used so a revision's classifier can build a
// new page state without mutating the caller's previous one until the
// revision is fully validated (spec §7: "the pre-revision state is
// preserved" on InvariantViolation/DiffInconsistency abort).
func (ps *PageState) Clone() *PageState {
	clone := New(ps.PageID, ps.PageTitle)
	clone.tree.Clear(false)
	ps.tree.Ascend(func(it item) bool {
		clone.tree.ReplaceOrInsert(it)
		return true
	})
	return clone
}

// CheckInvariants verifies spec §3 invariants (i)-(iv)(i-iii; iv is the
// classifier's responsibility since it requires action coverage, not
// just key shape). Returns the name of the first violated invariant, or
// "" if all hold.
func (ps *PageState) CheckInvariants() string {
	if _, ok := ps.Get(0); !ok {
		return "offset 0 must be present"
	}
	maxKey := ps.MaxKey()
	entry, _ := ps.Get(maxKey)
	if !entry.Sentinel {
		return "maximum key must hold the end-of-page sentinel"
	}
	violated := ""
	ps.tree.Ascend(func(it item) bool {
		if it.offset != maxKey && it.value.Sentinel {
			violated = fmt.Sprintf("non-terminal offset %d must not hold the sentinel", it.offset)
			return false
		}
		return true
	})
	return violated
}
