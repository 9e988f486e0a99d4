// Package classify implements the Action Classifier (spec §4.4), the
// per-revision logic that turns a token diff and the previous page
// state into emitted actions and the next page state. It is shaped
// after the teacher's schema.Generator: both reconcile a "current" and
// a "desired" state and emit a sequence of operations bridging them,
// here action records instead of DDL statements.
package classify

import (
	"sort"
	"strings"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/config"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/diff"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/reconstructerr"
	"github.com/wikidetox/reconstructor/token"
)

// Revision carries the fields of spec §6's revision input record that
// the classifier needs directly; ingestion-level fields (ordering,
// HTML cleaning) are the caller's responsibility.
type Revision struct {
	RevID     int
	Timestamp string
	PageID    string
	PageTitle string
	UserID    string
	UserText  string
}

// Classifier runs Phases A-H of spec §4.4 against one page's history.
// It holds no state of its own between calls: all per-page state
// (previous page state, deleted-comment index) is passed in and the
// next page state is returned, the way schema.Generator takes current
// and desired schemas as arguments rather than fields.
type Classifier struct {
	cfg config.Config
}

// New returns a Classifier configured with cfg.
func New(cfg config.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// removal is a candidate produced by Phase A's delete-walk, pending
// Phase B's rearrangement scan.
type removal struct {
	oldKey int
	entry  pagestate.Entry
	tokens []token.Token
}

func (r removal) text() string { return token.Join(r.tokens) }

// Process runs the classifier for one revision and returns the next
// page state and the actions emitted, in creation order (spec §4.4
// Phase H). prev must not be mutated by the caller afterward; Process
// never mutates it either, building a fresh PageState instead (spec §9
// "deep copies of op dicts" note — the fix here is that we never alias
// the old tree).
func (c *Classifier) Process(prev *pagestate.PageState, oldTokens, newTokens []token.Token, idx *deletedindex.Index, rev Revision) (*pagestate.PageState, []action.Action, error) {
	if rev.PageID == "" {
		return nil, nil, reconstructerr.NewMalformedRevision(rev.PageID, rev.RevID, "page_id")
	}

	ops := diff.Diff(oldTokens, newTokens)
	if err := validateOps(ops, len(oldTokens), len(newTokens), rev); err != nil {
		return nil, nil, err
	}

	ids := action.NewIDCounter(rev.RevID)
	newPage := pagestate.New(prev.PageID, prev.PageTitle)
	newPage.Remove(0) // the fresh sentinel-at-0 placeholder; offset 0 is re-established below

	modifiedStarts := map[int]bool{}
	removedStarts := map[int]bool{}
	var removals []removal
	var segments []segment // surviving addition/heading candidates, in encounter order
	segSourceA1 := map[int]int{}
	var actions []action.Action

	// Phase A
	for _, op := range ops {
		switch op.Name {
		case diff.Equal:
			continue
		case diff.Insert:
			_, atBoundary := prev.Get(op.A1)
			boundaryOK := true
			if c.cfg.BreakBoundaryRequired {
				boundaryOK = insertIsBreakBounded(op, newTokens)
			}
			if atBoundary && boundaryOK {
				for _, seg := range splitHeadings(newTokens[op.B1:op.B2], op.A1, op.B1) {
					segIdx := len(segments)
					segments = append(segments, seg)
					segSourceA1[segIdx] = op.A1
				}
			} else {
				start, _, ok := prev.GetActionStart(op.A1)
				if ok {
					modifiedStarts[start] = true
				}
			}
		case diff.Delete:
			covered := coveredKeys(prev, op.A1, op.A2)
			for _, k := range covered {
				entry, _ := prev.Get(k)
				nextKey, _, hasNext := prev.GetActionEnd(k)
				if !hasNext {
					nextKey = prev.MaxKey()
				}
				partialStart := max(op.A1, k)
				partialEnd := min(op.A2, nextKey)
				coversBoundary := op.A1 <= k
				// A removal needs the delete to span the whole action, from
				// its start key to the next key.
				if coversBoundary && partialEnd == nextKey && !modifiedStarts[k] {
					removals = append(removals, removal{oldKey: k, entry: entry, tokens: oldTokens[partialStart:partialEnd]})
					removedStarts[k] = true
				} else {
					modifiedStarts[k] = true
				}
			}
		}
	}

	// Post-filter: demote additions whose source insert collided with a modification.
	filtered := segments[:0]
	for i, seg := range segments {
		if seg.kind == segComment || seg.kind == segHeading {
			if src, ok := segSourceA1[i]; ok && modifiedStarts[src] {
				continue
			}
		}
		filtered = append(filtered, seg)
	}
	segments = filtered

	// Phase B — rearrangements.
	rearrangement := map[int]int{}
	type pendingReplyTo struct {
		actionIdx int
		newOffset int
	}
	var pendingRearrangeReplyTo []pendingReplyTo
	var survivingRemovals []removal
	for _, rem := range removals {
		if len(rem.tokens) <= c.cfg.RearrangementMinTokens {
			survivingRemovals = append(survivingRemovals, rem)
			continue
		}
		matched := false
		removedText := rem.text()
		for i := range segments {
			if segments[i].kind != segComment {
				continue
			}
			joined := segments[i].text()
			pos := strings.Index(joined, removedText)
			if pos < 0 {
				continue
			}
			ti, tj, ok := findTokenSubrange(segments[i].tokens, pos, pos+len(removedText))
			if !ok {
				continue
			}
			newOffset := segments[i].b1 + ti
			rearrangement[rem.oldKey] = newOffset

			id := ids.Next()
			actions = append(actions, action.Action{
				ID:          id,
				Type:        action.CommentRearrangement,
				ParentID:    rem.entry.ActionID,
				Indentation: rem.entry.Indent,
				Content:     segments[i].tokens[ti:tj],
				UserID:      rev.UserID,
				UserText:    rev.UserText,
				Timestamp:   rev.Timestamp,
				RevID:       rev.RevID,
				PageID:      rev.PageID,
				PageTitle:   rev.PageTitle,
			})
			// ReplyToID is resolved once Phase C has populated newPage with
			// the new context (spec §4.6: rearrangement follows the same
			// conversation rule as ADDING, using replyTo_id in the new
			// context, not the old one).
			pendingRearrangeReplyTo = append(pendingRearrangeReplyTo, pendingReplyTo{actionIdx: len(actions) - 1, newOffset: newOffset})

			replaceWithSplit(&segments, i, ti, tj)
			matched = true
			break
		}
		if !matched {
			survivingRemovals = append(survivingRemovals, rem)
		}
	}
	// Removals that matched no rearrangement candidate are real removals
	// (spec §4.4 delete handling / §4.7 removal bookkeeping): emit
	// COMMENT_REMOVAL and, past the retention threshold, register the
	// content with the DeletedIndex so a later revision can recognize a
	// restoration.
	for _, rem := range survivingRemovals {
		id := ids.Next()
		actions = append(actions, action.Action{
			ID:          id,
			Type:        action.CommentRemoval,
			ParentID:    rem.entry.ActionID,
			Indentation: rem.entry.Indent,
			Content:     rem.tokens,
			UserID:      rev.UserID,
			UserText:    rev.UserText,
			Timestamp:   rev.Timestamp,
			RevID:       rev.RevID,
			PageID:      rev.PageID,
			PageTitle:   rev.PageTitle,
		})
		if len(rem.tokens) > c.cfg.RestorationMinTokens {
			idx.Add(rem.text(), deletedindex.Value{ActionID: rem.entry.ActionID, Indent: rem.entry.Indent, RemovedAtRevision: rev.RevID})
		}
	}

	// Phase C — carry forward.
	for _, k := range prev.Keys() {
		if modifiedStarts[k] || removedStarts[k] {
			continue
		}
		entry, _ := prev.Get(k)
		newOffset, ok := locateNewTokenPos(k, ops, LeftBound)
		if !ok {
			return nil, nil, reconstructerr.NewDiffInconsistency(rev.PageID, rev.RevID, "carry-forward offset unmapped by diff")
		}
		newPage.Insert(newOffset, entry)
	}
	for oldKey, newOffset := range rearrangement {
		entry, _ := prev.Get(oldKey)
		newPage.Insert(newOffset, entry)
	}
	for _, p := range pendingRearrangeReplyTo {
		actions[p.actionIdx].ReplyToID = replyToFor(newPage, p.newOffset)
	}

	// Phase D — modifications.
	var modKeys []int
	for k := range modifiedStarts {
		modKeys = append(modKeys, k)
	}
	sort.Ints(modKeys)
	for _, k := range modKeys {
		oldEntry, _ := prev.Get(k)
		oldEnd, _, hasEnd := prev.GetActionEnd(k)
		if !hasEnd {
			oldEnd = prev.MaxKey()
		}
		newStart, ok1 := locateNewTokenPos(k, ops, LeftBound)
		newEnd, ok2 := locateNewTokenPos(oldEnd, ops, RightBound)
		if !ok1 || !ok2 || newEnd < newStart || newEnd > len(newTokens) {
			return nil, nil, reconstructerr.NewDiffInconsistency(rev.PageID, rev.RevID, "modification bounds unmapped by diff")
		}
		id := ids.Next()
		actions = append(actions, action.Action{
			ID:          id,
			Type:        action.CommentModification,
			ParentID:    oldEntry.ActionID,
			Indentation: oldEntry.Indent,
			Content:     newTokens[newStart:newEnd],
			UserID:      rev.UserID,
			UserText:    rev.UserText,
			Timestamp:   rev.Timestamp,
			RevID:       rev.RevID,
			PageID:      rev.PageID,
			PageTitle:   rev.PageTitle,
		})
		newPage.Insert(newStart, pagestate.Entry{ActionID: id, Indent: oldEntry.Indent})
	}

	// Phase E — restorations.
	var finalSegments []segment
	for _, seg := range segments {
		if seg.kind != segComment || idx.Len() == 0 {
			finalSegments = append(finalSegments, seg)
			continue
		}
		text := seg.text()
		matches := idx.FindAllLongest(text)
		if len(matches) == 0 {
			finalSegments = append(finalSegments, seg)
			continue
		}
		cursor := 0
		for _, m := range matches {
			ti, tj, ok := findTokenSubrange(seg.tokens, m.Start, m.End)
			if !ok {
				continue
			}
			if ti > cursor {
				finalSegments = append(finalSegments, subSegment(seg, cursor, ti))
			}
			id := ids.Next()
			actions = append(actions, action.Action{
				ID:          id,
				Type:        action.CommentRestoration,
				ParentID:    m.Value.ActionID,
				Indentation: m.Value.Indent,
				Content:     seg.tokens[ti:tj],
				UserID:      rev.UserID,
				UserText:    rev.UserText,
				Timestamp:   rev.Timestamp,
				RevID:       rev.RevID,
				PageID:      rev.PageID,
				PageTitle:   rev.PageTitle,
			})
			newPage.Insert(seg.b1+ti, pagestate.Entry{ActionID: m.Value.ActionID, Indent: m.Value.Indent})
			cursor = tj
		}
		if cursor < len(seg.tokens) {
			finalSegments = append(finalSegments, subSegment(seg, cursor, len(seg.tokens)))
		}
	}
	segments = finalSegments

	// Phase F — additions (and section creations), in text order.
	sort.Slice(segments, func(i, j int) bool { return segments[i].b1 < segments[j].b1 })
	for _, seg := range segments {
		if len(seg.tokens) == 0 {
			continue
		}
		id := ids.Next()
		switch seg.kind {
		case segHeading:
			actions = append(actions, action.Action{
				ID:        id,
				Type:      action.SectionCreation,
				Content:   seg.tokens,
				UserID:    rev.UserID,
				UserText:  rev.UserText,
				Timestamp: rev.Timestamp,
				RevID:     rev.RevID,
				PageID:    rev.PageID,
				PageTitle: rev.PageTitle,
			})
			newPage.Insert(seg.b1, pagestate.Entry{ActionID: id, Indent: 0})
		default:
			replyTo := replyToFor(newPage, seg.b1)
			indent := indentationOf(seg.text())
			actions = append(actions, action.Action{
				ID:          id,
				Type:        action.CommentAdding,
				ReplyToID:   replyTo,
				Indentation: indent,
				Content:     seg.tokens,
				UserID:      rev.UserID,
				UserText:    rev.UserText,
				Timestamp:   rev.Timestamp,
				RevID:       rev.RevID,
				PageID:      rev.PageID,
				PageTitle:   rev.PageTitle,
			})
			newPage.Insert(seg.b1, pagestate.Entry{ActionID: id, Indent: indent})
		}
	}

	// Phase G — close boundaries: the sentinel must sit at the new
	// page's total length, and offset 0 must exist; any other gap
	// already resolves correctly through GetActionStart's floor lookup.
	newPage.Insert(len(newTokens), pagestate.Entry{ActionID: pagestate.SentinelActionID, Indent: pagestate.SentinelIndent, Sentinel: true})
	if _, ok := newPage.Get(0); !ok {
		newPage.Insert(0, pagestate.Entry{})
	}
	if violated := newPage.CheckInvariants(); violated != "" {
		return nil, nil, reconstructerr.NewInvariantViolation(rev.PageID, rev.RevID, violated)
	}

	// Phase H — sort & return.
	action.SortByCreationOrder(actions)
	return newPage, actions, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
