package classify

import (
	"github.com/wikidetox/reconstructor/diff"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/reconstructerr"
	"github.com/wikidetox/reconstructor/token"
)

// validateOps checks that every op's indices fall within the bounds of
// the token sequences the diff was computed over (spec §7
// DiffInconsistency).
func validateOps(ops []diff.Op, oldLen, newLen int, rev Revision) error {
	for _, op := range ops {
		if op.A1 < 0 || op.A2 > oldLen || op.A1 > op.A2 {
			return reconstructerr.NewDiffInconsistency(rev.PageID, rev.RevID, "op A-range out of bounds")
		}
		if op.B1 < 0 || op.B2 > newLen || op.B1 > op.B2 {
			return reconstructerr.NewDiffInconsistency(rev.PageID, rev.RevID, "op B-range out of bounds")
		}
	}
	return nil
}

// insertIsBreakBounded implements Phase A's break-boundary test for a
// candidate new-comment insertion.
func insertIsBreakBounded(op diff.Op, newTokens []token.Token) bool {
	firstIsBreak := op.B2 > op.B1 && newTokens[op.B1].IsBreak()
	startsAtBreak := firstIsBreak || op.B1 == 0 || newTokens[op.B1-1].IsBreak()

	lastIsBreak := op.B2 > op.B1 && newTokens[op.B2-1].IsBreak()
	endsAtBreak := op.B2 == len(newTokens) || lastIsBreak

	return startsAtBreak && endsAtBreak
}

// coveredKeys returns, in ascending order, the old page-state keys
// whose action interval overlaps [a1,a2): the action containing a1
// (which may start before a1), plus every further key strictly before
// a2 (spec §4.4 Phase A delete-walk).
func coveredKeys(prev *pagestate.PageState, a1, a2 int) []int {
	var keys []int
	k, _, ok := prev.GetActionStart(a1)
	if !ok {
		return nil
	}
	for ok && k < a2 {
		keys = append(keys, k)
		nk, _, hasNext := prev.GetActionEnd(k)
		if !hasNext {
			break
		}
		k, ok = nk, true
	}
	return keys
}

// findTokenSubrange locates the contiguous token index range [i,j) of
// tokens whose joined text exactly spans the byte range [start,end) of
// token.Join(tokens). Returns ok=false if no token boundary aligns with
// start or end (i.e. the match does not correspond to whole tokens).
func findTokenSubrange(tokens []token.Token, start, end int) (int, int, bool) {
	pos := 0
	i, j := -1, -1
	for idx, t := range tokens {
		if pos == start {
			i = idx
		}
		pos += len(t.Text)
		if pos == end && i >= 0 {
			j = idx + 1
			break
		}
	}
	if i < 0 || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}

// replaceWithSplit splits segments[i] at token indices [ti,tj) (the
// rearranged slice) into its surviving prefix/suffix pieces, replacing
// the single entry with zero, one, or two entries in place.
func replaceWithSplit(segments *[]segment, i, ti, tj int) {
	seg := (*segments)[i]
	var replacement []segment
	if ti > 0 {
		replacement = append(replacement, subSegment(seg, 0, ti))
	}
	if tj < len(seg.tokens) {
		replacement = append(replacement, subSegment(seg, tj, len(seg.tokens)))
	}
	out := make([]segment, 0, len(*segments)-1+len(replacement))
	out = append(out, (*segments)[:i]...)
	out = append(out, replacement...)
	out = append(out, (*segments)[i+1:]...)
	*segments = out
}

// subSegment returns the slice of seg spanning token indices [i,j),
// with b1/b2/a1/a2 recomputed to match.
func subSegment(seg segment, i, j int) segment {
	return segment{
		kind:   seg.kind,
		a1:     seg.a1,
		a2:     seg.a2,
		b1:     seg.b1 + i,
		b2:     seg.b1 + j,
		tokens: seg.tokens[i:j],
	}
}

// replyToFor finds the action owning the offset immediately preceding
// offset in newPage, skipping the sentinel (spec §4.4 Phase F).
func replyToFor(newPage *pagestate.PageState, offset int) string {
	if offset <= 0 {
		return ""
	}
	start, entry, ok := newPage.GetActionStart(offset - 1)
	if !ok || entry.Sentinel || start == offset {
		return ""
	}
	return entry.ActionID
}
