package classify

import "github.com/wikidetox/reconstructor/diff"

// Bound selects which side of an insert/delete op's new-coordinate
// range locateNewTokenPos returns when x lands on a zero-width or
// shared boundary point (spec §9 open question (c)).
type Bound int

const (
	LeftBound Bound = iota
	RightBound
)

// locateNewTokenPos maps an old-sequence offset x to its image under
// the diff ops D (spec §4.3 locate_new_token_pos). ops must be sorted
// by A1, as diff.Diff guarantees.
//
// For an x with A1 <= x < A2 of some Equal op the mapping is exact
// (constant offset), whatever bound is; this includes an x at an Equal
// op's A1 that an Insert also touches. Otherwise x sits on a boundary
// shared by adjoining ops — typically the edge of a Delete, or the end
// of the sequence — and bound picks the position before (LeftBound) or
// after (RightBound) whatever was inserted/deleted at that point.
func locateNewTokenPos(x int, ops []diff.Op, bound Bound) (int, bool) {
	for _, op := range ops {
		if op.Name == diff.Equal && x >= op.A1 && x < op.A2 {
			return op.B1 + (x - op.A1), true
		}
	}

	var left, right int
	haveLeft, haveRight := false, false
	for _, op := range ops {
		switch op.Name {
		case diff.Equal:
			if x == op.A2 && !haveLeft {
				left, haveLeft = op.B2, true
			}
			if x == op.A1 && !haveRight {
				right, haveRight = op.B1, true
			}
		case diff.Insert:
			if x == op.A1 {
				if !haveLeft {
					left, haveLeft = op.B1, true
				}
				right, haveRight = op.B2, true
			}
		case diff.Delete:
			if x == op.A1 && !haveLeft {
				left, haveLeft = op.B1, true
			}
			if x == op.A2 {
				right, haveRight = op.B2, true
			}
		}
	}

	if bound == RightBound && haveRight {
		return right, true
	}
	if haveLeft {
		return left, true
	}
	if haveRight {
		return right, true
	}
	return 0, false
}
