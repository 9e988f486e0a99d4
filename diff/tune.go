package diff

import "github.com/wikidetox/reconstructor/token"

// tune re-aligns Insert/Delete ops that sit between two Equal runs of
// identical tokens so their endpoints prefer break-token boundaries,
// per spec §4.2. An op can only be tuned when it is flanked by Equal
// ops on the side being slid; replace-style adjacent insert/delete
// pairs are left as the differ produced them.
func tune(ops []Op, a, b []token.Token) []Op {
	out := append([]Op(nil), ops...)
	for i := range out {
		switch out[i].Name {
		case Insert:
			tuneInsert(out, i, b)
		case Delete:
			tuneDelete(out, i, a)
		}
	}
	return out
}

func tuneInsert(ops []Op, i int, b []token.Token) {
	op := ops[i]
	leftBound := op.B1
	if i > 0 && ops[i-1].Name == Equal {
		leftBound = ops[i-1].B1
	}
	rightBound := op.B2
	if i+1 < len(ops) && ops[i+1].Name == Equal {
		rightBound = ops[i+1].B2
	}

	minB1 := scanLeft(b, op.B1, op.B2, leftBound)
	maxB1 := scanRight(b, op.B1, op.B2, rightBound)
	width := op.B2 - op.B1

	best := op.B1
	bestScore := -1
	for cand := minB1; cand <= maxB1; cand++ {
		score := boundaryScore(b, cand, cand+width)
		if score > bestScore || (score == bestScore && cand < best) {
			bestScore = score
			best = cand
		}
	}

	delta := op.B1 - best
	if delta == 0 {
		return
	}
	if i > 0 && ops[i-1].Name == Equal {
		ops[i-1].A2 -= delta
		ops[i-1].B2 -= delta
	}
	if i+1 < len(ops) && ops[i+1].Name == Equal {
		ops[i+1].A1 -= delta
		ops[i+1].B1 -= delta
	}
	ops[i].A1 -= delta
	ops[i].A2 -= delta
	ops[i].B1 -= delta
	ops[i].B2 -= delta
	ops[i].Tokens = b[ops[i].B1:ops[i].B2]
}

func tuneDelete(ops []Op, i int, a []token.Token) {
	op := ops[i]
	leftBound := op.A1
	if i > 0 && ops[i-1].Name == Equal {
		leftBound = ops[i-1].A1
	}
	rightBound := op.A2
	if i+1 < len(ops) && ops[i+1].Name == Equal {
		rightBound = ops[i+1].A2
	}

	minA1 := scanLeft(a, op.A1, op.A2, leftBound)
	maxA1 := scanRight(a, op.A1, op.A2, rightBound)
	width := op.A2 - op.A1

	best := op.A1
	bestScore := -1
	for cand := minA1; cand <= maxA1; cand++ {
		score := boundaryScore(a, cand, cand+width)
		if score > bestScore || (score == bestScore && cand < best) {
			bestScore = score
			best = cand
		}
	}

	delta := op.A1 - best
	if delta == 0 {
		return
	}
	if i > 0 && ops[i-1].Name == Equal {
		ops[i-1].A2 -= delta
		ops[i-1].B2 -= delta
	}
	if i+1 < len(ops) && ops[i+1].Name == Equal {
		ops[i+1].A1 -= delta
		ops[i+1].B1 -= delta
	}
	ops[i].A1 -= delta
	ops[i].A2 -= delta
	ops[i].B1 -= delta
	ops[i].B2 -= delta
	ops[i].Tokens = a[ops[i].A1:ops[i].A2]
}

// scanLeft returns the smallest start offset reachable by repeatedly
// sliding the [start,end) window one position left, valid only while
// the token displaced out of the window equals the token displaced
// into it (the "run of identical tokens" condition of spec §4.2).
func scanLeft(seq []token.Token, start, end, bound int) int {
	cur := start
	width := end - start
	for cur-1 >= bound && tokensEqual(seq[cur-1], seq[cur+width-1]) {
		cur--
	}
	return cur
}

// scanRight returns the largest start offset reachable by repeatedly
// sliding the window one position right.
func scanRight(seq []token.Token, start, end, bound int) int {
	cur := start
	width := end - start
	for cur+width < bound && tokensEqual(seq[cur+width], seq[cur]) {
		cur++
	}
	return cur
}

// boundaryScore counts how many of the two window endpoints [s,e) land
// on a break-token boundary, mirroring the start/end conditions spec
// §4.4 Phase A uses to recognize a new-comment insertion.
func boundaryScore(seq []token.Token, s, e int) int {
	score := 0
	startOK := s == 0 || seq[s-1].IsBreak() || (s < len(seq) && seq[s].IsBreak())
	if startOK {
		score++
	}
	endOK := e == len(seq) || (e > 0 && seq[e-1].IsBreak())
	if endOK {
		score++
	}
	return score
}

func tokensEqual(x, y token.Token) bool {
	return x.Kind == y.Kind && x.Text == y.Text
}
