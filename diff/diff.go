// Package diff computes a token-level diff between two revisions of a
// talk page, following an LCS/Myers-equivalent algorithm with a
// break-boundary tuning pass (spec §4.2).
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wikidetox/reconstructor/token"
)

// OpName is the kind of a diff operation.
type OpName int

const (
	Equal OpName = iota
	Insert
	Delete
)

// Op is a single diff operation over token-index ranges. A1/A2 index the
// old (last-known) token sequence; B1/B2 index the new one. Tokens holds
// the literal tokens for Insert (from new) and Delete (from old).
type Op struct {
	Name   OpName
	A1, A2 int
	B1, B2 int
	Tokens []token.Token
}

// Diff returns the sorted (by A1), gap-free list of diff operations
// covering [0,len(a)) x [0,len(b)). The differ is the same for every
// call so that equal revisions always produce a single Equal op.
func Diff(a, b []token.Token) []Op {
	runesA, runesB, alphabet := internTokens(a, b)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(runesA, runesB, false)

	ops := make([]Op, 0, len(diffs))
	var ai, bi int
	for _, d := range diffs {
		n := len([]rune(d.Text))
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			ops = append(ops, Op{Name: Equal, A1: ai, A2: ai + n, B1: bi, B2: bi + n})
			ai += n
			bi += n
		case diffmatchpatch.DiffDelete:
			ops = append(ops, Op{Name: Delete, A1: ai, A2: ai + n, B1: bi, B2: bi, Tokens: a[ai : ai+n]})
			ai += n
		case diffmatchpatch.DiffInsert:
			ops = append(ops, Op{Name: Insert, A1: ai, A2: ai, B1: bi, B2: bi + n, Tokens: b[bi : bi+n]})
			bi += n
		}
	}
	_ = alphabet

	return tune(ops, a, b)
}

// internTokens maps each distinct token (by Text+Kind) to a private-use
// rune so diffmatchpatch's rune-oriented LCS matcher can operate at
// token granularity, the same trick DiffLinesToChars uses for line-mode
// diffing (sergi/go-diff), generalized from lines to arbitrary tokens.
func internTokens(a, b []token.Token) (runesA, runesB []rune, alphabet map[string]rune) {
	alphabet = make(map[string]rune, len(a)+len(b))
	next := rune(0xE000) // start of the Unicode private-use area

	intern := func(toks []token.Token) []rune {
		out := make([]rune, len(toks))
		for i, t := range toks {
			key := string(rune(t.Kind)) + t.Text
			r, ok := alphabet[key]
			if !ok {
				r = next
				alphabet[key] = r
				next++
			}
			out[i] = r
		}
		return out
	}

	runesA = intern(a)
	runesB = intern(b)
	return
}
