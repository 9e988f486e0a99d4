package diff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikidetox/reconstructor/token"
)

func TestDiffNoOp(t *testing.T) {
	a := token.Tokenize("== Topic ==\n:Hello world.\n")
	b := token.Tokenize("== Topic ==\n:Hello world.\n")
	ops := Diff(a, b)
	require.Len(t, ops, 1)
	require.Equal(t, Equal, ops[0].Name)
	require.Equal(t, 0, ops[0].A1)
	require.Equal(t, len(a), ops[0].A2)
}

func TestDiffAppend(t *testing.T) {
	a := token.Tokenize("== Topic ==\n:Hello world.\n")
	b := token.Tokenize("== Topic ==\n:Hello world.\n::Reply.\n")
	ops := Diff(a, b)

	var inserts []Op
	for _, op := range ops {
		if op.Name == Insert {
			inserts = append(inserts, op)
		}
	}
	require.Len(t, inserts, 1)
	require.Equal(t, "::Reply.\n", token.Join(inserts[0].Tokens))
}

func TestDiffOpsCoverSequences(t *testing.T) {
	a := token.Tokenize("one\n\ntwo\n\nthree")
	b := token.Tokenize("one\n\nTWO\n\nthree\n\nfour")
	ops := Diff(a, b)

	var coveredA, coveredB int
	for i, op := range ops {
		if i > 0 {
			require.Equal(t, ops[i-1].A2, op.A1, "ops must be gap-free over A")
			require.Equal(t, ops[i-1].B2, op.B1, "ops must be gap-free over B")
		}
		coveredA = op.A2
		coveredB = op.B2
	}
	require.Equal(t, len(a), coveredA)
	require.Equal(t, len(b), coveredB)
}
