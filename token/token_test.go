package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeStable(t *testing.T) {
	samples := []string{
		"",
		"Hello world.",
		"== Topic ==\n:Hello world.\n",
		"Para one.\n\nPara two.\nStill two.\n\n\nPara three.",
	}
	for _, s := range samples {
		require.Equal(t, Tokenize(s), Tokenize(s), "tokenize must be stable for %q", s)
	}
}

func TestTokenizeTotal(t *testing.T) {
	samples := []string{
		"== Topic ==\n:Hello world.\n",
		"a\n\nb\nc\n\n\nd   e\tf",
	}
	for _, s := range samples {
		require.Equal(t, s, Join(Tokenize(s)))
	}
}

func TestTokenizeBreakOnEveryNewlineRun(t *testing.T) {
	toks := Tokenize("a\nb\n\nc")
	var breaks int
	for _, tok := range toks {
		if tok.IsBreak() {
			breaks++
		}
	}
	require.Equal(t, 2, breaks)
}
