// Package token splits cleaned wiki talk-page text into an ordered
// sequence of tokens that the differ and classifier operate on.
package token

import "strings"

// Kind tags the role a Token plays in a revision's text.
type Kind int

const (
	// Word is a run of non-whitespace text.
	Word Kind = iota
	// Break marks a line boundary (a run of one or more newlines) — the
	// only legal start/end of a new comment (spec §4.1).
	Break
	// Other is a run of non-newline whitespace (spaces, tabs, carriage
	// returns).
	Other
)

// Token is an immutable value produced by Tokenize. Its position is its
// index in the slice Tokenize returns.
type Token struct {
	Text string
	Kind Kind
}

// breakRun is the minimum number of consecutive newlines that counts as
// a break: every run of newlines is a Break, so each new line is a
// possible comment boundary.
const breakRun = 1

// Tokenize splits text into Tokens. Splitting is total: concatenating
// every Token's Text reproduces text exactly. Tokenize is pure and must
// be called with the same logic for both sides of a diff (spec §4.1).
func Tokenize(text string) []Token {
	var tokens []Token
	var wordStart int
	var inWord bool

	flushWord := func(end int) {
		if inWord && end > wordStart {
			tokens = append(tokens, Token{Text: text[wordStart:end], Kind: Word})
		}
		inWord = false
	}

	i := 0
	for i < len(text) {
		r := text[i]
		switch {
		case r == '\n':
			flushWord(i)
			j := i
			for j < len(text) && text[j] == '\n' {
				j++
			}
			if j-i >= breakRun {
				tokens = append(tokens, Token{Text: text[i:j], Kind: Break})
			} else {
				tokens = append(tokens, Token{Text: text[i:j], Kind: Other})
			}
			i = j
		case r == ' ' || r == '\t' || r == '\r':
			flushWord(i)
			j := i
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\r') {
				j++
			}
			tokens = append(tokens, Token{Text: text[i:j], Kind: Other})
			i = j
		default:
			if !inWord {
				inWord = true
				wordStart = i
			}
			i++
		}
	}
	flushWord(len(text))

	return tokens
}

// Join reconstructs the literal text covered by a slice of Tokens.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// IsBreak reports whether t is a paragraph-break token.
func (t Token) IsBreak() bool { return t.Kind == Break }
