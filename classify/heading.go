package classify

import (
	"strings"

	"github.com/wikidetox/reconstructor/token"
)

// segmentKind distinguishes the pieces an inserted run splits into.
type segmentKind int

const (
	segComment segmentKind = iota
	segHeading
)

// segment is one piece of a new-comment insertion after Phase A's
// heading split: either the text of a section heading, or the comment
// body between two headings. a1/a2 stay equal to the insertion's
// original (zero-width) old-sequence position; b1/b2 index the new
// sequence.
type segment struct {
	kind   segmentKind
	a1, a2 int
	b1, b2 int
	tokens []token.Token
}

func (s segment) text() string { return token.Join(s.tokens) }

// isHeadingLine reports whether line (with surrounding whitespace
// trimmed) matches the wiki section-heading syntax `== Title ==`
// (2 or more `=` on each side), and returns the bare title.
func isHeadingLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 4 {
		return "", false
	}
	lead := 0
	for lead < len(trimmed) && trimmed[lead] == '=' {
		lead++
	}
	if lead < 2 {
		return "", false
	}
	trail := 0
	for trail < len(trimmed) && trimmed[len(trimmed)-1-trail] == '=' {
		trail++
	}
	if trail < 2 || lead+trail > len(trimmed) {
		return "", false
	}
	title := strings.TrimSpace(trimmed[lead : len(trimmed)-trail])
	if title == "" {
		return "", false
	}
	return title, true
}

// isLineSeparator reports whether t is purely a run of newline
// characters, i.e. the token that terminates one text line and starts
// the next. The tokenizer emits every newline run as a Break token; an
// Other token made only of newlines is accepted as well.
func isLineSeparator(t token.Token) bool {
	if t.Kind == token.Break {
		return true
	}
	if t.Kind != token.Other || t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if r != '\n' {
			return false
		}
	}
	return true
}

// splitHeadings splits an inserted token run into alternating comment
// and heading segments (spec §4.4 Phase A). Every input token appears
// in exactly one output segment, in order, so Join-ing every segment's
// tokens in sequence reproduces the original run exactly.
func splitHeadings(tokens []token.Token, a1, b1 int) []segment {
	var segments []segment
	var lineStart int // index into tokens of the current line's first token
	var runningB1 int = b1

	flush := func(end int) {
		if end <= lineStart {
			return
		}
		lineTokens := tokens[lineStart:end]
		kind := segComment
		if title, ok := isHeadingLine(token.Join(lineTokens)); ok {
			kind = segHeading
			_ = title
		}
		newB1 := runningB1
		newB2 := runningB1 + (end - lineStart)
		canMerge := kind == segComment && len(segments) > 0 && segments[len(segments)-1].kind == segComment
		if !canMerge {
			segments = append(segments, segment{kind: kind, a1: a1, a2: a1, b1: newB1, b2: newB2, tokens: append([]token.Token{}, lineTokens...)})
		} else {
			last := &segments[len(segments)-1]
			last.b2 = newB2
			last.tokens = append(last.tokens, lineTokens...)
		}
		runningB1 = newB2
		lineStart = end
	}

	for i, t := range tokens {
		if isLineSeparator(t) {
			flush(i + 1)
		}
	}
	flush(len(tokens))

	return segments
}

// indentationOf counts the wiki indentation markers leading text, after
// skipping any leading whitespace/newlines (spec §4.4 Phase F,
// glossary "Indentation").
func indentationOf(text string) int {
	i := 0
	for i < len(text) {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			i++
			continue
		}
		break
	}
	n := 0
	for i < len(text) && (text[i] == ':' || text[i] == '*') {
		n++
		i++
	}
	return n
}
