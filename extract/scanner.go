package extract

import (
	"iter"
	"regexp"
	"unicode/utf8"
)

// accentedLetters are the non-ASCII letters a literal may rely on to count
// as text.
const accentedLetters = "áàâãéèêíïóôõúçñÁÀÂÃÉÈÊÍÏÓÔÕÚÇÑ"

// PreContextLen is the number of characters before a literal handed to the
// classifier.
const PreContextLen = 30

var (
	// A quoted span on one line holding at least one letter. Opening and
	// closing quotes need not match.
	literalRe = regexp.MustCompile(`['"]([^'"\n]*?[a-zA-Z` + accentedLetters + `][^'"\n]*?)['"]`)

	interpolationRe = regexp.MustCompile(`\$\{.*?\}`)
)

// Candidate is one plain-text segment of a quoted literal.
type Candidate struct {
	// Text is the segment, untrimmed.
	Text string
	// Literal is the whole body of the literal the segment came from.
	Literal string
	// Offset is the byte offset of the literal's opening quote.
	Offset int
	// PreContext holds up to PreContextLen characters preceding the quote.
	PreContext string
}

// Scan yields the candidates of content in file order. Matching is lazy:
// each literal is located only when the consumer asks for the next
// candidate, and stopping early stops the scan.
func Scan(content string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		pos := 0
		for pos < len(content) {
			loc := literalRe.FindStringSubmatchIndex(content[pos:])
			if loc == nil {
				return
			}
			start := pos + loc[0]
			body := content[pos+loc[2] : pos+loc[3]]
			pre := preContext(content, start)
			pos += loc[1]

			for _, seg := range splitInterpolations(body) {
				if !yield(Candidate{Text: seg, Literal: body, Offset: start, PreContext: pre}) {
					return
				}
			}
		}
	}
}

// preContext returns up to PreContextLen runes ending at byte offset end.
func preContext(content string, end int) string {
	start := end
	for n := 0; n < PreContextLen && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}
	return content[start:end]
}

// splitInterpolations returns the pieces of body between ${...}
// expressions. Empty pieces are dropped.
func splitInterpolations(body string) []string {
	var parts []string
	last := 0
	for _, loc := range interpolationRe.FindAllStringIndex(body, -1) {
		if loc[0] > last {
			parts = append(parts, body[last:loc[0]])
		}
		last = loc[1]
	}
	if last < len(body) {
		parts = append(parts, body[last:])
	}
	return parts
}
