package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// Footnote is one `[* explanation]` annotation pulled out of a field.
// Index is 1-based and restarts for every field.
type Footnote struct {
	Index       int    `json:"index"`
	Explanation string `json:"explanation"`
}

const (
	refOpen  = '\uE000'
	refClose = '\uE001'

	// Reference runes found in the input are escaped as refOpen+marker+refClose.
	literalOpen  = "o"
	literalClose = "c"
)

var footnotePattern = regexp.MustCompile(`\[\*\s(.*?)\]`)

// ExtractFootnotes replaces every footnote outside math spans with an opaque
// inline reference and returns the rewritten text with the footnotes in
// encounter order. Math spans are copied verbatim; reference runes elsewhere
// in the input are escaped so the lexer turns them back into literal text.
func ExtractFootnotes(text string) (string, []Footnote) {
	if text == "" {
		return "", nil
	}
	math := mathSpans(text, 0, nil)

	var notes []Footnote
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range footnotePattern.FindAllStringSubmatchIndex(text, -1) {
		if inSpan(m[0], math) {
			continue
		}
		writeEscaped(&b, text, last, m[0], math)
		idx := len(notes) + 1
		notes = append(notes, Footnote{Index: idx, Explanation: text[m[2]:m[3]]})
		b.WriteString(footnoteRef(idx))
		last = m[1]
	}
	writeEscaped(&b, text, last, len(text), math)
	return b.String(), notes
}

func footnoteRef(index int) string {
	return string(refOpen) + strconv.Itoa(index) + string(refClose)
}

// mathSpans returns the byte ranges of every math token in text, including
// those nested in bracket, style and split spans.
func mathSpans(text string, base int, spans [][2]int) [][2]int {
	for _, tok := range Tokenize(text) {
		switch tok.Kind {
		case TokenInlineMath, TokenBlockMath:
			spans = append(spans, [2]int{base + tok.Start, base + tok.End})
		case TokenText, TokenFootnoteRef:
		default:
			spans = mathSpans(text[tok.InnerStart:tok.InnerEnd], base+tok.InnerStart, spans)
		}
	}
	return spans
}

func inSpan(pos int, spans [][2]int) bool {
	for _, sp := range spans {
		if pos >= sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}

func writeEscaped(b *strings.Builder, text string, from, to int, math [][2]int) {
	chunk := text[from:to]
	if !strings.ContainsAny(chunk, string(refOpen)+string(refClose)) {
		b.WriteString(chunk)
		return
	}
	for i, r := range chunk {
		switch {
		case r == refOpen && !inSpan(from+i, math):
			b.WriteString(string(refOpen) + literalOpen + string(refClose))
		case r == refClose && !inSpan(from+i, math):
			b.WriteString(string(refOpen) + literalClose + string(refClose))
		default:
			b.WriteRune(r)
		}
	}
}
