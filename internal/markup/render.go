// Package markup turns the question bank's bracket-token markup into a tree
// of typed segments.
//
// A field goes through four steps: footnote extraction, glyph substitution,
// tokenizing into math, bracket, style and split spans, and realization of
// each token as a Segment. Spans that carry content are parsed recursively.
// Rendering never fails; malformed markup is kept as literal text.
package markup

import "strings"

type Kind string

const (
	KindText       Kind = "text"
	KindLineBreak  Kind = "line_break"
	KindFootnote   Kind = "footnote"
	KindInlineMath Kind = "inline_math"
	KindBlockMath  Kind = "block_math"
	KindBracket    Kind = "bracket"
	KindStyle      Kind = "style"
	KindSplit      Kind = "split"
)

type Color string

const (
	ColorA Color = "A"
	ColorB Color = "B"
	ColorC Color = "C"
)

type Style string

const (
	StyleUnderline   Style = "underline"
	StyleStrike      Style = "strike"
	StyleAlignCenter Style = "center"
	StyleAlignRight  Style = "right"
)

type SplitKind string

const (
	SplitPassage SplitKind = "passage"
	SplitBox     SplitKind = "box"
)

// Delimiter is the plain marker a field is cut on before rendering.
func (k SplitKind) Delimiter() string {
	if k == SplitBox {
		return "[BOX_SPLIT]"
	}
	return "[PASSAGE_SPLIT]"
}

// Segment is a node of the rendered tree. Which fields are set depends on
// Kind: Text holds literal text, the math source or a footnote's
// explanation; Index is the footnote number; Color, Style and Split tag the
// container kinds whose content is in Children.
type Segment struct {
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Index    int       `json:"index,omitempty"`
	Color    Color     `json:"color,omitempty"`
	Style    Style     `json:"style,omitempty"`
	Split    SplitKind `json:"split,omitempty"`
	Children []Segment `json:"children,omitempty"`
}

type Rendered struct {
	Segments  []Segment  `json:"segments"`
	Footnotes []Footnote `json:"footnotes,omitempty"`
}

func (r Rendered) Empty() bool {
	return len(r.Segments) == 0
}

// Render runs the full pipeline over one field value. Empty input yields an
// empty result.
func Render(text string) Rendered {
	if text == "" {
		return Rendered{}
	}
	processed, notes := ExtractFootnotes(text)
	p := parser{notes: notes}
	return Rendered{
		Segments:  p.parse(Substitute(processed)),
		Footnotes: notes,
	}
}

// RenderBlocks cuts text on the split delimiter of kind and renders every
// chunk on its own, so footnote numbering restarts per chunk. Each chunk
// becomes one split segment; footnote lists are concatenated in chunk order.
func RenderBlocks(text string, kind SplitKind) Rendered {
	if text == "" {
		return Rendered{}
	}
	var out Rendered
	for _, chunk := range strings.Split(text, kind.Delimiter()) {
		r := Render(chunk)
		out.Segments = append(out.Segments, Segment{Kind: KindSplit, Split: kind, Children: r.Segments})
		out.Footnotes = append(out.Footnotes, r.Footnotes...)
	}
	return out
}

type parser struct {
	notes []Footnote
}

func (p parser) parse(text string) []Segment {
	var segs []Segment
	for _, tok := range Tokenize(text) {
		inner := text[tok.InnerStart:tok.InnerEnd]
		switch tok.Kind {
		case TokenText:
			segs = appendText(segs, inner)
		case TokenBlockMath:
			segs = append(segs, Segment{Kind: KindBlockMath, Text: inner})
		case TokenInlineMath:
			segs = append(segs, Segment{Kind: KindInlineMath, Text: inner})
		case TokenBracketA, TokenBracketB, TokenBracketC:
			segs = append(segs, Segment{Kind: KindBracket, Color: bracketColor(tok.Kind), Children: p.parse(inner)})
		case TokenUnderline, TokenStrike, TokenAlignCenter, TokenAlignRight:
			segs = append(segs, Segment{Kind: KindStyle, Style: spanStyle(tok.Kind), Children: p.parse(inner)})
		case TokenBoxSplit:
			segs = append(segs, Segment{Kind: KindSplit, Split: SplitBox, Children: p.parse(inner)})
		case TokenPassageSplit:
			segs = append(segs, Segment{Kind: KindSplit, Split: SplitPassage, Children: p.parse(inner)})
		case TokenFootnoteRef:
			seg := Segment{Kind: KindFootnote, Index: tok.Index}
			if tok.Index <= len(p.notes) {
				seg.Text = p.notes[tok.Index-1].Explanation
			}
			segs = append(segs, seg)
		}
	}
	return segs
}

func appendText(segs []Segment, text string) []Segment {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			segs = append(segs, Segment{Kind: KindLineBreak})
		}
		if line == "" {
			continue
		}
		if i == 0 && len(segs) > 0 && segs[len(segs)-1].Kind == KindText {
			segs[len(segs)-1].Text += line
			continue
		}
		segs = append(segs, Segment{Kind: KindText, Text: line})
	}
	return segs
}

func bracketColor(k TokenKind) Color {
	switch k {
	case TokenBracketB:
		return ColorB
	case TokenBracketC:
		return ColorC
	default:
		return ColorA
	}
}

func spanStyle(k TokenKind) Style {
	switch k {
	case TokenStrike:
		return StyleStrike
	case TokenAlignCenter:
		return StyleAlignCenter
	case TokenAlignRight:
		return StyleAlignRight
	default:
		return StyleUnderline
	}
}

// PlainText flattens segments back into text: line breaks become newlines,
// math keeps its delimiters and footnote references are dropped.
func PlainText(segs []Segment) string {
	var b strings.Builder
	writePlain(&b, segs)
	return b.String()
}

func writePlain(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		switch s.Kind {
		case KindText:
			b.WriteString(s.Text)
		case KindLineBreak:
			b.WriteByte('\n')
		case KindInlineMath:
			b.WriteString("$" + s.Text + "$")
		case KindBlockMath:
			b.WriteString("$$" + s.Text + "$$")
		case KindBracket, KindStyle, KindSplit:
			writePlain(b, s.Children)
		}
	}
}
