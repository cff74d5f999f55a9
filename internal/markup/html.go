package markup

import (
	"html"
	"strconv"
	"strings"
)

var styleTags = map[Style][2]string{
	StyleUnderline:   {`<span class="underline">`, `</span>`},
	StyleStrike:      {`<span class="line-through">`, `</span>`},
	StyleAlignCenter: {`<div class="text-center">`, `</div>`},
	StyleAlignRight:  {`<div class="text-right">`, `</div>`},
}

// HTML writes segments as escaped HTML. Math is emitted as its source inside
// marker elements for a client-side typesetter.
func HTML(segs []Segment) string {
	var b strings.Builder
	writeHTML(&b, segs)
	return b.String()
}

func writeHTML(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		switch s.Kind {
		case KindText:
			b.WriteString(html.EscapeString(s.Text))
		case KindLineBreak:
			b.WriteString("<br />")
		case KindFootnote:
			b.WriteString(`<sup class="footnote-ref" title="`)
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString(`">`)
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteString(")</sup>")
		case KindInlineMath:
			b.WriteString(`<span class="math-inline">`)
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</span>")
		case KindBlockMath:
			b.WriteString(`<div class="math-block">`)
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</div>")
		case KindBracket:
			color := strings.ToLower(string(s.Color))
			b.WriteString(`<span class="bracket bracket-` + color + `"><span class="bracket-body">`)
			writeHTML(b, s.Children)
			b.WriteString(`</span><span class="bracket-label">[` + string(s.Color) + `]</span></span>`)
		case KindStyle:
			tags, ok := styleTags[s.Style]
			if !ok {
				writeHTML(b, s.Children)
				continue
			}
			b.WriteString(tags[0])
			writeHTML(b, s.Children)
			b.WriteString(tags[1])
		case KindSplit:
			b.WriteString(`<div class="split split-` + string(s.Split) + `">`)
			writeHTML(b, s.Children)
			b.WriteString("</div>")
		}
	}
}

// FootnotesHTML renders a footnote list; an empty list renders nothing.
func FootnotesHTML(notes []Footnote) string {
	if len(notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ol class="footnotes">`)
	for _, n := range notes {
		b.WriteString("<li><strong>")
		b.WriteString(strconv.Itoa(n.Index))
		b.WriteString(")</strong> ")
		b.WriteString(html.EscapeString(n.Explanation))
		b.WriteString("</li>")
	}
	b.WriteString("</ol>")
	return b.String()
}
