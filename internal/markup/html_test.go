package markup

import "testing"

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "escapes raw html", in: "<b>x</b> & y", want: "&lt;b&gt;x&lt;/b&gt; &amp; y"},
		{name: "line breaks", in: "a\nb", want: "a<br />b"},
		{name: "math", in: "$a<b$", want: `<span class="math-inline">a&lt;b</span>`},
		{name: "block math", in: "$$x$$", want: `<div class="math-block">x</div>`},
		{name: "footnote", in: `w[* "q"]`, want: `w<sup class="footnote-ref" title="&#34;q&#34;">1)</sup>`},
		{name: "underline", in: "[U]u[/U]", want: `<span class="underline">u</span>`},
		{name: "center", in: "[ALIGN_CENTER]c[/ALIGN_CENTER]", want: `<div class="text-center">c</div>`},
		{
			name: "bracket",
			in:   "[A_BRACKET]x[/A_BRACKET]",
			want: `<span class="bracket bracket-a"><span class="bracket-body">x</span><span class="bracket-label">[A]</span></span>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTML(Render(tc.in).Segments); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHTMLSplitBlocks(t *testing.T) {
	got := HTML(RenderBlocks("a[PASSAGE_SPLIT]b", SplitPassage).Segments)
	want := `<div class="split split-passage">a</div><div class="split split-passage">b</div>`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFootnotesHTML(t *testing.T) {
	if got := FootnotesHTML(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	got := FootnotesHTML([]Footnote{{Index: 1, Explanation: "a<b"}})
	want := `<ol class="footnotes"><li><strong>1)</strong> a&lt;b</li></ol>`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
