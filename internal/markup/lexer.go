package markup

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenBlockMath
	TokenInlineMath
	TokenBracketA
	TokenBracketB
	TokenBracketC
	TokenUnderline
	TokenStrike
	TokenAlignCenter
	TokenAlignRight
	TokenBoxSplit
	TokenPassageSplit
	TokenFootnoteRef
)

// Token is one lexeme of a field. Start/End cover the whole lexeme,
// InnerStart/InnerEnd the content between its delimiters.
type Token struct {
	Kind       TokenKind
	Start      int
	End        int
	InnerStart int
	InnerEnd   int
	Index      int
}

type pairedTag struct {
	kind  TokenKind
	open  string
	close string
}

var pairedTags = []pairedTag{
	{TokenBracketA, "[A_BRACKET]", "[/A_BRACKET]"},
	{TokenBracketB, "[B_BRACKET]", "[/B_BRACKET]"},
	{TokenBracketC, "[C_BRACKET]", "[/C_BRACKET]"},
	{TokenUnderline, "[U]", "[/U]"},
	{TokenStrike, "[S]", "[/S]"},
	{TokenAlignCenter, "[ALIGN_CENTER]", "[/ALIGN_CENTER]"},
	{TokenAlignRight, "[ALIGN_RIGHT]", "[/ALIGN_RIGHT]"},
	{TokenBoxSplit, "[BOX_SPLIT]", "[/BOX_SPLIT]"},
	{TokenPassageSplit, "[PASSAGE_SPLIT]", "[/PASSAGE_SPLIT]"},
}

// Tokenize splits text into an ordered, gap-free token stream. The leftmost
// recognised span wins; anything unrecognised or unterminated stays text.
func Tokenize(text string) []Token {
	var toks []Token
	textStart := 0
	for i := 0; i < len(text); {
		tok, ok := matchAt(text, i)
		if !ok {
			// An unterminated "$$" is literal as a whole.
			if strings.HasPrefix(text[i:], "$$") {
				i += 2
				continue
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		if textStart < i {
			toks = append(toks, textToken(textStart, i))
		}
		toks = append(toks, tok)
		i = tok.End
		textStart = i
	}
	if textStart < len(text) {
		toks = append(toks, textToken(textStart, len(text)))
	}
	return toks
}

func textToken(start, end int) Token {
	return Token{Kind: TokenText, Start: start, End: end, InnerStart: start, InnerEnd: end}
}

func matchAt(s string, i int) (Token, bool) {
	switch s[i] {
	case '$':
		return matchMath(s, i)
	case '[':
		rest := s[i:]
		for _, tag := range pairedTags {
			if !strings.HasPrefix(rest, tag.open) {
				continue
			}
			innerStart := i + len(tag.open)
			closeAt, ok := findClose(s, innerStart, tag.open, tag.close)
			if !ok {
				return Token{}, false
			}
			return Token{
				Kind:       tag.kind,
				Start:      i,
				End:        closeAt + len(tag.close),
				InnerStart: innerStart,
				InnerEnd:   closeAt,
			}, true
		}
		return Token{}, false
	}

	r, size := utf8.DecodeRuneInString(s[i:])
	if r != refOpen {
		return Token{}, false
	}
	end := strings.IndexRune(s[i+size:], refClose)
	if end <= 0 {
		return Token{}, false
	}
	digits := s[i+size : i+size+end]
	stop := i + size + end + utf8.RuneLen(refClose)
	switch digits {
	case literalOpen:
		return Token{Kind: TokenText, Start: i, End: stop, InnerStart: i, InnerEnd: i + size}, true
	case literalClose:
		return Token{Kind: TokenText, Start: i, End: stop, InnerStart: stop - utf8.RuneLen(refClose), InnerEnd: stop}, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return Token{}, false
	}
	return Token{Kind: TokenFootnoteRef, Start: i, End: stop, InnerStart: i + size, InnerEnd: i + size + end, Index: n}, true
}

func matchMath(s string, i int) (Token, bool) {
	if strings.HasPrefix(s[i:], "$$") {
		if j := strings.Index(s[i+2:], "$$"); j >= 0 {
			inner := i + 2
			return Token{Kind: TokenBlockMath, Start: i, End: inner + j + 2, InnerStart: inner, InnerEnd: inner + j}, true
		}
	}
	// An empty inline span is never math; "$$" without a closing pair is text.
	j := strings.IndexByte(s[i+1:], '$')
	if j <= 0 {
		return Token{}, false
	}
	inner := i + 1
	return Token{Kind: TokenInlineMath, Start: i, End: inner + j + 1, InnerStart: inner, InnerEnd: inner + j}, true
}

// findClose returns the offset of the closing tag that balances an opening
// tag whose content starts at from. Same-tag spans nest.
func findClose(s string, from int, open, close string) (int, bool) {
	depth := 1
	for i := from; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], close):
			depth--
			if depth == 0 {
				return i, true
			}
			i += len(close)
		case strings.HasPrefix(s[i:], open):
			depth++
			i += len(open)
		default:
			i++
		}
	}
	return 0, false
}
