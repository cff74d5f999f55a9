package markup

import "strings"

// glyphTable maps literal bracket tokens to the characters they stand for.
// No token is a prefix of another, so replacement order does not matter.
var glyphTable = []string{
	"[TOK_1_CIRCLE]", "①",
	"[TOK_2_CIRCLE]", "②",
	"[TOK_3_CIRCLE]", "③",
	"[TOK_4_CIRCLE]", "④",
	"[TOK_5_CIRCLE]", "⑤",
	"[TOK_A_UPPER_CIRCLE]", "Ⓐ",
	"[TOK_B_UPPER_CIRCLE]", "Ⓑ",
	"[TOK_C_UPPER_CIRCLE]", "Ⓒ",
	"[TOK_D_UPPER_CIRCLE]", "Ⓓ",
	"[TOK_E_UPPER_CIRCLE]", "Ⓔ",
	"[TOK_A_LOWER_CIRCLE]", "ⓐ",
	"[TOK_B_LOWER_CIRCLE]", "ⓑ",
	"[TOK_C_LOWER_CIRCLE]", "ⓒ",
	"[TOK_D_LOWER_CIRCLE]", "ⓓ",
	"[TOK_E_LOWER_CIRCLE]", "ⓔ",
	"[TOK_GA_CIRCLE]", "㉮",
	"[TOK_NA_CIRCLE]", "㉯",
	"[TOK_DA_CIRCLE]", "㉰",
	"[TOK_RA_CIRCLE]", "㉱",
	"[TOK_MA_CIRCLE]", "㉲",
	"[TOK_GIYEOG_PAREN]", "㉠",
	"[TOK_NIEUN_PAREN]", "㉡",
	"[TOK_DIGEUT_PAREN]", "㉢",
	"[TOK_RIEUL_PAREN]", "㉣",
	"[TOK_MIEUM_PAREN]", "㉤",
	"[BLANK_GA]", "(가)",
	"[BLANK_NA]", "(나)",
	"[BLANK_DA]", "(다)",
	"[BLANK_RA]", "(라)",
	"[BLANK_MA]", "(마)",
	"[BLANK_A_LOWER]", "(a)",
	"[BLANK_B_LOWER]", "(b)",
	"[BLANK_C_LOWER]", "(c)",
	"[BLANK_D_LOWER]", "(d)",
	"[BLANK_E_LOWER]", "(e)",
	"[BLANK_A_UPPER]", "(A)",
	"[BLANK_B_UPPER]", "(B)",
	"[BLANK_C_UPPER]", "(C)",
	"[BLANK_D_UPPER]", "(D)",
	"[BLANK_E_UPPER]", "(E)",
	"[BLANK_GIYEOG]", "(ㄱ)",
	"[BLANK_NIEUN]", "(ㄴ)",
	"[BLANK_DIGEUT]", "(ㄷ)",
	"[BLANK_RIEUL]", "(ㄹ)",
	"[BLANK_MIEUM]", "(ㅁ)",
}

var glyphReplacer = strings.NewReplacer(glyphTable...)

// Substitute replaces fixed glyph and placeholder tokens. Unknown bracket
// sequences are left as they are.
func Substitute(text string) string {
	if text == "" {
		return ""
	}
	return glyphReplacer.Replace(text)
}
