package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

// mojibake maps UTF-8 punctuation that was decoded as Windows-1252 back to
// the intended rune. Longer sequences come first; the bare "â€" is what
// remains of a right double quote once its C1 byte is stripped.
var mojibake = strings.NewReplacer(
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"â€¢", "•",
	"â€", "”",
	"Â ", " ",
	"Ã©", "é",
	"Ã¨", "è",
	"Ã¡", "á",
	"Ã±", "ñ",
	"Ã¶", "ö",
	"Ã¼", "ü",
	"Ã§", "ç",
)

var (
	hyphenBreak    = regexp.MustCompile(`(\p{L})-[ \t]*\n\s*(\p{L})`)
	spacedDecimal  = regexp.MustCompile(`(\d)[ \t]+\.[ \t]*(\d)`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	paddedNewline  = regexp.MustCompile(` *\n *`)
	blankLineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes extracted text: it drops non-printable characters, repairs
// mis-decoded punctuation, rejoins words hyphenated across lines, rejoins
// decimals split by spaces and collapses whitespace, leaving at most one blank
// line between paragraphs.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case unicode.IsSpace(r):
			return ' '
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, text)

	text = mojibake.Replace(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = spacedDecimal.ReplaceAllString(text, "$1.$2")
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = paddedNewline.ReplaceAllString(text, "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
