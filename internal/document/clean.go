package document

import (
	"regexp"
	"strings"
)

var (
	reImageMD    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reImageHTML  = regexp.MustCompile(`(?is)<img[^>]*>`)
	reComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
)

// Clean drops markdown and HTML images, HTML comments and runs of blank
// lines. Text content is left as written.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reImageMD.ReplaceAllString(text, "")
	text = reImageHTML.ReplaceAllString(text, "")
	text = reComment.ReplaceAllString(text, "")
	text = reTrailingWS.ReplaceAllString(text, "\n")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
