package email

import (
	"html"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/lifetab/lifetab/internal/textutil"
)

// bodyText returns the best textual body of a parsed message: the plain-text
// part where present, otherwise the HTML part with markup stripped. The
// result is repaired to valid UTF-8 so character and word counts are stable.
func bodyText(env *enmime.Envelope) string {
	if env.Text != "" {
		return textutil.EnsureUTF8(env.Text)
	}
	if env.HTML != "" {
		return textutil.EnsureUTF8(stripHTML(env.HTML))
	}
	return ""
}

var (
	blockTagRe  = regexp.MustCompile(`(?i)<(/?)(p|div|br|hr|h[1-6]|li|tr|td|th|blockquote|pre|table|ul|ol|dl|dt|dd)[^>]*>`)
	scriptTagRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headTagRe   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// stripHTML removes tags, decodes entities and normalizes whitespace so the
// derived counts reflect readable text rather than markup.
func stripHTML(rawHTML string) string {
	text := scriptTagRe.ReplaceAllString(rawHTML, "")
	text = styleTagRe.ReplaceAllString(text, "")
	text = headTagRe.ReplaceAllString(text, "")

	// Block tags become line breaks so consecutive blocks stay separated.
	text = blockTagRe.ReplaceAllString(text, "\n")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00A0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
