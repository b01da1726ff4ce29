package legacy

import "strings"

// entities is the small fixed set the ERP emitted in message bodies.
// Anything outside this set is left as-is rather than guessed at.
var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripMarkup turns an HTML-encoded legacy body into plain text: tags
// removed, known entities decoded, whitespace collapsed.
func StripMarkup(body string) string {
	var b strings.Builder
	b.Grow(len(body))
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
			// Tag boundaries act as separators so "<p>a</p><p>b</p>"
			// does not fuse into "ab".
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return collapseWhitespace(entities.Replace(b.String()))
}

// WrapMarkup re-encodes plain text as the minimal markup wrapper the
// legacy message table expects.
func WrapMarkup(text string) string {
	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(text)
	return "<p>" + escaped + "</p>"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
