package insights

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips HTML markup from an archive snippet and collapses
// whitespace. Arquivo highlights matches with <em> tags and escapes entities.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
