package export

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment, entities decoded.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
