// Package sourcelabel derives a client label from a tweet's source
// field.
package sourcelabel

import (
	"strings"

	"golang.org/x/net/html"
)

// Parse extracts the visible text of the HTML anchor Twitter serves in
// the source field ("<a href=...>Twitter for iPhone</a>"). Values
// without markup come back trimmed but otherwise unchanged.
func Parse(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to the raw value if parsing fails
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
