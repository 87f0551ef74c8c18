package site

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

const maxExcerptLen = 200

// extractExcerpt pulls the text of the first paragraph out of rendered HTML
// for display on the index page. Code blocks never contribute to excerpts.
func extractExcerpt(rendered []byte) string {
	doc, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return ""
	}

	p := findFirst(doc, "p")
	if p == nil {
		return ""
	}

	text := strings.Join(strings.Fields(nodeText(p)), " ")
	if len(text) > maxExcerptLen {
		cut := strings.LastIndex(text[:maxExcerptLen], " ")
		if cut <= 0 {
			cut = maxExcerptLen
		}
		text = text[:cut] + "…"
	}
	return text
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
