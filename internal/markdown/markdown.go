// Package markdown renders post bodies to HTML via Goldmark.
//
// Code blocks are semantically significant for this pipeline: embedded samples
// show exact call sequences, so their content must survive rendering
// byte-for-byte (HTML-escaped, never reflowed). Render refuses bodies with an
// unterminated code fence rather than silently closing the fence at EOF.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeSegment is a literal code block extracted from a body.
type CodeSegment struct {
	Language string
	Content  []byte
}

// Render converts a Markdown body (frontmatter already removed) to HTML.
//
// Fence validation runs first; see ValidateFences.
func Render(body []byte) ([]byte, error) {
	if err := ValidateFences(body); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := goldmark.New().Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CodeSegments parses a body and extracts every code block's literal content.
//
// The returned content is the exact authored bytes, used to verify that
// rendering never altered a sample.
func CodeSegments(body []byte) ([]CodeSegment, error) {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var segments []CodeSegment
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.FencedCodeBlock:
			segments = append(segments, CodeSegment{
				Language: string(node.Language(body)),
				Content:  linesContent(node, body),
			})
		case *gmast.CodeBlock:
			segments = append(segments, CodeSegment{Content: linesContent(node, body)})
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func linesContent(n gmast.Node, source []byte) []byte {
	var out []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}
