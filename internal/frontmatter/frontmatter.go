package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a frontmatter delimiter, had is false
// and body is the full input. Both LF and CRLF documents are accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]

	// An immediately closed block is valid and empty.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A close delimiter at EOF without a trailing newline still counts.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			fm := rest[:len(rest)-len(tail)+len(nl)]
			return fm, []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	fm := rest[:idx+len(nl)]
	return fm, rest[idx+len(closeSeq):], true, nil
}

// Parse decodes raw YAML frontmatter (without --- delimiters) into a map.
func Parse(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
