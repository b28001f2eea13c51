package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = []byte("---")

// Template is a template file split into frontmatter metadata and body.
type Template struct {
	Metadata map[string]any
	Body     string
}

// ParseTemplate splits optional YAML frontmatter from the template body.
// Frontmatter must open on the first line and close with a line that holds
// only "---".
func ParseTemplate(content []byte) (*Template, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	first, rest, _ := cutLine(content)
	if !bytes.Equal(bytes.TrimSpace(first), frontmatterDelimiter) {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	var front []byte
	for len(rest) > 0 {
		var line []byte
		var found bool
		line, rest, found = cutLine(rest)
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelimiter) {
			metadata := map[string]any{}
			if len(bytes.TrimSpace(front)) > 0 {
				if err := yaml.Unmarshal(front, &metadata); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
				}
			}
			return &Template{Metadata: metadata, Body: string(rest)}, nil
		}
		front = append(front, line...)
		if found {
			front = append(front, '\n')
		}
	}

	return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
}

// cutLine splits off the first line, dropping its "\n" or "\r\n" terminator.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}
