package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// bodyOffset returns the offset just after a leading YAML frontmatter block (a "---" line, YAML, and a closing "---" line), or 0 if text has none.
func bodyOffset(text string) int {
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimRight(first, "\r") != "---" {
		return 0
	}
	offset := len(first) + 1
	for len(rest) > 0 {
		line, next, found := strings.Cut(rest, "\n")
		offset += len(line)
		if found {
			offset++
		}
		if strings.TrimRight(line, "\r") == "---" {
			return offset
		}
		rest = next
	}
	return 0
}

// Body returns the scope of the text after the frontmatter (the whole text if there is none).
func (d *Document) Body() Scope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Scope{From: bodyOffset(d.text), To: len(d.text)}
}

// Frontmatter parses the frontmatter as a YAML mapping. It returns nil, nil if there is no frontmatter.
func (d *Document) Frontmatter() (map[string]any, error) {
	d.mu.Lock()
	text := d.text
	d.mu.Unlock()

	end := bodyOffset(text)
	if end == 0 {
		return nil, nil
	}
	raw := text[strings.Index(text, "\n")+1 : end]
	raw = strings.TrimSuffix(strings.TrimRight(raw, "\r\n"), "---")

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, fmt.Errorf("document: frontmatter is invalid YAML: %w", err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, nil
}
