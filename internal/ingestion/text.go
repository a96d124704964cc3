package ingestion

import (
	"regexp"
	"strings"
)

// Chunk strategies accepted in frontmatter
const (
	StrategyWhole     = "whole"
	StrategyParagraph = "paragraph"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	bulletStart = []string{"- ", "* ", "• "}
)

// CleanText normalizes markdown content: LF line endings, no trailing whitespace, runs of
// spaces collapsed outside indentation, and at most one blank line between paragraphs.
// Headings and list items keep their markers.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine keeps the leading indentation of a line and collapses the spaces after it
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	// Headings are never indented in the output
	if strings.HasPrefix(trimmed, "#") {
		return innerSpace.ReplaceAllString(trimmed, " ")
	}
	indent := len(line) - len(trimmed)
	return strings.Repeat(" ", indent) + innerSpace.ReplaceAllString(trimmed, " ")
}

// isBulletLine checks if a line is a list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, marker := range bulletStart {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// ChunkContent splits content by strategy and prepends prefix to every chunk.
// "whole" keeps the content as one chunk; "paragraph" and unknown strategies split on blank lines.
func ChunkContent(content, strategy, prefix string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var chunks []string
	if strategy == StrategyWhole {
		chunks = []string{content}
	} else {
		for _, p := range strings.Split(content, "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				chunks = append(chunks, p)
			}
		}
	}

	if prefix != "" {
		for i := range chunks {
			chunks[i] = prefix + chunks[i]
		}
	}
	return chunks
}

// CountBullets returns the number of list items in content
func CountBullets(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if isBulletLine(line) {
			n++
		}
	}
	return n
}
