// Package ingestion turns the markdown content directory into embedded chunks for retrieval.
package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyContent is returned by ParseMarkdown for documents without a body
var ErrEmptyContent = errors.New("document has no content")

// Frontmatter is the YAML header of a content document
type Frontmatter struct {
	Title         string `yaml:"title"`
	Category      string `yaml:"category"`
	ChunkStrategy string `yaml:"chunk_strategy"`
	ContextPrefix string `yaml:"context_prefix"`
	// Raw holds every frontmatter key, including the ones above
	Raw map[string]any `yaml:"-"`
}

// Document is a parsed markdown file
type Document struct {
	Path        string
	Frontmatter Frontmatter
	Content     string
}

// Chunks splits the document using its frontmatter strategy (paragraph by default)
func (d *Document) Chunks() []string {
	strategy := d.Frontmatter.ChunkStrategy
	if strategy == "" {
		strategy = StrategyParagraph
	}
	return ChunkContent(d.Content, strategy, d.Frontmatter.ContextPrefix)
}

// FindMarkdownFiles returns every .md file below root, sorted
func FindMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ParseMarkdown splits a document into YAML frontmatter and cleaned body.
// A document without a "---" header is all body.
func ParseMarkdown(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var doc Document
	if rest, ok := strings.CutPrefix(text, "---\n"); ok {
		header, body, found := cutFrontmatter(rest)
		if !found {
			return nil, fmt.Errorf("unterminated frontmatter")
		}
		if err := yaml.Unmarshal([]byte(header), &doc.Frontmatter); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
		if err := yaml.Unmarshal([]byte(header), &doc.Frontmatter.Raw); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
		text = body
	}

	doc.Content = CleanText(text)
	if doc.Content == "" {
		return nil, ErrEmptyContent
	}
	return &doc, nil
}

// cutFrontmatter splits s at the closing "---" line
func cutFrontmatter(s string) (header, body string, found bool) {
	if strings.HasPrefix(s, "---\n") || s == "---" {
		return "", strings.TrimPrefix(s, "---"), true
	}
	if i := strings.Index(s, "\n---\n"); i >= 0 {
		return s[:i], s[i+len("\n---\n"):], true
	}
	if strings.HasSuffix(s, "\n---") {
		return strings.TrimSuffix(s, "\n---"), "", true
	}
	return "", "", false
}

// ReadMarkdownFile reads and parses one file
func ReadMarkdownFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := ParseMarkdown(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}
