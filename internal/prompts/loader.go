// Package prompts holds the prompt texts sent to the language model and shown to visitors.
// Each embedded *.json file is an object of key -> text; all of them are parsed on first use.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Prompt files
const (
	ChatFile = "chat.json"
	RAGFile  = "rag.json"
)

//go:embed *.json
var promptFiles embed.FS

// Set is a parsed collection of prompt files, keyed by file name
type Set map[string]map[string]string

// Parse reads every *.json file at the root of fsys
func Parse(fsys fs.FS) (Set, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	set := make(Set, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		set[name] = entries
	}
	return set, nil
}

// Get returns the prompt stored under key in file
func (s Set) Get(file, key string) (string, error) {
	entries, ok := s[file]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", file)
	}
	text, ok := entries[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return text, nil
}

// Keys returns the prompt keys of file in sorted order
func (s Set) Keys(file string) []string {
	return slices.Sorted(maps.Keys(s[file]))
}

var embeddedSet = sync.OnceValues(func() (Set, error) {
	return Parse(promptFiles)
})

// Embedded returns the prompt set compiled into the binary
func Embedded() (Set, error) {
	return embeddedSet()
}

// Get returns the embedded prompt stored under key in the named file (e.g. "chat.json").
func Get(file, key string) (string, error) {
	set, err := embeddedSet()
	if err != nil {
		return "", err
	}
	return set.Get(file, key)
}

// MustGet is Get for prompts that must exist at startup. It panics when the prompt is missing.
func MustGet(file, key string) string {
	text, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("prompts: %v", err))
	}
	return text
}

// Format replaces {{.Key}} placeholders with values from data.
// Unknown placeholders are left in place.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ChatSystemPrompt builds the system instruction for /api/chat: the fixed persona prompt,
// followed by the variant's addendum when it has one.
func ChatSystemPrompt(addendum string) string {
	system := MustGet(ChatFile, "system")
	addendum = strings.TrimSpace(addendum)
	if addendum == "" {
		return system
	}
	return system + Format(MustGet(ChatFile, "variant-addendum"), map[string]string{"Addendum": addendum})
}
