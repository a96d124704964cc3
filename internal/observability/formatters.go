// Package observability provides the zap logger and formatted summaries for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-site/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer renders resolved resumes as boxed plain-text summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4)))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func pad(s string) string {
	if n := boxWidth - 4 - utf8.RuneCountInString(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// PrintResume outputs the header, experience, projects and expansions of a merged resume.
func (p *Printer) PrintResume(m *types.MergedResumeData) {
	if m == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", m.Name))
	sb.WriteString(fmt.Sprintf("Variant:  %s (%s)\n", m.Variant.Label, m.Variant.Slug))
	if m.Contact.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", m.Contact.Email))
	}
	sb.WriteString(fmt.Sprintf("Education: %d  Skills: %d categories", len(m.Education), len(m.Skills)))
	p.printBox("RESOLVED RESUME", sb.String())

	p.PrintExperience(m.Experience)
	p.PrintProjects(m.Projects)
	p.PrintExpansions(m.Expansions)
	p.PrintChatConfig(m.ChatConfig)
}

// PrintExperience outputs each role with its selected bullets.
func (p *Printer) PrintExperience(experience []types.Experience) {
	if len(experience) == 0 {
		return
	}

	var sb strings.Builder
	for i, exp := range experience {
		sb.WriteString(fmt.Sprintf("%s, %s  [%s]\n", exp.Title, exp.Company, exp.ID))
		writeBullets(&sb, exp.Bullets)
		if i < len(experience)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("EXPERIENCE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProjects outputs each project with its selected bullets.
func (p *Printer) PrintProjects(projects []types.Project) {
	if len(projects) == 0 {
		return
	}

	var sb strings.Builder
	for i, proj := range projects {
		sb.WriteString(fmt.Sprintf("%s  [%s]\n", proj.Name, proj.ID))
		writeBullets(&sb, proj.Bullets)
		if i < len(projects)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PROJECTS", strings.TrimSuffix(sb.String(), "\n"))
}

func writeBullets(sb *strings.Builder, bullets []types.Bullet) {
	if len(bullets) == 0 {
		sb.WriteString("  (no bullets selected)\n")
		return
	}
	count := min(len(bullets), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", bullets[i].ID))
	}
	if len(bullets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(bullets)-maxItemsToShow))
	}
}

// PrintExpansions outputs the expansion triggers, flagging the ones that bridge into chat.
func (p *Printer) PrintExpansions(expansions []types.ExpansionData) {
	if len(expansions) == 0 {
		return
	}

	var sb strings.Builder
	for _, e := range expansions {
		marker := " "
		if e.BridgeToChatPrompt != "" {
			marker = "→"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", marker, e.SectionID, e.Trigger))
	}

	p.printBox("EXPANSIONS (→ opens chat)", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintChatConfig outputs the suggested prompts and whether an addendum is set.
func (p *Printer) PrintChatConfig(cfg types.ChatConfig) {
	var sb strings.Builder
	if len(cfg.SuggestedPrompts) == 0 {
		sb.WriteString("No suggested prompts\n")
	}
	for _, prompt := range cfg.SuggestedPrompts {
		sb.WriteString(fmt.Sprintf("  • %s\n", prompt))
	}
	if cfg.SystemPromptAddendum != "" {
		sb.WriteString("\nSystem prompt addendum: yes")
	}

	p.printBox("CHAT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDanglingBullets outputs variant bullet ids that do not resolve to a base bullet.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDanglingBullets(dangling map[string][]string) {
	if len(dangling) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad("✅ ALL VARIANT BULLET IDS RESOLVE"))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	slugs := make([]string, 0, len(dangling))
	total := 0
	for slug, ids := range dangling {
		slugs = append(slugs, slug)
		total += len(ids)
	}
	sort.Strings(slugs)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d unresolved bullet ids:\n\n", total))
	for i, slug := range slugs {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", slug))
		for _, id := range dangling[slug] {
			sb.WriteString(fmt.Sprintf("  %s\n", id))
		}
		if i < len(slugs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("DANGLING BULLET IDS", strings.TrimSuffix(sb.String(), "\n"))
}
