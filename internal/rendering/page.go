package rendering

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/jonathan/resume-site/internal/prompts"
	"github.com/jonathan/resume-site/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageData is the data passed to the page template
type PageData struct {
	Resume     *types.MergedResumeData
	Experience []EntrySection
	Projects   []EntrySection
	Education  []EducationSection
	Variants   []VariantLink
	State      ExpansionState
	ChatPath   string
	// InitialPrompt is submitted to the chat once when the page loads
	InitialPrompt string
	Welcome       string
	Fallback      string
}

// EntrySection is one experience or project with its resolved expansion
type EntrySection struct {
	ID       string
	Heading  string
	Subtitle string
	Dates    string
	Bullets  []types.Bullet
	Detail   *ExpansionView
}

// EducationSection is one education entry with its resolved expansion
type EducationSection struct {
	types.Education
	Detail *ExpansionView
}

// ExpansionView is an expansion as rendered
type ExpansionView struct {
	types.ExpansionData
	Open bool
	// ToggleURL opens this expansion, or closes it when it is open
	ToggleURL string
	// BridgeURL reloads the page with the bridge prompt submitted to the chat
	BridgeURL string
}

// VariantLink points at another variant of the page
type VariantLink struct {
	types.VariantSummary
	Href    string
	Current bool
}

// Renderer renders the resume page. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, &TemplateError{Op: "parse", Err: err}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for a merged resume
func (r *Renderer) Render(w io.Writer, data *PageData) error {
	if data == nil || data.Resume == nil {
		return ErrNoResume
	}
	if err := r.tmpl.ExecuteTemplate(w, "page.html.tmpl", data); err != nil {
		return &TemplateError{Op: "execute", Err: err}
	}
	return nil
}

// BuildPageData constructs the template data for a merged resume, the registered variants and
// the current expansion state. Pages are served from "/" + slug.
func BuildPageData(m *types.MergedResumeData, variants []types.VariantSummary, state ExpansionState, chatPath string) *PageData {
	data := &PageData{
		Resume:   m,
		State:    state,
		ChatPath: chatPath,
		Welcome:  prompts.MustGet(prompts.ChatFile, "welcome"),
		Fallback: types.ChatFallbackMessage,
	}

	pagePath := "/" + m.Variant.Slug
	expansion := func(id string) *ExpansionView {
		e, ok := m.Expansion(id)
		if !ok {
			return nil
		}
		next := state.Toggle(id)
		q := url.Values{}
		if next.OpenID != "" {
			q.Set("open", next.OpenID)
		}
		if seen := next.Seen(); seen != "" {
			q.Set("seen", seen)
		}
		view := &ExpansionView{
			ExpansionData: e,
			Open:          state.IsOpen(id),
			ToggleURL:     pagePath + "?" + q.Encode() + "#" + id,
		}
		if e.BridgeToChatPrompt != "" {
			view.BridgeURL = pagePath + "?" + url.Values{"ask": {e.BridgeToChatPrompt}}.Encode() + "#chat"
		}
		return view
	}

	for _, exp := range m.Experience {
		data.Experience = append(data.Experience, EntrySection{
			ID:       exp.ID,
			Heading:  exp.Company,
			Subtitle: joinNonEmpty(exp.Title, exp.Location),
			Dates:    exp.Dates,
			Bullets:  exp.Bullets,
			Detail:   expansion(exp.ID),
		})
	}
	for _, p := range m.Projects {
		data.Projects = append(data.Projects, EntrySection{
			ID:       p.ID,
			Heading:  p.Name,
			Subtitle: p.Description,
			Dates:    p.Dates,
			Bullets:  p.Bullets,
			Detail:   expansion(p.ID),
		})
	}
	for _, ed := range m.Education {
		data.Education = append(data.Education, EducationSection{
			Education: ed,
			Detail:    expansion(ed.ID),
		})
	}

	for _, v := range variants {
		data.Variants = append(data.Variants, VariantLink{
			VariantSummary: v,
			Href:           "/" + v.Slug,
			Current:        v.Slug == m.Variant.Slug,
		})
	}

	return data
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return fmt.Sprintf("%s · %s", a, b)
	}
}
