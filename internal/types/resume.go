// Package types provides type definitions for structured data used throughout the resume site.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ContactInfo holds the contact line shown under the name
type ContactInfo struct {
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// Education represents one degree entry
type Education struct {
	ID             string `json:"id"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	Degree         string `json:"degree"`
	Certificate    string `json:"certificate,omitempty"`
	GraduationDate string `json:"graduationDate"`
	Coursework     string `json:"coursework,omitempty"`
	GPA            string `json:"gpa,omitempty"`
}

// SkillCategory groups skills under a heading
type SkillCategory struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// Bullet is a single fact scoped to one experience or project.
// Bullet IDs are unique across the whole base corpus and are used as selection keys by variants.
type Bullet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Experience represents a role at a company
type Experience struct {
	ID       string   `json:"id"`
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Dates    string   `json:"dates"`
	Bullets  []Bullet `json:"bullets"`
}

// Project represents a side project
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Dates       string   `json:"dates"`
	Bullets     []Bullet `json:"bullets"`
}

// ResumeData is the complete base resume content
type ResumeData struct {
	Name       string          `json:"name"`
	Contact    ContactInfo     `json:"contact"`
	Education  []Education     `json:"education"`
	Skills     []SkillCategory `json:"skills"`
	Experience []Experience    `json:"experience"`
	Projects   []Project       `json:"projects"`
}

// ExpansionData is an optional "read more" detail keyed to an experience, project or education id
type ExpansionData struct {
	SectionID          string `json:"sectionId"`
	Trigger            string `json:"trigger"`
	Content            string `json:"content"`
	BridgeToChatPrompt string `json:"bridgeToChatPrompt,omitempty"`
}

// ChatConfig holds the chat settings a variant contributes
type ChatConfig struct {
	SuggestedPrompts     []string `json:"suggestedPrompts"`
	SystemPromptAddendum string   `json:"systemPromptAddendum,omitempty"`
}

// VariantExperienceConfig lists the bullet IDs to show for one entity, in display order
type VariantExperienceConfig struct {
	Bullets []string `json:"bullets"`
}

// VariantExpansion overrides fields of the base expansion with the same section ID.
// Nil fields keep the base value.
type VariantExpansion struct {
	Trigger            *string `json:"trigger,omitempty"`
	Content            *string `json:"content,omitempty"`
	BridgeToChatPrompt *string `json:"bridgeToChatPrompt,omitempty"`
}

// ResumeVariant is a declarative selection over the base content
type ResumeVariant struct {
	Slug       string                             `json:"slug"`
	Label      string                             `json:"label"`
	Experience map[string]VariantExperienceConfig `json:"experience"` // entity ID -> config
	Expansions map[string]VariantExpansion        `json:"expansions"` // section ID -> override
	Chat       ChatConfig                         `json:"chat"`
}

// VariantSummary identifies a registered variant
type VariantSummary struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// MergedResumeData is the base resume with a variant's selections applied
type MergedResumeData struct {
	ResumeData
	Variant    VariantSummary  `json:"variant"`
	Expansions []ExpansionData `json:"expansions"`
	ChatConfig ChatConfig      `json:"chatConfig"`
}

// Expansion returns the resolved expansion for a section, if any
func (m *MergedResumeData) Expansion(sectionID string) (ExpansionData, bool) {
	for _, e := range m.Expansions {
		if e.SectionID == sectionID {
			return e, true
		}
	}
	return ExpansionData{}, false
}
