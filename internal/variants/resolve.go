package variants

import (
	"github.com/jonathan/resume-site/internal/types"
)

// Resolve merges the base content with the variant registered under slug. Unknown slugs resolve
// to the default variant. The result shares no memory with the library or with earlier results.
func (l *Library) Resolve(slug string) *types.MergedResumeData {
	v := l.lookup(slug)

	resume := cloneResume(l.base)
	for i := range resume.Experience {
		exp := &resume.Experience[i]
		if cfg, ok := v.Experience[exp.ID]; ok {
			exp.Bullets = selectBullets(exp.Bullets, cfg.Bullets)
		}
	}
	for i := range resume.Projects {
		p := &resume.Projects[i]
		if cfg, ok := v.Experience[p.ID]; ok {
			p.Bullets = selectBullets(p.Bullets, cfg.Bullets)
		}
	}

	expansions := make([]types.ExpansionData, 0, len(l.expansions))
	for _, e := range l.expansions {
		if override, ok := v.Expansions[e.SectionID]; ok {
			e = mergeExpansion(e, override)
		}
		expansions = append(expansions, e)
	}

	return &types.MergedResumeData{
		ResumeData: resume,
		Variant:    types.VariantSummary{Slug: v.Slug, Label: v.Label},
		Expansions: expansions,
		ChatConfig: types.ChatConfig{
			SuggestedPrompts:     cloneStrings(v.Chat.SuggestedPrompts),
			SystemPromptAddendum: v.Chat.SystemPromptAddendum,
		},
	}
}

// selectBullets keeps the bullets named in ids, in the order of ids. Ids the entity does not own
// are skipped.
func selectBullets(bullets []types.Bullet, ids []string) []types.Bullet {
	byID := make(map[string]types.Bullet, len(bullets))
	for _, b := range bullets {
		byID[b.ID] = b
	}
	out := make([]types.Bullet, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		b, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, b)
	}
	return out
}

func mergeExpansion(base types.ExpansionData, o types.VariantExpansion) types.ExpansionData {
	if o.Trigger != nil {
		base.Trigger = *o.Trigger
	}
	if o.Content != nil {
		base.Content = *o.Content
	}
	if o.BridgeToChatPrompt != nil {
		base.BridgeToChatPrompt = *o.BridgeToChatPrompt
	}
	return base
}

func cloneResume(r types.ResumeData) types.ResumeData {
	out := r
	out.Education = append([]types.Education(nil), r.Education...)

	out.Skills = make([]types.SkillCategory, len(r.Skills))
	for i, s := range r.Skills {
		out.Skills[i] = types.SkillCategory{Category: s.Category, Skills: cloneStrings(s.Skills)}
	}

	out.Experience = make([]types.Experience, len(r.Experience))
	for i, exp := range r.Experience {
		exp.Bullets = append([]types.Bullet(nil), exp.Bullets...)
		out.Experience[i] = exp
	}

	out.Projects = make([]types.Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Bullets = append([]types.Bullet(nil), p.Bullets...)
		out.Projects[i] = p
	}
	return out
}

func cloneVariant(v types.ResumeVariant) types.ResumeVariant {
	out := v
	out.Experience = make(map[string]types.VariantExperienceConfig, len(v.Experience))
	for id, cfg := range v.Experience {
		out.Experience[id] = types.VariantExperienceConfig{Bullets: cloneStrings(cfg.Bullets)}
	}
	out.Expansions = make(map[string]types.VariantExpansion, len(v.Expansions))
	for id, e := range v.Expansions {
		out.Expansions[id] = types.VariantExpansion{
			Trigger:            cloneStringPtr(e.Trigger),
			Content:            cloneStringPtr(e.Content),
			BridgeToChatPrompt: cloneStringPtr(e.BridgeToChatPrompt),
		}
	}
	out.Chat.SuggestedPrompts = cloneStrings(v.Chat.SuggestedPrompts)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
