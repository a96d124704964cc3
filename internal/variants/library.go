// Package variants loads the base resume content and the variant registry, and resolves a
// variant slug into the merged document that is rendered and served.
package variants

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/jonathan/resume-site/internal/schemas"
	"github.com/jonathan/resume-site/internal/types"
	schemafiles "github.com/jonathan/resume-site/schemas"
	"go.uber.org/zap"
)

// DefaultSlug is the registry key used when no other default is configured
const DefaultSlug = "default"

const (
	baseFile    = "base.json"
	variantGlob = "variants/*.json"
)

//go:embed data
var embedded embed.FS

// ErrNoDefaultVariant is returned by Load when the registry lacks the default variant
var ErrNoDefaultVariant = errors.New("default variant not registered")

// DuplicateIDError reports an id that must be unique but appears more than once
type DuplicateIDError struct {
	Kind string
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %q", e.Kind, e.ID)
}

// DataFS returns the content shipped with the binary, rooted so that base.json is at the top.
func DataFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(fmt.Sprintf("variants: embedded data missing: %v", err))
	}
	return sub
}

// Library is the read-only content library: base resume, base expansions and variant registry.
// It is built once by Load and is safe for concurrent use.
type Library struct {
	base        types.ResumeData
	expansions  []types.ExpansionData
	variants    map[string]types.ResumeVariant
	defaultSlug string
	dangling    map[string][]string
}

type baseDocument struct {
	Resume     types.ResumeData      `json:"resume"`
	Expansions []types.ExpansionData `json:"expansions"`
}

type loadOptions struct {
	logger *zap.Logger
}

// Option configures Load
type Option func(*loadOptions)

// WithLogger sets the logger that receives load diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load reads base.json and every variants/*.json document from fsys, validates them against the
// embedded schemas and builds the library. An empty defaultSlug means DefaultSlug.
func Load(fsys fs.FS, defaultSlug string, opts ...Option) (*Library, error) {
	o := loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if defaultSlug == "" {
		defaultSlug = DefaultSlug
	}

	var base baseDocument
	if err := readDocument(fsys, baseFile, schemafiles.ResumeBase, &base); err != nil {
		return nil, err
	}
	if err := checkBase(&base); err != nil {
		return nil, fmt.Errorf("%s: %w", baseFile, err)
	}

	files, err := fs.Glob(fsys, variantGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}

	registry := make(map[string]types.ResumeVariant, len(files))
	for _, name := range files {
		var v types.ResumeVariant
		if err := readDocument(fsys, name, schemafiles.Variant, &v); err != nil {
			return nil, err
		}
		if _, exists := registry[v.Slug]; exists {
			return nil, fmt.Errorf("%s: %w", name, &DuplicateIDError{Kind: "variant slug", ID: v.Slug})
		}
		registry[v.Slug] = v
	}

	if _, ok := registry[defaultSlug]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoDefaultVariant, defaultSlug)
	}

	lib := &Library{
		base:        base.Resume,
		expansions:  base.Expansions,
		variants:    registry,
		defaultSlug: defaultSlug,
	}
	lib.dangling = lib.findDangling()
	for slug, ids := range lib.dangling {
		o.logger.Warn("variant references unknown bullets",
			zap.String("variant", slug),
			zap.Strings("bullet_ids", ids))
	}

	o.logger.Debug("content library loaded",
		zap.Int("experiences", len(base.Resume.Experience)),
		zap.Int("projects", len(base.Resume.Projects)),
		zap.Int("expansions", len(base.Expansions)),
		zap.Int("variants", len(registry)))

	return lib, nil
}

// LoadDir loads a library from a directory on disk
func LoadDir(dir, defaultSlug string, opts ...Option) (*Library, error) {
	return Load(os.DirFS(dir), defaultSlug, opts...)
}

func readDocument(fsys fs.FS, name, schemaName string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := schemas.ValidateDocument(schemaName, name, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func checkBase(doc *baseDocument) error {
	entities := make(map[string]bool)
	bullets := make(map[string]bool)

	addEntity := func(id string) error {
		if entities[id] {
			return &DuplicateIDError{Kind: "entity", ID: id}
		}
		entities[id] = true
		return nil
	}
	addBullets := func(list []types.Bullet) error {
		for _, b := range list {
			if bullets[b.ID] {
				return &DuplicateIDError{Kind: "bullet", ID: b.ID}
			}
			bullets[b.ID] = true
		}
		return nil
	}

	for _, ed := range doc.Resume.Education {
		if err := addEntity(ed.ID); err != nil {
			return err
		}
	}
	for _, exp := range doc.Resume.Experience {
		if err := addEntity(exp.ID); err != nil {
			return err
		}
		if err := addBullets(exp.Bullets); err != nil {
			return err
		}
	}
	for _, p := range doc.Resume.Projects {
		if err := addEntity(p.ID); err != nil {
			return err
		}
		if err := addBullets(p.Bullets); err != nil {
			return err
		}
	}

	sections := make(map[string]bool, len(doc.Expansions))
	for _, e := range doc.Expansions {
		if sections[e.SectionID] {
			return &DuplicateIDError{Kind: "expansion section", ID: e.SectionID}
		}
		sections[e.SectionID] = true
	}
	return nil
}

// findDangling collects, per variant, the selected bullet ids that the entity they are listed
// under does not have.
func (l *Library) findDangling() map[string][]string {
	owned := make(map[string]map[string]bool)
	collect := func(entityID string, list []types.Bullet) {
		ids := make(map[string]bool, len(list))
		for _, b := range list {
			ids[b.ID] = true
		}
		owned[entityID] = ids
	}
	for _, exp := range l.base.Experience {
		collect(exp.ID, exp.Bullets)
	}
	for _, p := range l.base.Projects {
		collect(p.ID, p.Bullets)
	}

	out := make(map[string][]string)
	for slug, v := range l.variants {
		var missing []string
		for entityID, cfg := range v.Experience {
			for _, id := range cfg.Bullets {
				if !owned[entityID][id] {
					missing = append(missing, id)
				}
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			out[slug] = missing
		}
	}
	return out
}

// DefaultSlug returns the slug that unknown slugs fall back to
func (l *Library) DefaultSlug() string {
	return l.defaultSlug
}

// Variants lists the registered variants sorted by slug
func (l *Library) Variants() []types.VariantSummary {
	out := make([]types.VariantSummary, 0, len(l.variants))
	for _, v := range l.variants {
		out = append(out, types.VariantSummary{Slug: v.Slug, Label: v.Label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Variant returns a copy of the registered variant with the given slug
func (l *Library) Variant(slug string) (types.ResumeVariant, bool) {
	v, ok := l.variants[slug]
	if !ok {
		return types.ResumeVariant{}, false
	}
	return cloneVariant(v), true
}

// SystemPromptAddendum returns the static chat prompt addendum of a variant, falling back to
// the default variant for unknown slugs.
func (l *Library) SystemPromptAddendum(slug string) string {
	return l.lookup(slug).Chat.SystemPromptAddendum
}

// DanglingBulletIDs returns, per variant slug, the selected bullet ids that do not resolve.
// Variants without dangling ids are absent from the map.
func (l *Library) DanglingBulletIDs() map[string][]string {
	out := make(map[string][]string, len(l.dangling))
	for slug, ids := range l.dangling {
		out[slug] = append([]string(nil), ids...)
	}
	return out
}

func (l *Library) lookup(slug string) types.ResumeVariant {
	if v, ok := l.variants[slug]; ok {
		return v
	}
	return l.variants[l.defaultSlug]
}
