package variants

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jonathan/resume-site/internal/schemas"
	"github.com/jonathan/resume-site/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const fixtureBase = `{
  "resume": {
    "name": "Test Person",
    "contact": {"email": "test@example.com"},
    "education": [{"id": "school", "institution": "School", "degree": "BA", "graduationDate": "2020"}],
    "skills": [{"category": "Languages", "skills": ["Go", "SQL"]}],
    "experience": [
      {"id": "acme", "company": "Acme", "title": "Engineer", "dates": "2021", "bullets": [
        {"id": "a1", "text": "first"},
        {"id": "a2", "text": "second"},
        {"id": "a3", "text": "third"}
      ]},
      {"id": "globex", "company": "Globex", "title": "Analyst", "dates": "2019", "bullets": [
        {"id": "g1", "text": "only"}
      ]}
    ],
    "projects": [
      {"id": "side", "name": "Side", "dates": "2024", "bullets": [
        {"id": "s1", "text": "build"},
        {"id": "s2", "text": "ship"}
      ]}
    ]
  },
  "expansions": [
    {"sectionId": "acme", "trigger": "Why Acme?", "content": "Base content", "bridgeToChatPrompt": "Tell me about Acme"},
    {"sectionId": "school", "trigger": "School?", "content": "Learned things"},
    {"sectionId": "orphan", "trigger": "Orphan?", "content": "Kept anyway"}
  ]
}`

const fixtureDefault = `{
  "slug": "default",
  "label": "Default",
  "experience": {
    "acme": {"bullets": ["a3", "a1"]}
  },
  "chat": {"suggestedPrompts": ["Hello"]}
}`

const fixtureFocused = `{
  "slug": "focused",
  "label": "Focused",
  "experience": {
    "acme": {"bullets": ["a2", "missing", "g1"]},
    "side": {"bullets": ["s2"]},
    "nowhere": {"bullets": ["x1"]}
  },
  "expansions": {
    "acme": {"trigger": "Overridden trigger"},
    "unknown-section": {"content": "ignored"}
  },
  "chat": {"suggestedPrompts": ["Focus?"], "systemPromptAddendum": "Focus on depth."}
}`

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"base.json":             {Data: []byte(fixtureBase)},
		"variants/default.json": {Data: []byte(fixtureDefault)},
		"variants/focused.json": {Data: []byte(fixtureFocused)},
	}
}

func loadFixture(t *testing.T) *Library {
	t.Helper()
	lib, err := Load(fixtureFS(), "")
	require.NoError(t, err)
	return lib
}

func TestLoad_Embedded(t *testing.T) {
	lib, err := Load(DataFS(), DefaultSlug)
	require.NoError(t, err)

	assert.Equal(t, DefaultSlug, lib.DefaultSlug())
	assert.Empty(t, lib.DanglingBulletIDs())

	summaries := lib.Variants()
	require.NotEmpty(t, summaries)
	assert.Contains(t, summaries, types.VariantSummary{Slug: "default", Label: "AI Product Engineer"})
}

func TestLoad_RegistrySortedBySlug(t *testing.T) {
	lib := loadFixture(t)

	summaries := lib.Variants()
	require.Len(t, summaries, 2)
	assert.Equal(t, "default", summaries[0].Slug)
	assert.Equal(t, "focused", summaries[1].Slug)
	assert.Equal(t, "Focused", summaries[1].Label)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(fstest.MapFS)
		slug    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "missing base",
			mutate: func(m fstest.MapFS) { delete(m, "base.json") },
			wantErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "base.json")
			},
		},
		{
			name: "missing default",
			slug: "nonexistent",
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrNoDefaultVariant))
			},
		},
		{
			name: "duplicate slug",
			mutate: func(m fstest.MapFS) {
				m["variants/copy.json"] = &fstest.MapFile{Data: []byte(fixtureDefault)}
			},
			wantErr: func(t *testing.T, err error) {
				var dup *DuplicateIDError
				require.True(t, errors.As(err, &dup))
				assert.Equal(t, "variant slug", dup.Kind)
				assert.Equal(t, "default", dup.ID)
			},
		},
		{
			name: "duplicate bullet across entities",
			mutate: func(m fstest.MapFS) {
				m["base.json"] = &fstest.MapFile{Data: []byte(`{
				  "resume": {"name": "X", "contact": {"email": "x@y"}, "education": [], "skills": [],
				    "experience": [{"id": "e1", "company": "C", "title": "T", "dates": "D", "bullets": [{"id": "b1", "text": "t"}]}],
				    "projects": [{"id": "p1", "name": "P", "dates": "D", "bullets": [{"id": "b1", "text": "t"}]}]},
				  "expansions": []}`)}
			},
			wantErr: func(t *testing.T, err error) {
				var dup *DuplicateIDError
				require.True(t, errors.As(err, &dup))
				assert.Equal(t, "bullet", dup.Kind)
				assert.Equal(t, "b1", dup.ID)
			},
		},
		{
			name: "duplicate entity id",
			mutate: func(m fstest.MapFS) {
				m["base.json"] = &fstest.MapFile{Data: []byte(`{
				  "resume": {"name": "X", "contact": {"email": "x@y"}, "education": [], "skills": [],
				    "experience": [{"id": "e1", "company": "C", "title": "T", "dates": "D", "bullets": []}],
				    "projects": [{"id": "e1", "name": "P", "dates": "D", "bullets": []}]},
				  "expansions": []}`)}
			},
			wantErr: func(t *testing.T, err error) {
				var dup *DuplicateIDError
				require.True(t, errors.As(err, &dup))
				assert.Equal(t, "entity", dup.Kind)
			},
		},
		{
			name: "duplicate expansion section",
			mutate: func(m fstest.MapFS) {
				m["base.json"] = &fstest.MapFile{Data: []byte(`{
				  "resume": {"name": "X", "contact": {"email": "x@y"}, "education": [], "skills": [], "experience": [], "projects": []},
				  "expansions": [
				    {"sectionId": "s", "trigger": "t", "content": "c"},
				    {"sectionId": "s", "trigger": "t2", "content": "c2"}
				  ]}`)}
			},
			wantErr: func(t *testing.T, err error) {
				var dup *DuplicateIDError
				require.True(t, errors.As(err, &dup))
				assert.Equal(t, "expansion section", dup.Kind)
			},
		},
		{
			name: "variant fails schema",
			mutate: func(m fstest.MapFS) {
				m["variants/bad.json"] = &fstest.MapFile{Data: []byte(`{"slug": "Bad Slug", "label": "x", "chat": {"suggestedPrompts": []}}`)}
			},
			wantErr: func(t *testing.T, err error) {
				var ve *schemas.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "variants/bad.json", ve.Document)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fixtureFS()
			if tt.mutate != nil {
				tt.mutate(fsys)
			}
			lib, err := Load(fsys, tt.slug)
			require.Error(t, err)
			assert.Nil(t, lib)
			tt.wantErr(t, err)
		})
	}
}

func TestLoad_DanglingIDsAreWarnedNotFatal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	lib, err := Load(fixtureFS(), "", WithLogger(zap.New(core)))
	require.NoError(t, err)

	dangling := lib.DanglingBulletIDs()
	assert.Equal(t, map[string][]string{"focused": {"g1", "missing", "x1"}}, dangling)

	entries := logs.FilterMessage("variant references unknown bullets").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "focused", entries[0].ContextMap()["variant"])
}

func TestDanglingBulletIDs_ReturnsCopy(t *testing.T) {
	lib := loadFixture(t)

	first := lib.DanglingBulletIDs()
	first["focused"][0] = "changed"
	delete(first, "focused")

	assert.Equal(t, []string{"g1", "missing", "x1"}, lib.DanglingBulletIDs()["focused"])
}

func TestVariant(t *testing.T) {
	lib := loadFixture(t)

	v, ok := lib.Variant("focused")
	require.True(t, ok)
	assert.Equal(t, []string{"a2", "missing", "g1"}, v.Experience["acme"].Bullets)

	// mutating the copy does not reach the registry
	v.Experience["acme"].Bullets[0] = "zzz"
	*v.Expansions["acme"].Trigger = "mutated"
	again, _ := lib.Variant("focused")
	assert.Equal(t, "a2", again.Experience["acme"].Bullets[0])
	assert.Equal(t, "Overridden trigger", *again.Expansions["acme"].Trigger)

	_, ok = lib.Variant("nope")
	assert.False(t, ok)
}

func TestSystemPromptAddendum(t *testing.T) {
	lib := loadFixture(t)

	assert.Equal(t, "Focus on depth.", lib.SystemPromptAddendum("focused"))
	assert.Empty(t, lib.SystemPromptAddendum("default"))
	assert.Empty(t, lib.SystemPromptAddendum("unknown"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "base.json", fixtureBase)
	writeFixture(t, dir, "variants/default.json", fixtureDefault)

	lib, err := LoadDir(dir, "default")
	require.NoError(t, err)
	assert.Len(t, lib.Variants(), 1)
}
