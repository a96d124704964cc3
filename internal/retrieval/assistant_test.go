package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/jonathan/resume-site/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding" }

type fakeSearcher struct {
	results []db.SearchResult
	err     error
	model   string
	topK    int
}

func (f *fakeSearcher) SearchChunks(_ context.Context, _ []float32, model string, topK int) ([]db.SearchResult, error) {
	f.model, f.topK = model, topK
	return f.results, f.err
}

type textStream struct {
	text string
	done bool
}

func (s *textStream) Next() bool {
	if s.done {
		return false
	}
	s.done = true
	return true
}
func (s *textStream) Content() string { return s.text }
func (s *textStream) Err() error      { return nil }
func (s *textStream) Close() error    { return nil }

type fakeClient struct {
	answer string
	err    error
	got    llm.ChatRequest
	calls  int
}

func (f *fakeClient) StreamChat(_ context.Context, req llm.ChatRequest) (llm.ChatStream, error) {
	f.got = req
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &textStream{text: f.answer}, nil
}
func (f *fakeClient) Model() string { return "fake-chat" }
func (f *fakeClient) Close() error  { return nil }

func sampleChunks() []db.SearchResult {
	return []db.SearchResult{
		{ChunkID: 1, Content: "Built BERT models at Meta", SourceFile: "experience/meta.md", Distance: 0.1},
		{ChunkID: 2, Content: "Budget Buddy is a finance app", SourceFile: "projects/budget-buddy.md", Distance: 0.2},
		{ChunkID: 3, Content: "Ran onboarding A/B tests", SourceFile: "experience/meta.md", Distance: 0.3},
	}
}

func TestAnswer(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeSearcher{results: sampleChunks()}
	client := &fakeClient{answer: "  Franklin built BERT models.  "}

	a := NewAssistant(embedder, store, client, nil)
	ans, err := a.Answer(context.Background(), "  What did Franklin build?  ", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"What did Franklin build?"}, embedder.texts)
	assert.Equal(t, "fake-embedding", store.model)
	assert.Equal(t, 3, store.topK)

	assert.Equal(t, "What did Franklin build?", ans.Query)
	assert.Equal(t, "Franklin built BERT models.", ans.Text)
	assert.Equal(t, []string{"experience/meta.md", "projects/budget-buddy.md"}, ans.Sources)
	assert.Len(t, ans.Chunks, 3)

	assert.Equal(t, AnswerMaxTokens, client.got.MaxTokens)
	assert.InDelta(t, 0.7, client.got.Temperature, 1e-9)
	assert.Contains(t, client.got.System, "Answer questions based ONLY on the provided context")
	require.Len(t, client.got.Messages, 1)
	user := client.got.Messages[0].Content
	assert.Contains(t, user, "[1] Built BERT models at Meta\n\n[2] Budget Buddy is a finance app")
	assert.Contains(t, user, "Question: What did Franklin build?")
}

func TestAnswer_TopKDefault(t *testing.T) {
	for _, k := range []int{0, -1, MaxTopK + 1} {
		store := &fakeSearcher{results: sampleChunks()}
		a := NewAssistant(&fakeEmbedder{}, store, &fakeClient{answer: "ok"}, nil)

		_, err := a.Answer(context.Background(), "q", k)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, store.topK, "topK %d", k)
	}
}

func TestAnswer_NoContext(t *testing.T) {
	client := &fakeClient{}
	a := NewAssistant(&fakeEmbedder{}, &fakeSearcher{}, client, nil)

	_, err := a.Answer(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoContext)
	assert.Zero(t, client.calls, "the model is not called without context")
}

func TestAnswer_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		embedder *fakeEmbedder
		store    *fakeSearcher
		client   *fakeClient
		query    string
		want     string
	}{
		{"empty query", &fakeEmbedder{}, &fakeSearcher{}, &fakeClient{}, "   ", "query is empty"},
		{"embed", &fakeEmbedder{err: boom}, &fakeSearcher{}, &fakeClient{}, "q", "failed to embed query"},
		{"search", &fakeEmbedder{}, &fakeSearcher{err: boom}, &fakeClient{}, "q", "failed to retrieve context"},
		{"generate", &fakeEmbedder{}, &fakeSearcher{results: sampleChunks()}, &fakeClient{err: boom}, "q", "failed to generate answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(tt.embedder, tt.store, tt.client, nil)
			_, err := a.Answer(context.Background(), tt.query, 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildContext(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
	assert.Equal(t, "[1] a\n\n[2] b", BuildContext([]db.SearchResult{{Content: "a"}, {Content: "b"}}))
}

func TestSources(t *testing.T) {
	assert.Empty(t, Sources(nil))
	assert.Equal(t, []string{"a.md", "b.md"}, Sources([]db.SearchResult{
		{SourceFile: "b.md"}, {SourceFile: "a.md"}, {SourceFile: "b.md"},
	}))
}
