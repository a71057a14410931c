package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns deterministic vectors keyed by text so similarity
// ranking can be asserted without a live backend.
type stubEmbedder struct {
	vectors   map[string][]float32
	available bool
	err       error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (s *stubEmbedder) Available() bool { return s.available }

func TestIngestAndSearch(t *testing.T) {
	embedder := &stubEmbedder{
		available: true,
		vectors: map[string][]float32{
			"supplier pays late":  {1, 0, 0},
			"supplier ships fast": {0, 1, 0},
			"shipping speed":      {0, 0.9, 0.1},
		},
	}
	p := NewProvider(NewMemory(), embedder, 1000, 200)

	n, err := p.Ingest(context.Background(), CollectionSupplierHistory, []Document{
		{Content: "supplier pays late", Metadata: map[string]string{"supplier": "Acme"}},
		{Content: "supplier ships fast", Metadata: map[string]string{"supplier": "Acme"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	docs, err := p.Search(context.Background(), CollectionSupplierHistory, "shipping speed", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "supplier ships fast", docs[0].Content)
	assert.Equal(t, "Acme", docs[0].Metadata["supplier"])
}

func TestSearchTopK(t *testing.T) {
	embedder := &stubEmbedder{available: true, vectors: map[string][]float32{}}
	p := NewProvider(NewMemory(), embedder, 1000, 200)

	_, err := p.Ingest(context.Background(), CollectionItemHistory, []Document{
		{Content: "one"}, {Content: "two"}, {Content: "three"},
	})
	require.NoError(t, err)

	docs, err := p.Search(context.Background(), CollectionItemHistory, "anything", 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = p.Search(context.Background(), CollectionItemHistory, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestRequiresEmbedder(t *testing.T) {
	p := NewProvider(NewMemory(), &stubEmbedder{available: false}, 1000, 200)
	_, err := p.Ingest(context.Background(), CollectionSupplierHistory, []Document{{Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSearchDegradesWhenUnavailable(t *testing.T) {
	p := NewProvider(NewMemory(), &stubEmbedder{available: false}, 1000, 200)
	docs, err := p.Search(context.Background(), CollectionSupplierHistory, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchDegradesOnEmbedFailure(t *testing.T) {
	embedder := &stubEmbedder{available: true, err: assert.AnError}
	p := NewProvider(NewMemory(), embedder, 1000, 200)
	docs, err := p.Search(context.Background(), CollectionSupplierHistory, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUnknownCollection(t *testing.T) {
	p := NewProvider(NewMemory(), &stubEmbedder{available: true}, 1000, 200)
	_, err := p.Ingest(context.Background(), "bogus", []Document{{Content: "x"}})
	assert.Error(t, err)
	_, err = p.Search(context.Background(), "bogus", "q", 3)
	assert.Error(t, err)
}

func TestIngestChunksLongDocuments(t *testing.T) {
	embedder := &stubEmbedder{available: true, vectors: map[string][]float32{}}
	p := NewProvider(NewMemory(), embedder, 10, 2)

	n, err := p.Ingest(context.Background(), CollectionAnalysisExamples, []Document{
		{Content: "abcdefghijklmnopqrst"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
