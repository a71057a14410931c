package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/pkg/embeddings"
)

// Provider ingests documents into collections and searches them by
// embedding similarity.
type Provider struct {
	store        Store
	embedder     embeddings.Client
	chunkSize    int
	chunkOverlap int
}

// NewProvider creates a Provider over the given store and embedder.
func NewProvider(store Store, embedder embeddings.Client, chunkSize, chunkOverlap int) *Provider {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	return &Provider{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest chunks and embeds documents into a collection. Unlike Search,
// ingestion requires a working embedder: silently storing unembedded chunks
// would poison later searches.
func (p *Provider) Ingest(ctx context.Context, collection string, docs []Document) (int, error) {
	if !ValidCollection(collection) {
		return 0, eris.Errorf("retrieval: unknown collection %q", collection)
	}
	if p.embedder == nil || !p.embedder.Available() {
		return 0, eris.New("retrieval: embeddings backend not configured")
	}

	var chunks []Chunk
	var texts []string
	for _, doc := range docs {
		for _, piece := range SplitText(doc.Content, p.chunkSize, p.chunkOverlap) {
			chunks = append(chunks, Chunk{
				ID:         uuid.NewString(),
				Collection: collection,
				Content:    piece,
				Metadata:   doc.Metadata,
			})
			texts = append(texts, piece)
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	vecs, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, eris.Wrap(err, "retrieval: embed documents")
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}

	if err := p.store.InsertChunks(ctx, chunks); err != nil {
		return 0, eris.Wrap(err, "retrieval: insert chunks")
	}
	return len(chunks), nil
}

// Search returns the top-k chunks of a collection ranked by cosine
// similarity to the query. When the embedder is unavailable or embedding
// fails, it logs and returns no results so generation can proceed
// ungrounded.
func (p *Provider) Search(ctx context.Context, collection, query string, k int) ([]Document, error) {
	if !ValidCollection(collection) {
		return nil, eris.Errorf("retrieval: unknown collection %q", collection)
	}
	if k <= 0 {
		return nil, nil
	}
	if p.embedder == nil || !p.embedder.Available() {
		zap.L().Warn("retrieval backend unavailable, returning no context",
			zap.String("collection", collection))
		return nil, nil
	}

	vecs, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		zap.L().Warn("query embedding failed, returning no context",
			zap.String("collection", collection), zap.Error(err))
		return nil, nil
	}
	qv := vecs[0]

	chunks, err := p.store.ListChunks(ctx, collection)
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: list chunks")
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{chunk: c, score: cosineSimilarity(qv, c.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	docs := make([]Document, 0, len(ranked))
	for _, r := range ranked {
		docs = append(docs, Document{Content: r.chunk.Content, Metadata: r.chunk.Metadata})
	}
	return docs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
