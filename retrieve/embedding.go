package retrieve

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/smhanov/bughound"
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenAIEmbedder produces embeddings through the Gemini API.
type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

// NewGenAIEmbedder creates an embedder. The model defaults to
// gemini-embedding-001.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return &GenAIEmbedder{
		client:   client,
		model:    model,
		taskType: "RETRIEVAL_DOCUMENT",
	}, nil
}

// EmbedBatch embeds every text in one request.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: e.taskType})
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// EmbeddingRetriever ranks a Store's pages against the queries by cosine
// similarity. Page vectors are computed once per page and cached by id.
type EmbeddingRetriever struct {
	store    *Store
	embedder Embedder
	cache    map[int64][]float32
}

// NewEmbeddingRetriever wraps a store with semantic ranking.
func NewEmbeddingRetriever(store *Store, embedder Embedder) *EmbeddingRetriever {
	return &EmbeddingRetriever{
		store:    store,
		embedder: embedder,
		cache:    make(map[int64][]float32),
	}
}

// Retrieve implements bughound.DocRetriever. All queries are joined into a
// single probe; the five most similar pages come back with their similarity
// as the score.
func (r *EmbeddingRetriever) Retrieve(ctx context.Context, queries []string) ([]bughound.DocResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	docs, err := r.store.Docs(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	if err := r.fillCache(ctx, docs); err != nil {
		return nil, err
	}

	probe, err := r.embedder.EmbedBatch(ctx, []string{strings.Join(queries, "\n")})
	if err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	type scored struct {
		doc   StoredDoc
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for _, d := range docs {
		vec, ok := r.cache[d.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, scored{doc: d, score: cosine(probe[0], vec)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxDocsPerQuery {
		ranked = ranked[:maxDocsPerQuery]
	}

	results := make([]bughound.DocResult, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, bughound.DocResult{
			Text:  s.doc.Text,
			Score: fmt.Sprintf("%.3f", s.score),
		})
	}
	return results, nil
}

func (r *EmbeddingRetriever) fillCache(ctx context.Context, docs []StoredDoc) error {
	var missing []StoredDoc
	for _, d := range docs {
		if _, ok := r.cache[d.ID]; !ok {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, len(missing))
	for i, d := range missing {
		texts[i] = d.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embedding count mismatch: got %d for %d pages", len(vectors), len(missing))
	}
	for i, d := range missing {
		r.cache[d.ID] = vectors[i]
	}
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
