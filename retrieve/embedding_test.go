package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed vectors and counts batch calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func TestEmbeddingRetrieverRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "manual", "iClamp doc")
	require.NoError(t, err)
	_, err = store.Add(ctx, "manual", "vForce doc")
	require.NoError(t, err)

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"iClamp doc":  {1, 0, 0},
		"vForce doc":  {0, 1, 0},
		"iClamp bug?": {0.9, 0.1, 0},
	}}
	retriever := NewEmbeddingRetriever(store, embedder)

	docs, err := retriever.Retrieve(ctx, []string{"iClamp bug?"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "iClamp doc", docs[0].Text)
	assert.Greater(t, docs[0].Score, docs[1].Score)
}

func TestEmbeddingRetrieverCachesPageVectors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Add(ctx, "manual", "iClamp doc")
	require.NoError(t, err)

	embedder := &fakeEmbedder{vectors: map[string][]float32{"iClamp doc": {1, 0, 0}}}
	retriever := NewEmbeddingRetriever(store, embedder)

	_, err = retriever.Retrieve(ctx, []string{"first"})
	require.NoError(t, err)
	_, err = retriever.Retrieve(ctx, []string{"second"})
	require.NoError(t, err)

	// One batch for the pages plus one probe per query.
	assert.Equal(t, 3, embedder.calls)
}

func TestEmbeddingRetrieverEmptyCorpus(t *testing.T) {
	store := newTestStore(t)
	retriever := NewEmbeddingRetriever(store, &fakeEmbedder{})

	docs, err := retriever.Retrieve(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, retriever.cache, "no vectors should be cached for an empty corpus")
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
}
