package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/llm"
)

// embeddingFixtureClient embeds along two fixed axes so cosine scores
// are exact: "alpha"-flavored text maps to (1,0), "beta" to (0,1).
func embeddingFixtureClient() *llm.MockClient {
	vectorFor := func(text string) []float32 {
		switch text {
		case "alpha", "alpha entry":
			return []float32{1, 0}
		case "beta", "beta entry":
			return []float32{0, 1}
		default:
			return []float32{1, 1}
		}
	}
	client := llm.NewMockClient()
	client.CreateEmbeddingFunc = func(_ context.Context, input string) ([]float32, error) {
		return vectorFor(input), nil
	}
	client.CreateEmbeddingsFunc = func(_ context.Context, inputs []string) ([][]float32, error) {
		vecs := make([][]float32, len(inputs))
		for i, in := range inputs {
			vecs[i] = vectorFor(in)
		}
		return vecs, nil
	}
	return client
}

func embeddingTestCatalog() Catalog {
	return Catalog{
		ID: "schema",
		Entries: []Entry{
			{ID: "a", Text: "alpha entry"},
			{ID: "b", Text: "beta entry"},
		},
	}
}

func TestEmbeddingSearchRanksBySimilarity(t *testing.T) {
	client := embeddingFixtureClient()
	m := NewEmbeddingMatcher(client, zap.NewNop())

	got, err := m.Search(context.Background(), "alpha", embeddingTestCatalog(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Identical direction scores 1.0; orthogonal lands at the shifted
	// midpoint 0.5.
	assert.Equal(t, "a", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 0.5, got[1].Score, 1e-9)
}

func TestEmbeddingSearchMinScoreCutoff(t *testing.T) {
	client := embeddingFixtureClient()
	m := NewEmbeddingMatcher(client, zap.NewNop())

	got, err := m.Search(context.Background(), "alpha", embeddingTestCatalog(), 0.8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestEmbeddingCatalogCache(t *testing.T) {
	client := embeddingFixtureClient()
	m := NewEmbeddingMatcher(client, zap.NewNop())
	catalog := embeddingTestCatalog()

	for i := 0; i < 3; i++ {
		_, err := m.Search(context.Background(), "alpha", catalog, 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, client.CreateEmbeddingsCalls, "catalog embeddings should be computed once")
	assert.Equal(t, 3, client.CreateEmbeddingCalls, "query text is embedded per search")
}

func TestEmbeddingEmptyCatalog(t *testing.T) {
	client := embeddingFixtureClient()
	m := NewEmbeddingMatcher(client, zap.NewNop())

	got, err := m.Search(context.Background(), "alpha", Catalog{ID: "schema"}, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, client.CreateEmbeddingCalls)
}
