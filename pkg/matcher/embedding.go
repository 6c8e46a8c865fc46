package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/llm"
	"github.com/sundar-blr76/report-smith-sub001/pkg/retry"
)

// EmbeddingMatcher ranks candidates by cosine similarity of embedding
// vectors. Catalog embeddings are computed once per catalog ID and cached;
// the schema catalogs are static per deployment, so the cache never needs
// invalidation within a process lifetime.
type EmbeddingMatcher struct {
	client llm.Client
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string][][]float32 // catalog ID -> per-entry embeddings
}

// NewEmbeddingMatcher creates an embedding-backed matcher.
func NewEmbeddingMatcher(client llm.Client, logger *zap.Logger) *EmbeddingMatcher {
	return &EmbeddingMatcher{
		client: client,
		logger: logger.Named("matcher"),
		cache:  make(map[string][][]float32),
	}
}

// Search implements Matcher.
func (m *EmbeddingMatcher) Search(ctx context.Context, text string, catalog Catalog, minScore float64) ([]Candidate, error) {
	if len(catalog.Entries) == 0 {
		return nil, nil
	}

	entryVecs, err := m.catalogEmbeddings(ctx, catalog)
	if err != nil {
		return nil, fmt.Errorf("embed catalog %s: %w", catalog.ID, err)
	}

	queryVec, err := retry.DoWithResult(ctx, nil, func() ([]float32, error) {
		return m.client.CreateEmbedding(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}

	var results []Candidate
	for i, entry := range catalog.Entries {
		// Cosine similarity lands in [-1,1]; shift into [0,1] so scores
		// compose with the per-catalog minimums.
		score := (cosineSimilarity(queryVec, entryVecs[i]) + 1) / 2
		if score >= minScore {
			results = append(results, Candidate{ID: entry.ID, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// catalogEmbeddings returns cached per-entry embeddings for the catalog,
// computing and caching them on first use.
func (m *EmbeddingMatcher) catalogEmbeddings(ctx context.Context, catalog Catalog) ([][]float32, error) {
	cacheKey := fmt.Sprintf("%s/%d", catalog.ID, len(catalog.Entries))

	m.mu.RLock()
	vecs, ok := m.cache[cacheKey]
	m.mu.RUnlock()
	if ok {
		return vecs, nil
	}

	texts := make([]string, len(catalog.Entries))
	for i, e := range catalog.Entries {
		texts[i] = e.Text
	}

	vecs, err := retry.DoWithResult(ctx, nil, func() ([][]float32, error) {
		return m.client.CreateEmbeddings(ctx, texts)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("cached catalog embeddings",
		zap.String("catalog", catalog.ID),
		zap.Int("entries", len(vecs)))

	m.mu.Lock()
	m.cache[cacheKey] = vecs
	m.mu.Unlock()
	return vecs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
