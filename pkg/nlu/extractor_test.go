package nlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/llm"
)

func TestExtractParsesHints(t *testing.T) {
	client := llm.NewMockClient()
	client.GenerateResponseFunc = func(_ context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		assert.Contains(t, prompt, "total aum of equity funds")
		assert.Contains(t, prompt, "funds\n  aum (numeric)")
		assert.Zero(t, temperature)
		return `{
			"aggregation_intents": ["sum"],
			"temporal_hint": {"relative_period": "last_quarter", "phrase": "last quarter", "confidence": 0.8},
			"candidate_filters": [{"column": "fund_types.label", "operator": "equals", "values": ["Equity"], "confidence": 0.9}],
			"ranking_hint": {"term": "aum", "descending": true, "limit": 5}
		}`, nil
	}
	e := NewLLMExtractor(client, zap.NewNop())

	hints, err := e.Extract(context.Background(), "total aum of equity funds", "funds\n  aum (numeric)\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"sum"}, hints.AggregationIntents)
	require.NotNil(t, hints.Temporal)
	assert.Equal(t, "last_quarter", hints.Temporal.RelativePeriod)
	require.Len(t, hints.CandidateFilters, 1)
	assert.Equal(t, "fund_types.label", hints.CandidateFilters[0].Column)
	assert.Equal(t, []string{"Equity"}, hints.CandidateFilters[0].Values)
	require.NotNil(t, hints.Ranking)
	assert.Equal(t, 5, hints.Ranking.Limit)
	assert.True(t, hints.Ranking.Descending)
	assert.Equal(t, 1, client.GenerateResponseCalls)
}

func TestExtractStripsResponseFraming(t *testing.T) {
	client := llm.NewMockClient()
	client.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "<think>reasoning about the request</think>\n```json\n{\"aggregation_intents\": [\"count\"]}\n```", nil
	}
	e := NewLLMExtractor(client, zap.NewNop())

	hints, err := e.Extract(context.Background(), "how many funds", "funds\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"count"}, hints.AggregationIntents)
}

func TestExtractClientError(t *testing.T) {
	client := llm.NewMockClient()
	client.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, nil)
	}
	e := NewLLMExtractor(client, zap.NewNop())

	_, err := e.Extract(context.Background(), "q", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nlu extraction")
	// Non-retryable failure must not be retried.
	assert.Equal(t, 1, client.GenerateResponseCalls)
}

func TestExtractNonJSONResponse(t *testing.T) {
	client := llm.NewMockClient()
	client.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "I cannot infer any hints from this request.", nil
	}
	e := NewLLMExtractor(client, zap.NewNop())

	_, err := e.Extract(context.Background(), "q", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON")
}
