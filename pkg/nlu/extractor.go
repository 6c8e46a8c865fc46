package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/llm"
	"github.com/sundar-blr76/report-smith-sub001/pkg/retry"
)

const extractSystemMessage = `You analyze natural-language data analysis requests against a relational schema.
Respond with a single JSON object and nothing else:
{
  "aggregation_intents": ["sum"|"avg"|"count"|"min"|"max"|"group_by", ...],
  "temporal_hint": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD", "relative_period": "...", "phrase": "...", "confidence": 0.0},
  "candidate_filters": [{"column": "table.column", "operator": "equals|range|in_list|pattern", "values": ["..."], "phrase": "...", "confidence": 0.0}],
  "ranking_hint": {"term": "...", "descending": true, "limit": 0},
  "free_text_reasoning": "..."
}
Omit fields you cannot infer. Only reference columns that appear in the provided schema summary.`

// LLMExtractor implements Extractor with a chat-completion backend.
type LLMExtractor struct {
	client llm.Client
	logger *zap.Logger
}

// NewLLMExtractor creates an LLM-backed NLU extractor.
func NewLLMExtractor(client llm.Client, logger *zap.Logger) *LLMExtractor {
	return &LLMExtractor{
		client: client,
		logger: logger.Named("nlu"),
	}
}

// Extract implements Extractor. Temperature is zero: hints must be as
// reproducible as the backend allows.
func (e *LLMExtractor) Extract(ctx context.Context, text string, schemaSummary string) (*Hints, error) {
	prompt := buildExtractPrompt(text, schemaSummary)

	response, err := retry.DoWithResult(ctx, nil, func() (string, error) {
		return e.client.GenerateResponse(ctx, prompt, extractSystemMessage, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("nlu extraction: %w", err)
	}

	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("nlu extraction returned no JSON: %w", err)
	}

	var hints Hints
	if err := json.Unmarshal([]byte(jsonStr), &hints); err != nil {
		return nil, fmt.Errorf("parse nlu hints: %w", err)
	}

	e.logger.Debug("extracted hints",
		zap.Strings("aggregations", hints.AggregationIntents),
		zap.Int("candidate_filters", len(hints.CandidateFilters)),
		zap.Bool("has_temporal", hints.Temporal != nil))

	return &hints, nil
}

func buildExtractPrompt(text, schemaSummary string) string {
	var b strings.Builder
	b.WriteString("Schema summary:\n")
	b.WriteString(schemaSummary)
	b.WriteString("\n\nAnalysis request:\n")
	b.WriteString(text)
	return b.String()
}
