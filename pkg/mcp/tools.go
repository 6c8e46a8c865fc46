package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/handlers"
	"github.com/sundar-blr76/report-smith-sub001/pkg/logging"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// AnalyzeToolDeps contains dependencies for the analyze_query tool.
type AnalyzeToolDeps struct {
	Analyzer handlers.Analyzer
	Schema   *models.SchemaContext
	Logger   *zap.Logger
}

// RegisterAnalyzeTool adds the analyze_query tool: the full pipeline from
// a natural-language request to a scored, validated query plan.
func RegisterAnalyzeTool(s *Server, deps *AnalyzeToolDeps) {
	tool := mcp.NewTool(
		"analyze_query",
		mcp.WithDescription(
			"Analyze a natural-language data question against the configured relational schema "+
				"and return a validated query plan: the entities, joins, filters, and rendered SELECT, "+
				"together with a confidence score and refinement suggestions. "+
				"The plan is never executed; the caller decides what to do with it. "+
				"Example: analyze_query(query='total AUM of equity funds last quarter')",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The natural-language analysis request. Required."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		plan, err := deps.Analyzer.Analyze(ctx, query, deps.Schema)
		if err != nil {
			deps.Logger.Warn("analyze_query failed",
				zap.String("query", logging.SanitizeQuery(query)),
				zap.Error(err))
			// Analysis failures are user-actionable; surface them as tool
			// results rather than protocol errors.
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.Marshal(plan)
		if err != nil {
			return nil, fmt.Errorf("encode plan: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}
