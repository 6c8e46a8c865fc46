package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/adapters/datasource"
	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/handlers"
	"github.com/sundar-blr76/report-smith-sub001/pkg/llm"
	"github.com/sundar-blr76/report-smith-sub001/pkg/logging"
	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	mcpserver "github.com/sundar-blr76/report-smith-sub001/pkg/mcp"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/nlu"
	"github.com/sundar-blr76/report-smith-sub001/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("refinement_budget", cfg.Analysis.RefinementBudget))

	match, extractor := buildCollaborators(cfg, logger)
	schema := loadSchema(cfg, logger)
	if schema != nil {
		services.NewSchemaGraph(schema).LogConnectivity(logger)
	}

	orchestrator := services.NewOrchestrator(match, extractor, cfg.Analysis, logger, time.Now)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAnalyzeHandler(orchestrator, schema, logger).RegisterRoutes(mux)

	if schema != nil {
		mcps := mcpserver.NewServer("reportsmith", cfg.Version, logger)
		mcpserver.RegisterAnalyzeTool(mcps, &mcpserver.AnalyzeToolDeps{
			Analyzer: orchestrator,
			Schema:   schema,
			Logger:   logger,
		})
		mux.Handle("/mcp", mcps.NewStreamableHTTPServer())
	}

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting reportsmith", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// buildCollaborators wires the semantic matcher and NLU extractor. With
// no LLM endpoint configured the matcher degrades to lexical scoring and
// NLU hints are skipped entirely; the pipeline still works, just with
// keyword-only context.
func buildCollaborators(cfg *config.Config, logger *zap.Logger) (matcher.Matcher, nlu.Extractor) {
	if !cfg.AI.IsAvailable() || cfg.AI.LLMAPIKey == "" {
		logger.Warn("no LLM configured, using lexical matching without NLU hints")
		return matcher.NewLexicalMatcher(), nil
	}

	client, err := llm.NewClient(cfg.AI.Provider, &llm.Config{
		Endpoint:       cfg.AI.LLMBaseURL,
		Model:          cfg.AI.LLMModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
		APIKey:         cfg.AI.LLMAPIKey,
	}, logger)
	if err != nil {
		logger.Warn("LLM client unavailable, falling back to lexical matching", zap.Error(err))
		return matcher.NewLexicalMatcher(), nil
	}

	return matcher.NewEmbeddingMatcher(client, logger), nlu.NewLLMExtractor(client, logger)
}

// loadSchema resolves the server-wide schema context: a static YAML file
// when configured, otherwise a live datasource. nil means every request
// must carry its own schema context.
func loadSchema(cfg *config.Config, logger *zap.Logger) *models.SchemaContext {
	if cfg.SchemaFile != "" {
		sc, err := models.LoadSchemaContext(cfg.SchemaFile)
		if err != nil {
			logger.Fatal("failed to load schema file",
				zap.String("path", cfg.SchemaFile),
				zap.Error(err))
		}
		logger.Info("schema context loaded from file",
			zap.String("path", cfg.SchemaFile),
			zap.Int("tables", len(sc.Tables)))
		return sc
	}

	if cfg.Datasource.Type == "" {
		logger.Info("no schema source configured, expecting per-request schema contexts")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reader, err := datasource.New(ctx, cfg.Datasource, logger)
	if err != nil {
		logger.Fatal("failed to connect datasource",
			zap.String("type", cfg.Datasource.Type),
			zap.String("target", logging.SanitizeConnectionString(cfg.Datasource.ConnectionString())),
			zap.Error(err))
	}
	defer func() { _ = reader.Close() }()

	sc, err := reader.ReadSchemaContext(ctx)
	if err != nil {
		logger.Fatal("failed to read schema context", zap.Error(err))
	}
	if err := sc.Validate(); err != nil {
		logger.Fatal("datasource produced an invalid schema context", zap.Error(err))
	}
	return sc
}
