package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/apperrors"
	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/logging"
	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/nlu"
)

// Refinement loop states, logged per transition.
const (
	StateAnalyzing = "analyzing"
	StateScored    = "scored"
	StateAccepted  = "accepted"
	StateRefining  = "refining"
	StateExhausted = "exhausted"
)

// Orchestrator drives the full analysis pipeline: entity identification
// and context extraction in parallel, then relationship discovery, filter
// identification, navigation, and scoring, looping with pinned entities
// and relaxed thresholds until an iteration is accepted or the budget
// runs out.
type Orchestrator struct {
	entities  *EntityIdentifier
	relations *RelationshipDiscoverer
	extractor *ContextExtractor
	filters   *FilterIdentifier
	navigator *GraphNavigator
	scorer    *ConfidenceScorer
	planner   *PlanBuilder
	cfg       config.AnalysisConfig
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline from its collaborators.
func NewOrchestrator(m matcher.Matcher, extractor nlu.Extractor, cfg config.AnalysisConfig, logger *zap.Logger, now func() time.Time) *Orchestrator {
	return &Orchestrator{
		entities:  NewEntityIdentifier(m, cfg, logger),
		relations: NewRelationshipDiscoverer(logger),
		extractor: NewContextExtractor(extractor, m, cfg, logger),
		filters:   NewFilterIdentifier(m, cfg, logger, now),
		navigator: NewGraphNavigator(logger),
		scorer:    NewConfidenceScorer(logger),
		planner:   NewPlanBuilder(logger),
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
	}
}

// Analyze runs the refinement loop over a natural-language query against
// one schema context and returns the terminal query plan. The returned
// plan's Outcome distinguishes an accepted iteration from a best-effort
// result after budget exhaustion.
func (o *Orchestrator) Analyze(ctx context.Context, query string, sc *models.SchemaContext) (*models.QueryPlan, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedSchema, err)
	}

	cats := BuildCatalogs(sc)
	graph := NewSchemaGraph(sc)

	budget := o.cfg.RefinementBudget
	if budget < 1 {
		budget = 1
	}

	var (
		history      []*models.QueryAnalysisResult
		pinned       []models.Entity
		extraContext string
		outcome      = models.OutcomeExhausted
	)

	for iteration := 1; iteration <= budget; iteration++ {
		if err := ctx.Err(); err != nil {
			if len(history) > 0 {
				break // deliver the best of what we have
			}
			return nil, err
		}

		o.logger.Info("iteration start",
			zap.String("state", StateAnalyzing),
			zap.Int("iteration", iteration),
			zap.String("query", logging.SanitizeQuery(query)))

		snapshot := o.runIteration(ctx, query, cats, graph, iterationInput{
			iteration:    iteration,
			pinned:       pinned,
			relax:        o.cfg.RelaxStep * float64(iteration-1),
			extraContext: extraContext,
		})
		history = append(history, snapshot)

		o.logger.Info("iteration scored",
			zap.String("state", StateScored),
			zap.Int("iteration", iteration),
			zap.Float64("confidence", snapshot.Confidence.Overall),
			zap.String("level", snapshot.Confidence.Level))

		accept := snapshot.Confidence.Level == models.ConfidenceLevelHigh ||
			(snapshot.Confidence.Level == models.ConfidenceLevelMedium && iteration == budget)
		if accept {
			outcome = models.OutcomeAccepted
			o.logger.Info("iteration accepted",
				zap.String("state", StateAccepted),
				zap.Int("iteration", iteration))
			break
		}
		if iteration == budget {
			o.logger.Warn("refinement budget exhausted",
				zap.String("state", StateExhausted),
				zap.Int("iterations", len(history)))
			break
		}

		pinned = pinEntities(snapshot.Entities, o.cfg.PinScore)
		extraContext = refinementContext(snapshot)
		o.logger.Info("refining",
			zap.String("state", StateRefining),
			zap.Int("pinned", len(pinned)))
	}

	best := bestIteration(history)
	if best == nil || len(best.Entities) == 0 {
		return nil, &apperrors.NoEntitiesResolvedError{Query: query}
	}
	if !best.Navigation.FullyConnected() {
		pairs := make([][2]string, len(best.Navigation.Disconnected))
		for i, p := range best.Navigation.Disconnected {
			pairs[i] = [2]string{p.A, p.B}
		}
		return nil, &apperrors.DisconnectedSchemaError{Pairs: pairs}
	}

	plan, err := o.planner.Build(best, sc)
	if err != nil {
		return nil, err
	}
	plan.Outcome = outcome
	plan.History = history
	return plan, nil
}

type iterationInput struct {
	iteration    int
	pinned       []models.Entity
	relax        float64
	extraContext string
}

// runIteration executes one pass of the pipeline and returns its
// immutable snapshot. Entity identification and context extraction are
// independent, so they run concurrently; everything downstream needs
// both.
func (o *Orchestrator) runIteration(ctx context.Context, query string, cats *Catalogs, graph *SchemaGraph, in iterationInput) *models.QueryAnalysisResult {
	var (
		wg         sync.WaitGroup
		identified *IdentifyResult
		extracted  ContextResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		identified = o.entities.Identify(ctx, query, cats, IdentifyOptions{
			Relax:  in.relax,
			Pinned: in.pinned,
		})
	}()
	go func() {
		defer wg.Done()
		extracted = o.extractor.Extract(ctx, query, cats, in.extraContext)
	}()
	wg.Wait()

	snapshot := &models.QueryAnalysisResult{
		ID:            uuid.New(),
		Iteration:     in.iteration,
		Query:         query,
		Entities:      identified.Entities,
		Context:       extracted.Context,
		TermCount:     identified.TermCount,
		ResolvedTerms: identified.ResolvedTerms,
		Suggestions:   identified.Suggestions,
		CreatedAt:     time.Now().UTC(),
	}

	if len(snapshot.Entities) == 0 {
		snapshot.Suggestions = append(snapshot.Suggestions,
			"no schema elements matched the query; try naming tables, columns, or known values")
		snapshot.Confidence = o.scorer.Score(snapshot)
		return snapshot
	}

	filterResult := o.filters.Identify(ctx, snapshot.Entities, extracted.Context, extracted.Hints, cats)
	snapshot.Filters = filterResult.Filters
	snapshot.Entities = append(snapshot.Entities, filterResult.Supplemental...)
	snapshot.Suggestions = append(snapshot.Suggestions, filterResult.Suggestions...)

	required := snapshot.RequiredTables()
	snapshot.Relationships = o.relations.Discover(graph, required)
	snapshot.Navigation = o.navigator.Navigate(snapshot.Relationships, required)

	for _, pair := range snapshot.Navigation.Disconnected {
		snapshot.Suggestions = append(snapshot.Suggestions,
			fmt.Sprintf("tables %s and %s have no join path in the schema", pair.A, pair.B))
	}

	snapshot.Confidence = o.scorer.Score(snapshot)
	return snapshot
}

// pinEntities selects the entities carried verbatim into the next
// iteration: anything at or above the pin score is settled and should not
// churn when thresholds relax.
func pinEntities(entities []models.Entity, pinScore float64) []models.Entity {
	var pinned []models.Entity
	for _, e := range entities {
		if e.Relevance >= pinScore {
			pinned = append(pinned, e)
		}
	}
	return pinned
}

// refinementContext summarizes an iteration's problems for the NLU
// collaborator so the next extraction pass can target them.
func refinementContext(snapshot *models.QueryAnalysisResult) string {
	if len(snapshot.Suggestions) == 0 {
		return ""
	}
	return "Issues found in the previous analysis pass:\n- " + strings.Join(snapshot.Suggestions, "\n- ")
}

// bestIteration returns the highest-scoring snapshot; on ties the
// earliest wins, since later iterations only relaxed thresholds.
func bestIteration(history []*models.QueryAnalysisResult) *models.QueryAnalysisResult {
	var best *models.QueryAnalysisResult
	for _, snapshot := range history {
		if best == nil || snapshot.Confidence.Overall > best.Confidence.Overall {
			best = snapshot
		}
	}
	return best
}
