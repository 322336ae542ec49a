package safety

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmetic-insights/internal/analytics/ranking"
	"cosmetic-insights/internal/analytics/rating"
	"cosmetic-insights/internal/common/logger"

	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// EvaluatorOptions configures NewEvaluator. Lookup is required.
type EvaluatorOptions struct {
	Lookup ScoreLookup
	// Concurrency bounds parallel lookups. 1 means sequential.
	Concurrency int
	Logger      logger.Logger
}

// Evaluator scores ingredient lists against a ScoreLookup. It holds no
// per-request state and is safe for concurrent use.
type Evaluator struct {
	lookup      ScoreLookup
	concurrency int
	logger      logger.Logger
}

// NewEvaluator returns an Evaluator over opts.Lookup. Concurrency defaults
// to DefaultConcurrency and Logger to a no-op logger.
func NewEvaluator(opts EvaluatorOptions) (*Evaluator, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("score lookup is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Evaluator{
		lookup:      opts.Lookup,
		concurrency: opts.Concurrency,
		logger:      opts.Logger.WithFields(map[string]interface{}{"component": "safety-evaluator"}),
	}, nil
}

type candidate struct {
	key     string
	display string
}

type lookupResult struct {
	score  *IngredientScore
	failed bool
}

// Evaluate scores every distinct ingredient in names and aggregates the
// result. Names are normalized and deduplicated, keeping the position of the
// first occurrence. Missing and individually failing lookups become Unknown
// entries. A source-level failure aborts with ErrAggregationUnavailable.
func (e *Evaluator) Evaluate(ctx context.Context, names []string) (*ProductSafetyReport, error) {
	start := time.Now()
	candidates := distinct(names)
	results := make([]lookupResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			s, err := e.lookup.LookupScore(gctx, c.key)
			switch {
			case err == nil:
				results[i].score = s
			case errors.Is(err, ErrNotFound):
			case errors.Is(err, ErrSourceUnavailable):
				return err
			default:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].failed = true
				e.logger.Warn("ingredient lookup failed", map[string]interface{}{
					"ingredient": c.key,
					"error":      err.Error(),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("ingredient score source unavailable", map[string]interface{}{
			"ingredients": len(candidates),
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrAggregationUnavailable, err)
	}

	report := &ProductSafetyReport{Ingredients: make([]IngredientEvaluation, 0, len(candidates))}
	for i, c := range candidates {
		report.Ingredients = append(report.Ingredients, newEvaluation(c.key, c.display, results[i].score))
		if results[i].failed {
			report.LookupFailures++
		}
	}
	finalize(report)

	e.logger.Info("ingredients evaluated", map[string]interface{}{
		"ingredients":    len(report.Ingredients),
		"unrated":        report.UnratedCount,
		"lookupFailures": report.LookupFailures,
		"overallRating":  report.OverallRating.Label(),
		"durationMs":     time.Since(start).Milliseconds(),
	})
	return report, nil
}

func distinct(names []string) []candidate {
	out := make([]candidate, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		key := ranking.NormalizeKey(raw)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, candidate{key: key, display: ranking.Display(raw)})
	}
	return out
}

// finalize recomputes the aggregate fields from the ingredient list.
func finalize(r *ProductSafetyReport) {
	var mean ranking.Mean
	r.UnratedCount = 0
	for _, ev := range r.Ingredients {
		if ev.SafetyScore == nil {
			r.UnratedCount++
			continue
		}
		mean.Add(*ev.SafetyScore)
	}
	r.AverageScore = nil
	if v, ok := mean.Value(); ok {
		r.AverageScore = &v
	}
	r.OverallRating = rating.ForScore(r.AverageScore)
	r.OverallRisk = r.OverallRating.Risk()
	r.OverallColor = r.OverallRating.Color()
}
