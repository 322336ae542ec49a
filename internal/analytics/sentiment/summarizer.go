package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmetic-insights/internal/analytics/ranking"
	"cosmetic-insights/internal/common/logger"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopN        = 5
	DefaultConcurrency = 4
)

// SummarizerOptions configures NewSummarizer. Classifier and Extractor are
// required.
type SummarizerOptions struct {
	Classifier Classifier
	Extractor  IssueExtractor
	TopN       int
	// Concurrency bounds how many reviews are processed at once.
	Concurrency int
	Logger      logger.Logger
}

// Summarizer turns review lists into sentiment summaries. It is safe for
// concurrent use.
type Summarizer struct {
	classifier  Classifier
	extractor   IssueExtractor
	topN        int
	concurrency int
	logger      logger.Logger
}

// NewSummarizer returns a Summarizer. TopN defaults to DefaultTopN and
// Concurrency to DefaultConcurrency.
func NewSummarizer(opts SummarizerOptions) (*Summarizer, error) {
	if opts.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("issue extractor is required")
	}
	if opts.TopN < 0 {
		return nil, fmt.Errorf("topN must be positive, got %d", opts.TopN)
	}
	if opts.TopN == 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Summarizer{
		classifier:  opts.Classifier,
		extractor:   opts.Extractor,
		topN:        opts.TopN,
		concurrency: opts.Concurrency,
		logger:      opts.Logger.WithFields(map[string]interface{}{"component": "sentiment-summarizer"}),
	}, nil
}

type reviewOutcome struct {
	verdict       Verdict
	classified    bool
	issues        []string
	extractFailed bool
}

// Summarize classifies every review, tallies the verdicts and ranks the
// issues they mention, keeping at most the configured number of top issues.
func (s *Summarizer) Summarize(ctx context.Context, reviews []Review) (*Summary, error) {
	return s.SummarizeTop(ctx, reviews, s.topN)
}

// SummarizeTop is Summarize with a per-call topN.
func (s *Summarizer) SummarizeTop(ctx context.Context, reviews []Review, topN int) (*Summary, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("topN must be positive, got %d", topN)
	}
	start := time.Now()
	outcomes := make([]reviewOutcome, len(reviews))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, r := range reviews {
		i, r := i, r
		g.Go(func() error {
			return s.process(gctx, i, r, &outcomes[i])
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("sentiment capability unavailable", map[string]interface{}{
			"reviews": len(reviews),
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrSummaryUnavailable, err)
	}

	summary := &Summary{ReviewsReceived: len(reviews)}
	var score, stars ranking.Mean
	var issues ranking.Tally
	for i, r := range reviews {
		o := outcomes[i]
		if v, ok := r.StarRating(); ok {
			stars.Add(v)
		} else if r.Rating != nil {
			summary.InvalidRatings++
		}
		if o.classified {
			summary.Distribution.add(o.verdict.Label)
			score.Add(o.verdict.Score)
		} else {
			summary.ClassificationFailures++
		}
		if o.extractFailed {
			summary.ExtractionFailures++
		}
		for _, issue := range o.issues {
			issues.Add(issue)
		}
	}

	summary.TotalReviews = summary.Distribution.Total()
	if total := summary.TotalReviews; total > 0 {
		summary.Percentages = Percentages{
			Positive: percent(summary.Distribution.Positive, total),
			Neutral:  percent(summary.Distribution.Neutral, total),
			Negative: percent(summary.Distribution.Negative, total),
		}
	}
	if v, ok := score.Value(); ok {
		summary.AverageSentimentScore = ranking.Round(v, 3)
	}
	if v, ok := stars.Value(); ok {
		summary.AverageRating = ranking.Round(v, 1)
	}

	summary.TopIssues = make([]IssueCount, 0, topN)
	for _, e := range issues.Top(topN) {
		summary.TopIssues = append(summary.TopIssues, IssueCount{Issue: e.Key, Count: e.Count})
	}

	s.logger.Info("reviews summarized", map[string]interface{}{
		"reviewsReceived":        summary.ReviewsReceived,
		"totalReviews":           summary.TotalReviews,
		"classificationFailures": summary.ClassificationFailures,
		"extractionFailures":     summary.ExtractionFailures,
		"invalidRatings":         summary.InvalidRatings,
		"topIssues":              len(summary.TopIssues),
		"durationMs":             time.Since(start).Milliseconds(),
	})
	return summary, nil
}

// process classifies and extracts issues from one review. Only a
// capability-level failure or cancellation is returned as an error.
func (s *Summarizer) process(ctx context.Context, i int, r Review, out *reviewOutcome) error {
	v, err := s.classifier.Classify(ctx, r)
	if err == nil {
		v.Label, err = ParseLabel(string(v.Label))
	}
	switch {
	case err == nil:
		v.Score = ranking.Clamp(v.Score, -1, 1)
		out.verdict, out.classified = v, true
	case errors.Is(err, ErrSourceUnavailable):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		s.logger.Warn("review classification failed", map[string]interface{}{
			"index":    i,
			"reviewId": r.ID,
			"error":    err.Error(),
		})
	}

	issues, err := s.extractor.ExtractIssues(ctx, r)
	switch {
	case err == nil:
		out.issues = issues
	case errors.Is(err, ErrSourceUnavailable):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		out.extractFailed = true
		s.logger.Warn("issue extraction failed", map[string]interface{}{
			"index":    i,
			"reviewId": r.ID,
			"error":    err.Error(),
		})
	}
	return nil
}

func percent(count, total int) float64 {
	return ranking.Round(float64(count)/float64(total)*100, 1)
}
