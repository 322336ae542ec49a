package summarizereviews

import (
	"context"

	"cosmetic-insights/internal/analytics/sentiment"
)

// Input either carries the reviews inline or names a product whose reviews
// are loaded from the review store. Inline reviews win when both are set.
type Input struct {
	ProductID string             `json:"productId,omitempty"`
	Reviews   []sentiment.Review `json:"reviews,omitempty"`
	TopN      int                `json:"topN,omitempty"`
}

// Output is the job variables the worker sets on completion.
type Output struct {
	ProductID        string             `json:"productId,omitempty"`
	SentimentSummary *sentiment.Summary `json:"sentimentSummary"`
}

// Summarizer is satisfied by *sentiment.Summarizer.
type Summarizer interface {
	Summarize(ctx context.Context, reviews []sentiment.Review) (*sentiment.Summary, error)
	SummarizeTop(ctx context.Context, reviews []sentiment.Review, topN int) (*sentiment.Summary, error)
}

// ReviewSource is satisfied by *reviewstore.Store.
type ReviewSource interface {
	ReviewsForProduct(ctx context.Context, productID string) ([]sentiment.Review, error)
}
