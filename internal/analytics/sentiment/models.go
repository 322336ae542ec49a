package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks a classifier or extractor failure that
	// affects every review, not just one.
	ErrSourceUnavailable = errors.New("sentiment source unavailable")

	// ErrSummaryUnavailable is returned by Summarize when a capability is
	// unavailable. No partial summary accompanies it.
	ErrSummaryUnavailable = errors.New("sentiment summary unavailable")

	// ErrUnclassifiable is returned for a review with neither text nor a usable
	// star rating.
	ErrUnclassifiable = errors.New("review cannot be classified")
)

// Label is a sentiment class.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// ParseLabel accepts the three labels in any case.
func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.ToLower(strings.TrimSpace(s))); l {
	case Positive, Neutral, Negative:
		return l, nil
	}
	return "", fmt.Errorf("unknown sentiment label %q", s)
}

// Review is a single customer review. Sentiment and SentimentScore are set
// when an upstream analyzer has already classified the review.
type Review struct {
	ID             string   `json:"id,omitempty"`
	ProductID      string   `json:"productId,omitempty"`
	ProductName    string   `json:"productName,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Title          string   `json:"title,omitempty"`
	Text           string   `json:"text,omitempty"`
	Sentiment      string   `json:"sentiment,omitempty"`
	SentimentScore *float64 `json:"sentimentScore,omitempty"`
}

// Star ratings outside [MinRating, MaxRating] are treated as absent.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// StarRating returns the review's rating when it is a usable star value.
func (r Review) StarRating() (float64, bool) {
	if r.Rating == nil || *r.Rating < MinRating || *r.Rating > MaxRating {
		return 0, false
	}
	return *r.Rating, true
}

// Verdict is a classifier's label and its compound score in [-1, 1].
type Verdict struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Classifier assigns a sentiment verdict to one review.
type Classifier interface {
	Classify(ctx context.Context, r Review) (Verdict, error)
}

// IssueExtractor lists the issues a review mentions.
type IssueExtractor interface {
	ExtractIssues(ctx context.Context, r Review) ([]string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, r Review) (Verdict, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, r Review) (Verdict, error) { return f(ctx, r) }

// ExtractorFunc adapts a function to IssueExtractor.
type ExtractorFunc func(ctx context.Context, r Review) ([]string, error)

// ExtractIssues calls f.
func (f ExtractorFunc) ExtractIssues(ctx context.Context, r Review) ([]string, error) {
	return f(ctx, r)
}

// Distribution counts classified reviews per label.
type Distribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

func (d *Distribution) add(l Label) {
	switch l {
	case Positive:
		d.Positive++
	case Neutral:
		d.Neutral++
	case Negative:
		d.Negative++
	}
}

// Total is the number of classified reviews.
func (d Distribution) Total() int { return d.Positive + d.Neutral + d.Negative }

// Percentages holds each label's share of classified reviews, rounded to
// one decimal independently.
type Percentages struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// IssueCount is how many reviews mentioned an issue.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// Summary is the aggregated sentiment view over a set of reviews.
type Summary struct {
	TotalReviews          int          `json:"totalReviews"`
	Distribution          Distribution `json:"sentimentDistribution"`
	Percentages           Percentages  `json:"sentimentPercentages"`
	AverageSentimentScore float64      `json:"averageSentimentScore"`
	AverageRating         float64      `json:"averageRating"`
	TopIssues             []IssueCount `json:"topIssues"`

	ReviewsReceived        int `json:"reviewsReceived"`
	ClassificationFailures int `json:"classificationFailures"`
	ExtractionFailures     int `json:"extractionFailures"`
	InvalidRatings         int `json:"invalidRatings"`
}
