package safety

import (
	"context"
	"errors"

	"cosmetic-insights/internal/analytics/rating"
)

var (
	// ErrNotFound is returned by a ScoreLookup that has no score for a name.
	ErrNotFound = errors.New("ingredient not found")

	// ErrSourceUnavailable marks a lookup failure that affects the whole
	// source rather than a single name.
	ErrSourceUnavailable = errors.New("ingredient score source unavailable")

	// ErrAggregationUnavailable is returned by Evaluate when the score source
	// is unavailable. No partial report accompanies it.
	ErrAggregationUnavailable = errors.New("safety aggregation unavailable")
)

// IngredientScore is what a ScoreLookup knows about one ingredient.
type IngredientScore struct {
	Score   float64  `json:"score"`
	Hazards []string `json:"hazards"`
	Source  string   `json:"source,omitempty"`
}

// ScoreLookup resolves a normalized ingredient name to its safety data.
type ScoreLookup interface {
	LookupScore(ctx context.Context, name string) (*IngredientScore, error)
}

// LookupFunc adapts a plain function to ScoreLookup.
type LookupFunc func(ctx context.Context, name string) (*IngredientScore, error)

// LookupScore calls f.
func (f LookupFunc) LookupScore(ctx context.Context, name string) (*IngredientScore, error) {
	return f(ctx, name)
}

// IngredientEvaluation is the verdict for one distinct ingredient. A nil
// SafetyScore means the ingredient could not be rated.
type IngredientEvaluation struct {
	Name        string           `json:"ingredient"`
	DisplayName string           `json:"displayName,omitempty"`
	SafetyScore *float64         `json:"safetyScore"`
	Rating      rating.Band      `json:"rating"`
	Risk        rating.RiskLevel `json:"risk"`
	Color       string           `json:"color"`
	Hazards     []string         `json:"hazards"`
	Source      string           `json:"source,omitempty"`
}

// Rated reports whether the ingredient has a defined score.
func (e IngredientEvaluation) Rated() bool {
	return e.SafetyScore != nil
}

// ProductInfo identifies the product a report was built for.
type ProductInfo struct {
	Name    string `json:"name"`
	Brand   string `json:"brand"`
	Barcode string `json:"barcode,omitempty"`
	Source  string `json:"source"`
}

// ProductSafetyReport is the aggregated safety view of one product.
type ProductSafetyReport struct {
	Ingredients    []IngredientEvaluation `json:"ingredients"`
	AverageScore   *float64               `json:"averageScore"`
	OverallRating  rating.Band            `json:"overallRating"`
	OverallRisk    rating.RiskLevel       `json:"overallRisk"`
	OverallColor   string                 `json:"overallColor"`
	ProductInfo    *ProductInfo           `json:"productInfo,omitempty"`
	UnratedCount   int                    `json:"unratedCount"`
	LookupFailures int                    `json:"lookupFailures"`
	Source         string                 `json:"source,omitempty"`
}

// Report sources.
const (
	SourceOCR     = "ocr"
	SourceBarcode = "barcode"
	SourceMerged  = "merged"
)

func newEvaluation(name, display string, s *IngredientScore) IngredientEvaluation {
	ev := IngredientEvaluation{
		Name:        name,
		DisplayName: display,
		Hazards:     []string{},
	}
	if s != nil {
		v := rating.Clamp(s.Score)
		ev.SafetyScore = &v
		ev.Hazards = append([]string{}, s.Hazards...)
		ev.Source = s.Source
	}
	ev.Rating = rating.ForScore(ev.SafetyScore)
	ev.Risk = ev.Rating.Risk()
	ev.Color = ev.Rating.Color()
	return ev
}
