package evaluateingredients

import (
	"context"

	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/common/aws"
)

// Input is the job variables the worker reads.
type Input struct {
	Ingredients []string            `json:"ingredients"`
	Source      string              `json:"source,omitempty"`
	ProductInfo *safety.ProductInfo `json:"productInfo,omitempty"`
	ReportID    string              `json:"reportId,omitempty"`
}

// Output is the job variables the worker sets on completion.
type Output struct {
	ReportID       string                      `json:"reportId"`
	SafetyReport   *safety.ProductSafetyReport `json:"safetyReport"`
	AlertMessageID string                      `json:"alertMessageId,omitempty"`
}

// Evaluator is satisfied by *safety.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, names []string) (*safety.ProductSafetyReport, error)
}

// AlertPublisher is satisfied by *aws.AlertPublisher.
type AlertPublisher interface {
	PublishSafetyAlert(ctx context.Context, alert aws.SafetyAlert) (string, error)
}
