package summarizereviews

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cosmetic-insights/internal/analytics/sentiment"
	"cosmetic-insights/internal/common/errors"
	"cosmetic-insights/internal/common/logger"
)

// ==========================
// Mocks
// ==========================

type MockReviewSource struct {
	mock.Mock
}

func (m *MockReviewSource) ReviewsForProduct(ctx context.Context, productID string) ([]sentiment.Review, error) {
	args := m.Called(ctx, productID)
	if r, ok := args.Get(0).([]sentiment.Review); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func stars(v float64) *float64 { return &v }

func sampleReviews() []sentiment.Review {
	return []sentiment.Review{
		{ID: "1", Rating: stars(5), Text: "Absolutely love this cream, skin is soft and smooth."},
		{ID: "2", Rating: stars(1), Text: "Gave me a rash and my skin started peeling badly."},
		{ID: "3", Rating: stars(2), Text: "Too greasy for my oily skin and caused a breakout."},
		{ID: "4", Rating: stars(3), Text: "ok"},
		{ID: "5", Sentiment: "Negative", SentimentScore: stars(-0.4), Text: "Burning sensation and redness after use."},
	}
}

func newSummarizer(t *testing.T, c sentiment.Classifier) *sentiment.Summarizer {
	if c == nil {
		c = sentiment.NewRuleClassifier()
	}
	s, err := sentiment.NewSummarizer(sentiment.SummarizerOptions{
		Classifier: c,
		Extractor:  sentiment.NewKeywordExtractor(nil),
		Logger:     logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return s
}

func createTestHandler(t *testing.T, s Summarizer, reviews ReviewSource) *Handler {
	opts := HandlerOptions{Summarizer: s, Logger: logger.NewTestLogger(t)}
	if reviews != nil {
		opts.Reviews = reviews
	}
	h, err := NewHandler(opts)
	require.NoError(t, err)
	return h
}

func createMockJob(variables map[string]interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       99,
		Type:      TaskType,
		Retries:   3,
		Variables: string(raw),
	}}
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_InlineReviews(t *testing.T) {
	store := new(MockReviewSource)
	h := createTestHandler(t, newSummarizer(t, nil), store)

	out, err := h.Execute(context.Background(), &Input{ProductID: "B001", Reviews: sampleReviews(), TopN: 3})
	require.NoError(t, err)

	summary := out.SentimentSummary
	assert.Equal(t, "B001", out.ProductID)
	assert.Equal(t, 5, summary.TotalReviews)
	assert.Equal(t, sentiment.Distribution{Positive: 1, Neutral: 1, Negative: 3}, summary.Distribution)
	assert.Equal(t, 2.8, summary.AverageRating)
	assert.Len(t, summary.TopIssues, 3)
	assert.Equal(t, sentiment.IssueCount{Issue: "rash", Count: 2}, summary.TopIssues[0])

	store.AssertNotCalled(t, "ReviewsForProduct", mock.Anything, mock.Anything)
}

func TestHandler_Execute_DefaultTopN(t *testing.T) {
	h := createTestHandler(t, newSummarizer(t, nil), nil)

	out, err := h.Execute(context.Background(), &Input{Reviews: sampleReviews()})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out.SentimentSummary.TopIssues), sentiment.DefaultTopN)
}

func TestHandler_Execute_LoadsFromStore(t *testing.T) {
	store := new(MockReviewSource)
	store.On("ReviewsForProduct", mock.Anything, "B001").Return(sampleReviews()[:2], nil)

	h := createTestHandler(t, newSummarizer(t, nil), store)
	out, err := h.Execute(context.Background(), &Input{ProductID: "B001"})
	require.NoError(t, err)

	assert.Equal(t, 2, out.SentimentSummary.ReviewsReceived)
	assert.Equal(t, 1, out.SentimentSummary.Distribution.Positive)
	assert.Equal(t, 1, out.SentimentSummary.Distribution.Negative)
	store.AssertExpectations(t)
}

func TestHandler_Execute_EmptyInlineReviews(t *testing.T) {
	h := createTestHandler(t, newSummarizer(t, nil), nil)

	out, err := h.Execute(context.Background(), &Input{Reviews: []sentiment.Review{}})
	require.NoError(t, err)
	assert.Equal(t, 0, out.SentimentSummary.TotalReviews)
	assert.NotNil(t, out.SentimentSummary.TopIssues)
	assert.Empty(t, out.SentimentSummary.TopIssues)
}

func TestHandler_Execute_Errors(t *testing.T) {
	unavailable := sentiment.ClassifierFunc(func(context.Context, sentiment.Review) (sentiment.Verdict, error) {
		return sentiment.Verdict{}, fmt.Errorf("%w: model offline", sentiment.ErrSourceUnavailable)
	})

	tests := []struct {
		name     string
		setup    func(store *MockReviewSource)
		c        sentiment.Classifier
		input    *Input
		wantCode errors.ErrorCode
	}{
		{
			name:     "nil input",
			input:    nil,
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "nothing to summarize",
			input:    &Input{},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "topN above cap",
			input:    &Input{Reviews: sampleReviews(), TopN: 500},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name: "review store down",
			setup: func(store *MockReviewSource) {
				store.On("ReviewsForProduct", mock.Anything, "B001").
					Return(nil, fmt.Errorf("%w: connection refused", sentiment.ErrSourceUnavailable))
			},
			input:    &Input{ProductID: "B001"},
			wantCode: errors.ErrCodeReviewSourceUnavailable,
		},
		{
			name: "review store timed out",
			setup: func(store *MockReviewSource) {
				store.On("ReviewsForProduct", mock.Anything, "B001").
					Return(nil, fmt.Errorf("%w: %w", sentiment.ErrSourceUnavailable, context.DeadlineExceeded))
			},
			input:    &Input{ProductID: "B001"},
			wantCode: errors.ErrCodeLookupTimeout,
		},
		{
			name:     "classifier down",
			c:        unavailable,
			input:    &Input{Reviews: sampleReviews()},
			wantCode: errors.ErrCodeReviewSourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockReviewSource)
			if tt.setup != nil {
				tt.setup(store)
			}
			h := createTestHandler(t, newSummarizer(t, tt.c), store)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, errors.IsRetryableErrorCode(tt.wantCode), stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_NoStoreConfigured(t *testing.T) {
	h := createTestHandler(t, newSummarizer(t, nil), nil)

	_, err := h.Execute(context.Background(), &Input{ProductID: "B001"})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.AsStandardError(err).Code)
}

// ==========================
// Input parsing
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, newSummarizer(t, nil), nil)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{"product only", map[string]interface{}{"productId": "B001"}, false},
		{"reviews only", map[string]interface{}{"reviews": []interface{}{map[string]interface{}{"text": "nice", "rating": 4}}}, false},
		{"null rating", map[string]interface{}{"reviews": []interface{}{map[string]interface{}{"text": "nice", "rating": nil}}}, false},
		{"neither", map[string]interface{}{"topN": 3}, true},
		{"zero topN", map[string]interface{}{"productId": "B001", "topN": 0}, true},
		{"zero rating", map[string]interface{}{"reviews": []interface{}{map[string]interface{}{"text": "nice", "rating": 0}}}, true},
		{"rating above five", map[string]interface{}{"reviews": []interface{}{map[string]interface{}{"text": "nice", "rating": 7}}}, true},
		{"rating as text", map[string]interface{}{"reviews": []interface{}{map[string]interface{}{"rating": "five"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.AsStandardError(err).Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
