// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cosmetic-insights/internal/analytics/rating"
	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/analytics/sentiment"
	awsclient "cosmetic-insights/internal/common/aws"
	"cosmetic-insights/internal/common/camunda"
	"cosmetic-insights/internal/common/config"
	"cosmetic-insights/internal/common/database"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/sources/beautyfacts"
	"cosmetic-insights/internal/sources/ingredientdb"
	"cosmetic-insights/internal/sources/reviewstore"
	"cosmetic-insights/internal/sources/scorecache"

	ei "cosmetic-insights/internal/workers/safety/evaluate-ingredients"
	lb "cosmetic-insights/internal/workers/safety/lookup-barcode"
	msr "cosmetic-insights/internal/workers/safety/merge-safety-reports"
	sr "cosmetic-insights/internal/workers/sentiment/summarize-reviews"
)

const barcode = "3600523614455"

var lookupQuery = `SELECT safety_score, hazards FROM ingredient_scores WHERE normalized_name = \$1`

// pipeline is the scan process wired the way the worker manager wires it,
// with fakes in place of the external services.
type pipeline struct {
	lookup    *lb.Handler
	evaluate  *ei.Handler
	merge     *msr.Handler
	summarize *sr.Handler

	sql   sqlmock.Sqlmock
	redis *miniredis.Miniredis
	sns   *mockSNS
}

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*sns.PublishOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

const storedReviews = `{
	"hits": {
		"hits": [
			{"_id": "r1", "_source": {"product_asin": "B00CLEAN", "rating": 5, "text": "Absolutely love this cleanser", "sentiment": "positive", "sentiment_score": 0.9}},
			{"_id": "r2", "_source": {"product_asin": "B00CLEAN", "rating": 2, "text": "Gave me a rash and redness after two days", "sentiment": "negative", "sentiment_score": -0.6}},
			{"_id": "r3", "_source": {"product_asin": "B00CLEAN", "rating": 1, "text": "Left my skin dry and flaky, plus a small rash", "sentiment": "negative", "sentiment_score": -0.4}}
		]
	}
}`

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)

	// Open Beauty Facts
	obf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/product/"+barcode+".json") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status": 0}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"code": "3600523614455",
			"product": {
				"product_name": "Gentle Cleanser",
				"brands": "Acme",
				"ingredients_tags": ["en:aqua", "en:glycerin", "en:parfum"]
			}
		}`))
	}))
	t.Cleanup(obf.Close)

	// Ingredient scores behind the Redis cache
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlMock.MatchExpectationsInOrder(false)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	evaluator, err := safety.NewEvaluator(safety.EvaluatorOptions{
		Lookup:      scorecache.New(rdb, ingredientdb.New(db), time.Hour, log),
		Concurrency: 2,
		Logger:      log,
	})
	require.NoError(t, err)

	// Review store
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		MaxRetries: 1,
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			h := http.Header{}
			h.Set("X-Elastic-Product", "Elasticsearch")
			h.Set("Content-Type", "application/json")
			return &http.Response{StatusCode: http.StatusOK, Header: h, Body: io.NopCloser(strings.NewReader(storedReviews))}, nil
		}),
	})
	require.NoError(t, err)

	summarizer, err := sentiment.NewSummarizer(sentiment.SummarizerOptions{
		Classifier: sentiment.NewRuleClassifier(),
		Extractor:  sentiment.NewKeywordExtractor(sentiment.DefaultTaxonomy()),
		Logger:     log,
	})
	require.NoError(t, err)

	p := &pipeline{sql: sqlMock, redis: mr, sns: new(mockSNS)}

	p.lookup, err = lb.NewHandler(lb.DefaultConfig(), beautyfacts.NewClient(beautyfacts.Config{BaseURL: obf.URL, RatePerSecond: 100}), nil, log)
	require.NoError(t, err)

	evalCfg := ei.DefaultConfig()
	evalCfg.AlertsEnabled = true
	p.evaluate, err = ei.NewHandler(ei.HandlerOptions{
		Config:    evalCfg,
		Evaluator: evaluator,
		Alerts:    awsclient.NewAlertPublisher(awsclient.NewSNSClientWith(p.sns), "arn:aws:sns:us-east-1:000000000000:safety-alerts"),
		Logger:    log,
	})
	require.NoError(t, err)

	p.merge, err = msr.NewHandler(msr.DefaultConfig(), nil, log)
	require.NoError(t, err)

	p.summarize, err = sr.NewHandler(sr.HandlerOptions{
		Summarizer: summarizer,
		Reviews:    reviewstore.New(es, "reviews", 100),
		Logger:     log,
	})
	require.NoError(t, err)

	return p
}

func (p *pipeline) expectScore(name string, score float64, hazards string) {
	p.sql.ExpectQuery(lookupQuery).WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"safety_score", "hazards"}).AddRow(score, hazards))
}

func (p *pipeline) expectMissing(name string) {
	p.sql.ExpectQuery(lookupQuery).WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"safety_score", "hazards"}))
}

// ==========================
// Scan process
// ==========================

func TestScanProcess_BarcodeAndOCR(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.expectScore("aqua", 10, `[]`)
	p.expectScore("glycerin", 8, `[]`)
	p.expectScore("parfum", 2, `["allergen"]`)
	p.expectMissing("methylparaben")

	// barcode branch
	found, err := p.lookup.Execute(ctx, &lb.Input{Barcode: "3600-5236-14455"})
	require.NoError(t, err)
	require.True(t, found.Found)
	assert.Equal(t, barcode, found.Barcode)
	assert.Equal(t, []string{"aqua", "glycerin", "parfum"}, found.Ingredients)

	barcodeEval, err := p.evaluate.Execute(ctx, &ei.Input{
		Ingredients: found.Ingredients,
		Source:      safety.SourceBarcode,
		ProductInfo: found.ProductInfo,
		ReportID:    "scan-1",
	})
	require.NoError(t, err)
	assert.Equal(t, rating.Good, barcodeEval.SafetyReport.OverallRating)
	assert.Empty(t, barcodeEval.AlertMessageID)

	// ocr branch; aqua is served from the cache
	ocrEval, err := p.evaluate.Execute(ctx, &ei.Input{
		Ingredients: []string{"Aqua", "Methylparaben"},
		Source:      safety.SourceOCR,
		ReportID:    "scan-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ocrEval.SafetyReport.UnratedCount)
	assert.True(t, p.redis.Exists(scorecache.Key("methylparaben")))

	merged := p.merge.Execute(&msr.Input{
		OCRReport:     ocrEval.SafetyReport,
		BarcodeReport: barcodeEval.SafetyReport,
		ReportID:      "scan-1",
	})
	report := merged.SafetyReport

	assert.Equal(t, "scan-1", merged.ReportID)
	assert.Equal(t, safety.SourceMerged, report.Source)
	require.Len(t, report.Ingredients, 4)
	assert.Equal(t, []string{"aqua", "methylparaben", "glycerin", "parfum"}, names(report))
	assert.Equal(t, 1, report.UnratedCount)
	require.NotNil(t, report.AverageScore)
	assert.InDelta(t, 20.0/3, *report.AverageScore, 0.001)
	assert.Equal(t, rating.Good, report.OverallRating)
	require.NotNil(t, report.ProductInfo)
	assert.Equal(t, "Gentle Cleanser", report.ProductInfo.Name)
	assert.Equal(t, beautyfacts.SourceName, report.ProductInfo.Source)

	assert.NoError(t, p.sql.ExpectationsWereMet())
	p.sns.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScanProcess_HighRiskAlert(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.expectScore("parfum", 2, `["allergen"]`)
	p.expectScore("formaldehyde", 0.5, `["carcinogen"]`)
	p.sns.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return strings.Contains(aws.ToString(in.Message), `"reportId":"scan-2"`) &&
			strings.Contains(aws.ToString(in.Message), "formaldehyde")
	})).Return(&sns.PublishOutput{MessageId: aws.String("msg-7")}, nil)

	out, err := p.evaluate.Execute(ctx, &ei.Input{
		Ingredients: []string{"Parfum", "Formaldehyde"},
		Source:      safety.SourceOCR,
		ReportID:    "scan-2",
	})
	require.NoError(t, err)

	assert.Equal(t, rating.Poor, out.SafetyReport.OverallRating)
	assert.Equal(t, rating.RiskHigh, out.SafetyReport.OverallRisk)
	assert.Equal(t, "msg-7", out.AlertMessageID)
	p.sns.AssertExpectations(t)
}

func TestScanProcess_UnknownBarcode(t *testing.T) {
	p := newPipeline(t)

	out, err := p.lookup.Execute(context.Background(), &lb.Input{Barcode: "12345678"})
	require.NoError(t, err)
	assert.False(t, out.Found)

	// no barcode report: the merged report is the OCR one
	ocr := &safety.ProductSafetyReport{Source: safety.SourceOCR, Ingredients: []safety.IngredientEvaluation{{Name: "aqua"}}}
	merged := p.merge.Execute(&msr.Input{OCRReport: ocr})
	assert.Equal(t, safety.SourceOCR, merged.SafetyReport.Source)
}

// ==========================
// Review process
// ==========================

func TestReviewProcess_StoredReviews(t *testing.T) {
	p := newPipeline(t)

	out, err := p.summarize.Execute(context.Background(), &sr.Input{ProductID: "B00CLEAN", TopN: 2})
	require.NoError(t, err)

	s := out.SentimentSummary
	assert.Equal(t, "B00CLEAN", out.ProductID)
	assert.Equal(t, 3, s.TotalReviews)
	assert.Equal(t, 1, s.Distribution.Positive)
	assert.Equal(t, 2, s.Distribution.Negative)
	assert.InDelta(t, 8.0/3, s.AverageRating, 0.01)
	require.NotEmpty(t, s.TopIssues)
	assert.LessOrEqual(t, len(s.TopIssues), 2)
	assert.Equal(t, sentiment.IssueCount{Issue: "rash", Count: 2}, s.TopIssues[0])
}

func names(r *safety.ProductSafetyReport) []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		out = append(out, ing.Name)
	}
	return out
}

// ==========================
// Live services
// ==========================

// TestLiveConnectivity checks the configured services. It only runs with
// E2E_LIVE=1 against a running stack.
func TestLiveConnectivity(t *testing.T) {
	if os.Getenv("E2E_LIVE") != "1" {
		t.Skip("set E2E_LIVE=1 to run against live services")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	assert.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	assert.NoError(t, es.Ping(ctx), "Elasticsearch ping failed")

	engine, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
	})
	require.NoError(t, err)
	defer engine.Close()
	assert.NoError(t, engine.HealthCheck(ctx), "Zeebe topology request failed")
}
