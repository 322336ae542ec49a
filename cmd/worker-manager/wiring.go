package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/analytics/sentiment"
	"cosmetic-insights/internal/common/aws"
	"cosmetic-insights/internal/common/camunda"
	"cosmetic-insights/internal/common/config"
	"cosmetic-insights/internal/common/database"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/observability"
	"cosmetic-insights/internal/sources/beautyfacts"
	"cosmetic-insights/internal/sources/ingredientdb"
	"cosmetic-insights/internal/sources/reviewstore"
	"cosmetic-insights/internal/sources/scorecache"
	"cosmetic-insights/pkg/registry"

	ei "cosmetic-insights/internal/workers/safety/evaluate-ingredients"
	lb "cosmetic-insights/internal/workers/safety/lookup-barcode"
	msr "cosmetic-insights/internal/workers/safety/merge-safety-reports"
	sr "cosmetic-insights/internal/workers/sentiment/summarize-reviews"
)

type dependencies struct {
	postgres      *database.PostgresClient
	redis         *database.RedisClient
	elasticsearch *database.ElasticsearchClient
	telemetry     *observability.Observability
	logger        logger.Logger
}

// jobHandler is one task type ready to be subscribed.
type jobHandler struct {
	taskType      string
	enabled       bool
	maxJobsActive int
	timeout       time.Duration
	handle        worker.JobHandler
}

func buildHandlers(ctx context.Context, cfg *config.Config, deps *dependencies) ([]jobHandler, error) {
	log := deps.logger

	// Ingredient scores: postgres, optionally behind the redis cache.
	var lookup safety.ScoreLookup = ingredientdb.New(deps.postgres.DB)
	if ttl := time.Duration(cfg.Analytics.ScoreCacheTTL) * time.Second; ttl > 0 {
		lookup = scorecache.New(deps.redis.Client, lookup, ttl, log)
	}
	evaluator, err := safety.NewEvaluator(safety.EvaluatorOptions{
		Lookup:      lookup,
		Concurrency: cfg.Analytics.LookupConcurrency,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	evalCfg := ei.ConfigFromApp(cfg)
	evalOpts := ei.HandlerOptions{
		Config:    evalCfg,
		Evaluator: evaluator,
		Telemetry: deps.telemetry,
		Logger:    log,
	}
	if evalCfg.AlertsEnabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		evalOpts.Alerts = aws.NewAlertPublisher(snsClient, cfg.Integrations.AWS.SNS.TopicARN)
	}
	evalHandler, err := ei.NewHandler(evalOpts)
	if err != nil {
		return nil, err
	}

	obf := cfg.Integrations.OpenBeautyFacts
	products := beautyfacts.NewClient(beautyfacts.Config{
		BaseURL:       obf.BaseURL,
		UserAgent:     obf.UserAgent,
		Timeout:       config.GetDuration(obf.Timeout),
		RatePerSecond: obf.RatePerSecond,
	})
	barcodeCfg := lb.ConfigFromApp(cfg)
	barcodeHandler, err := lb.NewHandler(barcodeCfg, products, deps.telemetry, log)
	if err != nil {
		return nil, err
	}

	mergeCfg := msr.ConfigFromApp(cfg)
	mergeHandler, err := msr.NewHandler(mergeCfg, deps.telemetry, log)
	if err != nil {
		return nil, err
	}

	taxonomy, err := issueTaxonomy(cfg.Analytics)
	if err != nil {
		return nil, err
	}
	summarizer, err := sentiment.NewSummarizer(sentiment.SummarizerOptions{
		Classifier: sentiment.NewRuleClassifier(),
		Extractor:  sentiment.NewKeywordExtractor(taxonomy),
		TopN:       cfg.Analytics.TopIssues,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	reviewsCfg := sr.ConfigFromApp(cfg)
	reviewsHandler, err := sr.NewHandler(sr.HandlerOptions{
		Config:     reviewsCfg,
		Summarizer: summarizer,
		Reviews:    reviewstore.New(deps.elasticsearch.Client, cfg.Analytics.ReviewIndex, cfg.Analytics.MaxReviews),
		Telemetry:  deps.telemetry,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	return []jobHandler{
		{lb.TaskType, barcodeCfg.Enabled, barcodeCfg.MaxJobsActive, barcodeCfg.Timeout, barcodeHandler.Handle},
		{ei.TaskType, evalCfg.Enabled, evalCfg.MaxJobsActive, evalCfg.Timeout, evalHandler.Handle},
		{msr.TaskType, mergeCfg.Enabled, mergeCfg.MaxJobsActive, mergeCfg.Timeout, mergeHandler.Handle},
		{sr.TaskType, reviewsCfg.Enabled, reviewsCfg.MaxJobsActive, reviewsCfg.Timeout, reviewsHandler.Handle},
	}, nil
}

// issueTaxonomy loads the configured taxonomy file, or the built-in one.
// A configured minimum text length wins over the file's.
func issueTaxonomy(a config.AnalyticsConfig) (*sentiment.Taxonomy, error) {
	taxonomy := sentiment.DefaultTaxonomy()
	if a.IssueTaxonomyPath != "" {
		t, err := sentiment.LoadTaxonomy(a.IssueTaxonomyPath)
		if err != nil {
			return nil, err
		}
		taxonomy = t
	}
	if a.MinReviewTextLength > 0 {
		taxonomy.MinTextLength = a.MinReviewTextLength
	}
	return taxonomy, nil
}

const defaultCatalogPath = "configs/activity-registry.json"

// loadCatalog reads the activity registry at path, or at the default path
// when one exists, falling back to the built-in catalog.
func loadCatalog(path string, log *zap.Logger) *registry.ActivityRegistry {
	if path == "" && fileExists(defaultCatalogPath) {
		path = defaultCatalogPath
	}
	if path == "" {
		return registry.Default()
	}
	reg, err := registry.LoadRegistry(path)
	if err == nil {
		err = reg.Validate()
	}
	if err != nil {
		log.Warn("activity registry unusable, using built-in catalog", zap.String("path", path), zap.Error(err))
		return registry.Default()
	}
	return reg
}

// workerOptions builds the subscription for taskType. A timeout set in the
// workers config wins; otherwise the catalog's timeout replaces the handler
// default.
func workerOptions(cfg *config.Config, catalog *registry.ActivityRegistry, taskType string, maxJobsActive int, timeout time.Duration) camunda.WorkerOptions {
	opts := camunda.WorkerOptions{
		TaskType:      taskType,
		MaxJobsActive: maxJobsActive,
		Timeout:       timeout,
	}
	if wc, ok := cfg.Workers[taskType]; ok && wc.Timeout > 0 {
		return opts
	}
	if activity, ok := catalog.Find(taskType); ok {
		if d, err := activity.TimeoutDuration(); err == nil && d > 0 {
			opts.Timeout = d
		}
	}
	return opts
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
