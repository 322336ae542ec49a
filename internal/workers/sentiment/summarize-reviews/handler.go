package summarizereviews

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cosmetic-insights/internal/analytics/sentiment"
	"cosmetic-insights/internal/common/errors"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/metrics"
	"cosmetic-insights/internal/common/observability"
)

const TaskType = "summarize-reviews"

// Handler processes jobs of type TaskType.
type Handler struct {
	config       *Config
	summarizer   Summarizer
	reviews      ReviewSource
	telemetry    *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Config     *Config
	Summarizer Summarizer
	// Reviews may be nil; jobs must then carry their reviews inline.
	Reviews   ReviewSource
	Telemetry *observability.Observability
	Logger    logger.Logger
}

// NewHandler validates the config and wires the handler's collaborators.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Summarizer == nil {
		return nil, fmt.Errorf("%s: summarizer is required", TaskType)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		summarizer:   opts.Summarizer,
		reviews:      opts.Reviews,
		telemetry:    opts.Telemetry,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

// Handle is the job worker entry point. It completes the job or reports
// the failure to the engine.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var output *Output
	input, err := h.parseInput(job)
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
		h.telemetry.RecordJobProcessed(ctx, TaskType, "failed")
		h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
		return
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.telemetry.RecordJobProcessed(ctx, TaskType, "completed")
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := GetInputSchema().ValidateJSON(job.GetVariables())
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute summarizes the inline reviews, or the stored reviews of
// input.ProductID when none are inline.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if input.TopN < 0 || input.TopN > h.config.MaxTopN {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("topN must be between 1 and %d", h.config.MaxTopN))
	}

	reviews, err := h.loadReviews(ctx, input)
	if err != nil {
		return nil, err
	}

	var summary *sentiment.Summary
	if input.TopN > 0 {
		summary, err = h.summarizer.SummarizeTop(ctx, reviews, input.TopN)
	} else {
		summary, err = h.summarizer.Summarize(ctx, reviews)
	}
	if err != nil {
		return nil, h.mapError(err)
	}

	if skipped := summary.ClassificationFailures; skipped > 0 {
		metrics.ReviewsSkipped.WithLabelValues("classification").Add(float64(skipped))
	}
	if skipped := summary.ExtractionFailures; skipped > 0 {
		metrics.ReviewsSkipped.WithLabelValues("extraction").Add(float64(skipped))
	}
	h.telemetry.RecordItems(ctx, "sentiment", summary.ReviewsReceived)

	h.logger.Info("reviews summarized", map[string]interface{}{
		"productId":    input.ProductID,
		"reviews":      summary.ReviewsReceived,
		"totalReviews": summary.TotalReviews,
		"topIssues":    len(summary.TopIssues),
	})

	return &Output{ProductID: input.ProductID, SentimentSummary: summary}, nil
}

func (h *Handler) loadReviews(ctx context.Context, input *Input) ([]sentiment.Review, error) {
	if input.Reviews != nil {
		return input.Reviews, nil
	}
	if input.ProductID == "" {
		return nil, errors.NewInvalidInputError("either reviews or productId is required")
	}
	if h.reviews == nil {
		return nil, errors.NewInvalidInputError("no review store configured; reviews must be supplied inline")
	}

	reviews, err := h.reviews.ReviewsForProduct(ctx, input.ProductID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return reviews, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewLookupTimeoutError("review summary")
	case stderrors.Is(err, sentiment.ErrSummaryUnavailable), stderrors.Is(err, sentiment.ErrSourceUnavailable):
		metrics.AggregationUnavailable.WithLabelValues("sentiment").Inc()
		return errors.NewReviewSourceUnavailableError(err)
	default:
		return errors.NewInternalError(err)
	}
}

// GetTaskType returns TaskType.
func (h *Handler) GetTaskType() string {
	return TaskType
}
