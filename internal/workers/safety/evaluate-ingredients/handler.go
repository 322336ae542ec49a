package evaluateingredients

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"cosmetic-insights/internal/analytics/rating"
	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/common/aws"
	"cosmetic-insights/internal/common/errors"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/metrics"
	"cosmetic-insights/internal/common/observability"
)

const TaskType = "evaluate-ingredients"

// Handler processes jobs of type TaskType.
type Handler struct {
	config       *Config
	evaluator    Evaluator
	alerts       AlertPublisher
	telemetry    *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Config    *Config
	Evaluator Evaluator
	// Alerts may be nil when alerting is disabled.
	Alerts    AlertPublisher
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
	if opts.Evaluator == nil {
		return nil, fmt.Errorf("%s: evaluator is required", TaskType)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		evaluator:    opts.Evaluator,
		alerts:       opts.Alerts,
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

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.telemetry.RecordJobProcessed(ctx, TaskType, "completed")
			h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
			return
		}
	}

	bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	h.telemetry.RecordJobProcessed(ctx, TaskType, "failed")
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := GetInputSchema().ValidateJSON(job.GetVariables())
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return &input, nil
}

// Execute evaluates the ingredient list and, when alerts are enabled,
// publishes an alert for Poor-rated products.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	report, err := h.evaluator.Evaluate(ctx, input.Ingredients)
	if err != nil {
		switch {
		case stderrors.Is(err, context.DeadlineExceeded):
			return nil, errors.NewLookupTimeoutError("ingredient evaluation")
		case stderrors.Is(err, safety.ErrAggregationUnavailable):
			metrics.AggregationUnavailable.WithLabelValues("safety").Inc()
			return nil, errors.NewSourceUnavailableError(err)
		default:
			return nil, errors.NewInternalError(err)
		}
	}

	report.Source = input.Source
	if input.ProductInfo != nil {
		info := *input.ProductInfo
		report.ProductInfo = &info
	}
	metrics.IngredientsUnrated.WithLabelValues("not_found").Add(float64(report.UnratedCount - report.LookupFailures))
	metrics.IngredientsUnrated.WithLabelValues("lookup_failed").Add(float64(report.LookupFailures))
	h.telemetry.RecordItems(ctx, "safety", len(report.Ingredients))

	output := &Output{
		ReportID:     input.ReportID,
		SafetyReport: report,
	}
	if output.ReportID == "" {
		output.ReportID = uuid.NewString()
	}

	if h.shouldAlert(report) {
		id, err := h.alerts.PublishSafetyAlert(ctx, buildAlert(output.ReportID, report))
		if err != nil {
			return nil, errors.NewAlertPublishFailedError(err).WithMetadata("reportId", output.ReportID)
		}
		output.AlertMessageID = id
		h.logger.Info("safety alert published", map[string]interface{}{
			"reportId":  output.ReportID,
			"messageId": id,
		})
	}

	return output, nil
}

func (h *Handler) shouldAlert(report *safety.ProductSafetyReport) bool {
	return h.config.AlertsEnabled && h.alerts != nil && report.OverallRating == rating.Poor
}

func buildAlert(reportID string, report *safety.ProductSafetyReport) aws.SafetyAlert {
	alert := aws.SafetyAlert{
		ReportID:      reportID,
		OverallRating: report.OverallRating.Label(),
		AverageScore:  report.AverageScore,
		Flagged:       []string{},
	}
	if report.ProductInfo != nil {
		alert.ProductName = report.ProductInfo.Name
		alert.Brand = report.ProductInfo.Brand
		alert.Barcode = report.ProductInfo.Barcode
	}
	for _, ing := range report.Ingredients {
		if ing.Rating == rating.Poor {
			alert.Flagged = append(alert.Flagged, ing.Name)
		}
	}
	return alert
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"reportId":      output.ReportID,
		"overallRating": output.SafetyReport.OverallRating.Label(),
		"unratedCount":  output.SafetyReport.UnratedCount,
	})
}

// GetTaskType returns TaskType.
func (h *Handler) GetTaskType() string {
	return TaskType
}
