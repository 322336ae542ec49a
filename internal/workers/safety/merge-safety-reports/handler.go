package mergesafetyreports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/common/errors"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/metrics"
	"cosmetic-insights/internal/common/observability"
)

const TaskType = "merge-safety-reports"

// Handler processes jobs of type TaskType.
type Handler struct {
	config       *Config
	telemetry    *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler validates the config and wires the handler's collaborators.
func NewHandler(config *Config, telemetry *observability.Observability, log logger.Logger) (*Handler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		telemetry:    telemetry,
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

	input, err := h.parseInput(job)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
		h.recordJob(ctx, "failed", startTime)
		return
	}

	output := h.Execute(input)

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
	h.recordJob(ctx, "completed", startTime)
}

// recordJob reports the job outcome and its duration to telemetry.
func (h *Handler) recordJob(ctx context.Context, status string, start time.Time) {
	h.telemetry.RecordJobProcessed(ctx, TaskType, status)
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(start), status)
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

// Execute merges the OCR and barcode reports. It cannot fail: absent
// reports are treated as empty.
func (h *Handler) Execute(input *Input) *Output {
	if input == nil {
		input = &Input{}
	}

	report := safety.Merge(input.OCRReport, input.BarcodeReport)

	output := &Output{ReportID: input.ReportID, SafetyReport: report}
	if output.ReportID == "" {
		output.ReportID = uuid.NewString()
	}

	h.logger.Info("safety reports merged", map[string]interface{}{
		"reportId":      output.ReportID,
		"hasOcr":        input.OCRReport != nil,
		"hasBarcode":    input.BarcodeReport != nil,
		"ingredients":   len(report.Ingredients),
		"overallRating": report.OverallRating.Label(),
	})
	return output
}

// GetTaskType returns TaskType.
func (h *Handler) GetTaskType() string {
	return TaskType
}
