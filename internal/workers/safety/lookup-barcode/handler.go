package lookupbarcode

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cosmetic-insights/internal/common/errors"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/metrics"
	"cosmetic-insights/internal/common/observability"
	"cosmetic-insights/internal/sources/beautyfacts"
)

const TaskType = "lookup-barcode"

// Handler processes jobs of type TaskType.
type Handler struct {
	config       *Config
	products     ProductLookup
	telemetry    *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler validates the config and wires the handler's collaborators.
func NewHandler(config *Config, products ProductLookup, telemetry *observability.Observability, log logger.Logger) (*Handler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if products == nil {
		return nil, fmt.Errorf("%s: product lookup is required", TaskType)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		products:     products,
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

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.run(ctx, job)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
		h.recordJob(ctx, "failed", startTime)
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
	h.recordJob(ctx, "completed", startTime)
}

// recordJob reports the job outcome and its duration to telemetry.
func (h *Handler) recordJob(ctx context.Context, status string, start time.Time) {
	h.telemetry.RecordJobProcessed(ctx, TaskType, status)
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

func (h *Handler) run(ctx context.Context, job entities.Job) (*Output, error) {
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
	return h.Execute(ctx, &input)
}

// Execute resolves a barcode to product details and an ingredient list.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	barcode, err := beautyfacts.NormalizeBarcode(input.Barcode)
	if err != nil {
		return nil, errors.NewInvalidBarcodeError(input.Barcode)
	}

	product, err := h.products.GetProduct(ctx, barcode)
	switch {
	case err == nil:
	case stderrors.Is(err, beautyfacts.ErrProductNotFound):
		h.logger.Info("barcode not found", map[string]interface{}{"barcode": barcode})
		return &Output{Found: false, Barcode: barcode, Ingredients: []string{}}, nil
	case stderrors.Is(err, beautyfacts.ErrInvalidBarcode):
		return nil, errors.NewInvalidBarcodeError(input.Barcode)
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewLookupTimeoutError("barcode lookup")
	default:
		return nil, errors.NewBarcodeLookupFailedError(barcode, err)
	}

	ingredients := product.IngredientNames()
	h.logger.Info("barcode resolved", map[string]interface{}{
		"barcode":     barcode,
		"product":     product.ProductName,
		"ingredients": len(ingredients),
	})
	h.telemetry.RecordItems(ctx, "barcode", len(ingredients))

	return &Output{
		Found:           true,
		Barcode:         barcode,
		ProductInfo:     product.ProductInfo(),
		Ingredients:     ingredients,
		IngredientsText: product.IngredientsText,
	}, nil
}

// GetTaskType returns TaskType.
func (h *Handler) GetTaskType() string {
	return TaskType
}
