// internal/workers/tradein/fetch-trade-in-hierarchy/handler.go
package fetchtradeinhierarchy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/tradein"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "fetch-trade-in-hierarchy"

// HierarchySource is satisfied by *tradein.Repository.
type HierarchySource interface {
	Hierarchy(ctx context.Context) (*tradein.Hierarchy, error)
}

type Handler struct {
	config *Config
	source HierarchySource
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, source HierarchySource, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		source: source,
		errors: errors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	start := time.Now()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewInputParsingError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	hierarchy, err := h.source.Hierarchy(ctx)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewTimeoutError("trade-in hierarchy", err)
		}
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewHierarchyQueryFailedError("hierarchy", err)
	}

	output := &Output{
		Categories: hierarchy.Categories,
		LoadedAt:   hierarchy.LoadedAt,
	}
	if input.CategoryID != "" {
		category, ok := hierarchy.Category(input.CategoryID)
		if !ok {
			return nil, errors.NewTradeInCategoryNotFoundError(input.CategoryID)
		}
		output.Categories = []tradein.Category{category}
	}
	if output.Categories == nil {
		output.Categories = []tradein.Category{}
	}

	h.logger.Info("trade-in hierarchy served", map[string]interface{}{
		"categoryId": input.CategoryID,
		"categories": len(output.Categories),
		"loadedAt":   output.LoadedAt,
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	d := h.errors.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(d.Original.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
