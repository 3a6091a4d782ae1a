// internal/workers/catalog/translate-dynamic-filters/handler.go
package translatedynamicfilters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront-workers/internal/catalog/filters"
	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "translate-dynamic-filters"

// Catalog resolves the filter configuration of a category section.
type Catalog interface {
	Lookup(categoryID, sectionID string) ([]filters.FilterConfig, bool)
}

// TokenIssuer hands out request tokens for the stale response guard.
type TokenIssuer interface {
	Issue(ctx context.Context, scope string) (int64, error)
}

type Handler struct {
	config     *Config
	catalog    Catalog
	guard      TokenIssuer
	translator *filters.Translator
	errors     *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the worker. guard may be nil, in which case no request
// token is issued.
func NewHandler(config *Config, catalog Catalog, guard TokenIssuer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		catalog:    catalog,
		guard:      guard,
		translator: filters.NewTranslator(log),
		errors:     errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	start := time.Now()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("parse variables: %v", err))
	}

	result := validation.ValidateInput(vars, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidFilterFormatError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	configs, err := h.resolveFilters(input)
	if err != nil {
		return nil, err
	}

	result := h.translator.Translate(configs, input.State)
	for _, d := range result.Dropped {
		metrics.FilterSelectionsDropped.WithLabelValues(d.Reason).Inc()
	}

	output := &Output{
		QueryParams: result.Query(),
		ParamCount:  result.Params.Len(),
		Dropped:     result.Dropped,
		ListingKey:  requestguard.ListingKey(input.CategoryID, input.SectionID),
	}
	if output.Dropped == nil {
		output.Dropped = []filters.Drop{}
	}

	if input.SessionID != "" && h.guard != nil {
		token, err := h.guard.Issue(ctx, requestguard.Scope(input.SessionID, output.ListingKey))
		if err != nil {
			return nil, errors.NewRequestGuardFailedError(err)
		}
		output.RequestToken = token
	}

	h.logger.Info("filters translated", map[string]interface{}{
		"categoryId":   input.CategoryID,
		"sectionId":    input.SectionID,
		"paramCount":   output.ParamCount,
		"dropped":      len(output.Dropped),
		"requestToken": output.RequestToken,
	})
	return output, nil
}

// resolveFilters prefers filters passed with the job over the registry.
func (h *Handler) resolveFilters(input *Input) ([]filters.FilterConfig, error) {
	if len(input.Filters) > 0 {
		for _, cfg := range input.Filters {
			if err := cfg.Validate(); err != nil {
				return nil, errors.NewInvalidFilterFormatError(err.Error())
			}
		}
		return input.Filters, nil
	}

	if input.CategoryID == "" {
		return nil, errors.NewInvalidFilterFormatError("categoryId is required when no filters are supplied")
	}
	if h.catalog == nil {
		return nil, errors.NewCatalogNotFoundError(input.CategoryID, input.SectionID)
	}
	configs, ok := h.catalog.Lookup(input.CategoryID, input.SectionID)
	if !ok {
		return nil, errors.NewCatalogNotFoundError(input.CategoryID, input.SectionID)
	}
	return configs, nil
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
