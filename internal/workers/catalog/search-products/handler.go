// internal/workers/catalog/search-products/handler.go
package searchproducts

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/workers/catalog/search-products/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "search-products"
)

// TokenChecker is the read side of the stale response guard.
type TokenChecker interface {
	IsCurrent(ctx context.Context, scope string, token int64) (bool, error)
}

type Handler struct {
	config *Config
	client *elasticsearch.Client
	guard  TokenChecker
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, guard TokenChecker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: client,
		guard:  guard,
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
	if input == nil {
		return nil, errors.NewInputValidationError("input cannot be nil")
	}

	index := input.IndexName
	if index == "" {
		index = h.config.DefaultIndex
	}
	page, size := h.normalizePagination(input.Pagination)
	scope := requestguard.Scope(input.SessionID, input.ListingKey)

	// A newer listing request may already be in flight; skip the query.
	if stale, err := h.isStale(ctx, scope, input.RequestToken); err != nil {
		return nil, err
	} else if stale {
		return h.staleOutput(page, size, "before query"), nil
	}

	result, err := queries.Execute(ctx, h.client, queries.SearchQuery{
		Index:  index,
		Params: input.QueryParams,
		From:   (page - 1) * size,
		Size:   size,
		SortBy: input.SortBy,
	})
	if err != nil {
		return nil, h.mapError(ctx, index, err)
	}

	for _, ig := range result.Ignored {
		h.logger.Warn("query parameter ignored", map[string]interface{}{
			"param":  ig.Name,
			"reason": ig.Reason,
		})
	}

	if stale, err := h.isStale(ctx, scope, input.RequestToken); err != nil {
		return nil, err
	} else if stale {
		return h.staleOutput(page, size, "after query"), nil
	}

	totalPages := 0
	if result.TotalHits > 0 {
		totalPages = int((result.TotalHits + int64(size) - 1) / int64(size))
	}

	h.logger.Info("products found", map[string]interface{}{
		"index":      index,
		"totalHits":  result.TotalHits,
		"returned":   len(result.Products),
		"page":       page,
		"size":       size,
		"tookMillis": result.Took,
	})

	return &Output{
		Products:   result.Products,
		TotalHits:  result.TotalHits,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
		Took:       result.Took,
	}, nil
}

func (h *Handler) normalizePagination(p Pagination) (page, size int) {
	page, size = p.Page, p.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = h.config.DefaultSize
	}
	if size > h.config.MaxSize {
		size = h.config.MaxSize
	}
	return page, size
}

func (h *Handler) isStale(ctx context.Context, scope string, token int64) (bool, error) {
	if h.guard == nil {
		return false, nil
	}
	current, err := h.guard.IsCurrent(ctx, scope, token)
	if err != nil {
		return false, errors.NewRequestGuardFailedError(err)
	}
	return !current, nil
}

func (h *Handler) staleOutput(page, size int, when string) *Output {
	metrics.StaleSearchResponses.Inc()
	h.logger.Info("stale listing request discarded", map[string]interface{}{"when": when})
	return &Output{
		Products: []models.Product{},
		Page:     page,
		Size:     size,
		Stale:    true,
	}
}

func (h *Handler) mapError(ctx context.Context, index string, err error) error {
	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewSearchTimeoutError(index)
	case stderrors.Is(err, queries.ErrIndexNotFound):
		return errors.NewIndexNotFoundError(index)
	case stderrors.Is(err, queries.ErrUnknownSort):
		return errors.NewInputValidationError(err.Error())
	case stderrors.Is(err, queries.ErrSearchFailed):
		return errors.NewSearchQueryFailedError(index, err)
	}
	return errors.NewSearchQueryFailedError(index, fmt.Errorf("%w: %v", queries.ErrSearchFailed, err))
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
	_, err = cmd.Send(context.Background())
	if err != nil {
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
