// internal/workers/tradein/advance-trade-in-wizard/handler.go
package advancetradeinwizard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/tradein"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "advance-trade-in-wizard"

type Handler struct {
	config *Config
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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
		return nil, errors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(vars, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	return &input, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	w := input.Wizard
	if w == nil || w.Stage == 0 {
		w = tradein.NewWizard()
	}
	from := w.Stage

	if err := w.Apply(input.Action); err != nil {
		return nil, mapWizardError(err)
	}

	output := &Output{
		Wizard:       w,
		Stage:        w.Stage,
		Disqualified: w.Disqualified,
		Grade:        w.Grade,
		Completed:    w.Completed,
	}
	if key, err := w.DeviceKey(); err == nil {
		output.DeviceKey = key.String()
	}

	fields := map[string]interface{}{
		"action":       string(input.Action.Type),
		"fromStage":    int(from),
		"stage":        int(w.Stage),
		"disqualified": w.Disqualified,
		"completed":    w.Completed,
	}
	if w.Disqualified {
		h.logger.Info("trade-in disqualified", fields)
	} else {
		h.logger.Info("wizard advanced", fields)
	}
	return output, nil
}

func mapWizardError(err error) error {
	switch {
	case stderrors.Is(err, tradein.ErrDisqualified):
		return errors.NewTradeInDisqualifiedError()
	case stderrors.Is(err, tradein.ErrInvalidDeviceKey):
		return errors.NewInvalidDeviceKeyError(err.Error())
	case stderrors.Is(err, tradein.ErrWrongStage), stderrors.Is(err, tradein.ErrUnknownAction):
		return errors.NewInvalidWizardActionError(err.Error())
	case stderrors.Is(err, tradein.ErrIncomplete), stderrors.Is(err, tradein.ErrInvalidIMEI):
		return errors.NewInputValidationError(err.Error())
	}
	return errors.NewInternalError(err)
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
