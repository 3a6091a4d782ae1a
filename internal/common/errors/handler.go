// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

type Action string

const (
	ActionRetry Action = "retry"
	ActionThrow Action = "throw"
)

// Decision is what the handler does with a failed job.
type Decision struct {
	Action   Action
	Retries  int
	BPMN     *BPMNError
	Original *StandardError
}

// ErrorHandler reports worker failures to the engine: technical errors fail
// the job with remaining retries, everything else becomes a BPMN error.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decide is the pure part of HandleJobError.
func Decide(job entities.Job, err error) Decision {
	stdErr, ok := As(err)
	if !ok {
		stdErr = NewInternalError(err)
	}
	bpmnErr := ConvertToBPMNError(stdErr)

	d := Decision{Action: ActionThrow, BPMN: bpmnErr, Original: stdErr}
	if bpmnErr.Retries > 0 && job.Retries > 0 {
		d.Action = ActionRetry
		d.Retries = bpmnErr.Retries
		if int(job.Retries) < d.Retries {
			d.Retries = int(job.Retries)
		}
		// The engine counts the current attempt, so hand back one fewer.
		d.Retries--
	}
	return d
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Decision {
	d := Decide(job, err)
	h.logError(job, d)

	vars, _ := json.Marshal(d.BPMN.ToErrorVariables())

	var sendErr error
	if d.Action == ActionRetry {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(d.Retries)).
			ErrorMessage(fmt.Sprintf("[%s] %s", d.BPMN.Code, d.BPMN.Message))
		if withVars, vErr := cmd.VariablesFromString(string(vars)); vErr == nil {
			_, sendErr = withVars.Send(ctx)
		} else {
			_, sendErr = cmd.Send(ctx)
		}
	} else {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(d.BPMN.Code).
			ErrorMessage(d.BPMN.Message)
		if withVars, vErr := cmd.VariablesFromString(string(vars)); vErr == nil {
			_, sendErr = withVars.Send(ctx)
		} else {
			_, sendErr = cmd.Send(ctx)
		}
	}

	if sendErr != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"action": string(d.Action),
			"error":  sendErr.Error(),
		})
	}
	return d
}

func (h *ErrorHandler) logError(job entities.Job, d Decision) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(d.Original.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          d.Original.Details,
		"retryable":        d.Original.Retryable,
		"action":           string(d.Action),
		"retries":          d.Retries,
		"errorCategory":    GetErrorCategory(d.Original.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
