// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobOpener is the part of zbc.Client that opens job workers.
type JobOpener interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

// Manager opens one Zeebe job worker per enabled task type and closes them
// together on shutdown.
type Manager struct {
	client  JobOpener
	obs     *observability.Observability
	logger  logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

var _ JobOpener = zbc.Client(nil)

func NewManager(client JobOpener, obs *observability.Observability, log logger.Logger) *Manager {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Manager{
		client:  client,
		obs:     obs,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in cfg.
func (m *Manager) Start(taskType string, cfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !cfg.Enabled {
		m.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := m.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, m.obs, handler)).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Name(taskType).
		Open()

	m.mu.Lock()
	m.workers[taskType] = jw
	m.mu.Unlock()

	m.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
	})
	return true
}

// Running lists the task types with an open worker.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.workers))
	for taskType := range m.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for taskType, jw := range m.workers {
		jw.Close()
		jw.AwaitClose()
		m.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	m.workers = make(map[string]worker.JobWorker)
}

// Instrument wraps a handler with a span and the OpenTelemetry job metrics.
func Instrument(taskType string, obs *observability.Observability, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		ctx, span := obs.StartSpan(context.Background(), taskType, job.Key)
		defer span.End()

		start := time.Now()
		handler(client, job)
		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}
