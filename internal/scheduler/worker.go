package scheduler

import (
	"context"
	"fmt"

	"tramita_backend/internal/engine"
	"tramita_backend/internal/telemetry"
	"tramita_backend/platform/config"
	"tramita_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes sweep tasks from the asynq queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine *engine.Engine
	lock   *SweepLock
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, eng *engine.Engine, lock *SweepLock, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: eng,
		lock:   lock,
		log:    log,
	}

	mux.HandleFunc(TaskWorkflowSweep, w.handleWorkflowSweep)

	return w, nil
}

func (w *Worker) handleWorkflowSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWorkflowSweepPayload(task)
	if err != nil {
		return err
	}

	now, err := payload.At()
	if err != nil {
		return fmt.Errorf("invalid asOf: %w", err)
	}

	acquired, release, err := w.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		// A sweep is already in flight; this invocation is dropped, not
		// queued behind it. The next interval covers the missed pass.
		w.log.Info("sweep skipped, lock held elsewhere")
		telemetry.SweepsSkipped.Inc()
		return nil
	}
	defer release()

	result, err := w.engine.RunSweep(ctx, now)
	if err != nil {
		telemetry.SweepsFailed.Inc()
		return err
	}
	telemetry.ObserveSweep(result)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("sweep worker stopped", "error", err)
	}
}
