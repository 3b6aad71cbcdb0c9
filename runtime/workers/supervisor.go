package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervisor keeps the background workers of the relay alive: the process
// health sampler and the gRPC health endpoint.
// An error or a panic restarts the worker after restartInterval, a nil
// return ends it for good. Run returns once every worker is gone.
type Supervisor struct {
	log             *slog.Logger
	metrics         *observability.Metrics
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func NewSupervisor(log *slog.Logger, metrics *observability.Metrics, restartInterval time.Duration) *Supervisor {
	return &Supervisor{log: log, metrics: metrics, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run blocks until every worker has returned.
// Stop cancels the supervised workers only, never the parent context.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	if s.stopped {
		cancel()
	}
	s.mu.Unlock()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start runs one worker under supervision in its own goroutine.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, contract.GetWorkerName(worker), worker)
	}()
}

// Stop cancels every supervised worker. Safe before Run and many times.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Supervisor) supervise(ctx context.Context, name string, worker contract.Worker) {
	for ctx.Err() == nil {
		err := runOnce(ctx, worker)
		switch {
		case err == nil:
			s.log.Info("Worker finished", "worker", name)
			return
		case ctx.Err() != nil:
			s.log.Info("Worker stopped", "worker", name)
			return
		}

		s.log.Warn("Worker failed, restarting", "worker", name, "error", err, "in", s.restartInterval)
		s.metrics.WorkerRestarts.WithLabelValues(name).Inc()
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartInterval):
		}
	}
}

// runOnce turns a panic of the worker into ErrWorkerPanic.
func runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}
