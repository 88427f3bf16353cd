package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/repositories"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
)

// CardStatusReader is the tracker-read capability boundary
type CardStatusReader interface {
	GetCardStatus(ctx context.Context, cardID string) (trello.CardStatus, error)
}

// Worker periodically re-derives the external status of every open task with
// an external handle and updates the task store. It is the only background
// writer and at most one reconciliation run is ever in flight.
type Worker struct {
	taskRepo repositories.TaskRepository
	tracker  CardStatusReader
	cfg      *config.ReconcileConfig
	clock    clock.Clock
	logger   *zap.Logger

	mu        sync.Mutex
	running   bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	runActive atomic.Bool
}

// NewWorker constructs a reconciliation worker. A nil clk falls back to the
// real clock; tests inject a mock clock to drive ticks deterministically.
func NewWorker(
	taskRepo repositories.TaskRepository,
	tracker CardStatusReader,
	cfg *config.ReconcileConfig,
	clk clock.Clock,
	logger *zap.Logger,
) *Worker {
	if clk == nil {
		clk = clock.New()
	}
	return &Worker{
		taskRepo: taskRepo,
		tracker:  tracker,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
	}
}

// Start begins scheduling reconciliation runs on the configured interval
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("reconciliation worker already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})

	if w.logger != nil {
		w.logger.Info("starting reconciliation worker",
			zap.Duration("interval", w.cfg.Interval),
			zap.Int("missing_tolerance", w.cfg.MissingTolerance),
		)
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop prevents new runs and waits for any in-flight run to reach its next
// task boundary and exit
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return fmt.Errorf("reconciliation worker not running")
	}

	close(w.stopChan)
	w.wg.Wait()
	w.running = false

	if w.logger != nil {
		w.logger.Info("reconciliation worker stopped")
	}
	return nil
}

// loop schedules runs. A tick that fires while a run is still in flight is
// skipped outright, never queued: two concurrent runs would mean two writers
// for the same task within one cycle.
func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clock.Ticker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.RunOnce(ctx)
			}()
		}
	}
}

// RunOnce performs one bounded reconciliation scan. A capability error for
// one task is recorded on that task and the scan continues; the run itself
// never fails. Exported so tests and operators can force a run; the
// single-run-in-flight guard lives here, so a forced run can never
// interleave with a tick-driven one.
func (w *Worker) RunOnce(ctx context.Context) {
	if !w.runActive.CompareAndSwap(false, true) {
		if w.logger != nil {
			w.logger.Warn("previous reconciliation run still in flight, skipping")
		}
		return
	}
	defer w.runActive.Store(false)

	w.scan(ctx)
}

// scan is the body of one reconciliation run
func (w *Worker) scan(ctx context.Context) {
	tasks, err := w.taskRepo.ListByStatus(ctx, entities.TaskStatusDispatched, entities.TaskStatusExternalOpen)
	if err != nil {
		if w.logger != nil {
			w.logger.Error("failed to list open tasks", zap.Error(err))
		}
		return
	}

	var reconciled, done, missing, errored int
	for i := range tasks {
		// Abort at the task boundary on shutdown, never mid-update
		select {
		case <-w.stopChan:
			if w.logger != nil {
				w.logger.Info("reconciliation run aborted by shutdown",
					zap.Int("reconciled", reconciled),
					zap.Int("remaining", len(tasks)-i),
				)
			}
			return
		case <-ctx.Done():
			return
		default:
		}

		task := tasks[i]
		if !task.HasExternalState() || task.IsTerminal() {
			continue
		}

		switch w.reconcileTask(ctx, &task) {
		case trello.CardStatusDone:
			done++
		case trello.CardStatusMissing:
			missing++
		case "":
			errored++
		}
		reconciled++
	}

	if w.logger != nil {
		w.logger.Info("reconciliation run complete",
			zap.Int("scanned", len(tasks)),
			zap.Int("reconciled", reconciled),
			zap.Int("done", done),
			zap.Int("missing", missing),
			zap.Int("errors", errored),
		)
	}
}

// reconcileTask re-reads one task's external state and applies the status
// transition. Returns the observed card status, empty on query failure.
func (w *Worker) reconcileTask(ctx context.Context, task *entities.AutomationTask) trello.CardStatus {
	if task.ExternalRef == nil || *task.ExternalRef == "" {
		// Should not happen for a dispatched card; nothing can ever be
		// observed for it, so it is dead
		w.recordFailure(ctx, task, "task has no external ref")
		return ""
	}

	status, err := w.tracker.GetCardStatus(ctx, *task.ExternalRef)
	if err != nil {
		recErr := &entities.ReconciliationError{TaskID: task.ID, Err: err}
		if w.logger != nil {
			w.logger.Warn("card status query failed", zap.Error(recErr))
		}
		if _, uerr := w.taskRepo.Update(ctx, task.ID, func(t *entities.AutomationTask) error {
			t.RecordError(recErr.Error())
			return nil
		}); uerr != nil && w.logger != nil {
			w.logger.Error("failed to record reconciliation error",
				zap.String("task_id", task.ID.String()),
				zap.Error(uerr),
			)
		}
		return ""
	}

	_, err = w.taskRepo.Update(ctx, task.ID, func(t *entities.AutomationTask) error {
		switch status {
		case trello.CardStatusOpen:
			t.MarkExternalOpen()
		case trello.CardStatusDone:
			t.MarkExternalDone()
		case trello.CardStatusMissing:
			t.ObserveMissing(w.cfg.MissingTolerance)
		default:
			return fmt.Errorf("unknown card status %q", status)
		}
		return nil
	})
	if err != nil && w.logger != nil {
		w.logger.Error("failed to apply reconciliation transition",
			zap.String("task_id", task.ID.String()),
			zap.String("observed", string(status)),
			zap.Error(err),
		)
	}
	return status
}

func (w *Worker) recordFailure(ctx context.Context, task *entities.AutomationTask, msg string) {
	if _, err := w.taskRepo.Update(ctx, task.ID, func(t *entities.AutomationTask) error {
		t.MarkFailed(msg)
		return nil
	}); err != nil && w.logger != nil {
		w.logger.Error("failed to mark task as failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
}
