package dispatch

import (
	"context"
	"fmt"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/repositories"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
	"github.com/johnquangdev/meeting-autopilot/pkg/jobcontext"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
)

// EmailSender is the mail capability boundary
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// CardCreator is the tracker-create capability boundary
type CardCreator interface {
	CreateCard(ctx context.Context, listID, title, description, idempotencyToken string) (*trello.CardRef, error)
}

// Target selects which side effects a dispatch pass performs and where
// tracker cards land
type Target struct {
	SendEmail   bool
	CreateCards bool
	BoardID     string
	ListID      string
}

// Service fans a MeetingAnalysis out into automation tasks and executes them
type Service struct {
	taskRepo repositories.TaskRepository
	mail     EmailSender
	tracker  CardCreator
	cfg      *config.DispatchConfig
	logger   *zap.Logger
}

// NewService constructs a new dispatcher
func NewService(
	taskRepo repositories.TaskRepository,
	mail EmailSender,
	tracker CardCreator,
	cfg *config.DispatchConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		taskRepo: taskRepo,
		mail:     mail,
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Dispatch creates one email_notify task per roster member and one
// tracker_card task per action item, persists them pending, then executes
// each independently. It returns the full batch with final per-task status
// and never raises for individual task failures — only for precondition
// violations.
//
// Re-running Dispatch on the same analysis produces a new, independent batch:
// there is no dedup across passes.
func (s *Service) Dispatch(ctx context.Context, analysis *entities.MeetingAnalysis, roster entities.RosterView, target Target) (uuid.UUID, []entities.AutomationTask, error) {
	if analysis == nil {
		return uuid.Nil, nil, &entities.DispatchError{Reason: "analysis is nil"}
	}
	if target.SendEmail && len(roster.Members) == 0 && s.cfg.RequireRecipients {
		return uuid.Nil, nil, &entities.DispatchError{Reason: "no recipients", Err: entities.ErrEmptyRoster}
	}
	if target.CreateCards && (target.BoardID == "" || target.ListID == "") {
		return uuid.Nil, nil, &entities.DispatchError{Reason: "missing card target", Err: entities.ErrMissingCardTarget}
	}

	batchID := uuid.New()
	tasks, err := s.createTasks(ctx, batchID, analysis, roster, target)
	if err != nil {
		return uuid.Nil, nil, err
	}

	if s.logger != nil {
		s.logger.Info("dispatch pass created",
			zap.String("batch_id", batchID.String()),
			zap.Int("task_count", len(tasks)),
		)
	}

	// Execute each task independently; one failure never blocks siblings
	results := make([]entities.AutomationTask, 0, len(tasks))
	for _, task := range tasks {
		final := s.executeTask(ctx, task)
		results = append(results, *final)
	}

	return batchID, results, nil
}

// createTasks builds and persists the pending batch. Creation order is
// deterministic: roster order first, then action-item order.
func (s *Service) createTasks(ctx context.Context, batchID uuid.UUID, analysis *entities.MeetingAnalysis, roster entities.RosterView, target Target) ([]*entities.AutomationTask, error) {
	tasks := make([]*entities.AutomationTask, 0, len(roster.Members)+len(analysis.ActionItems))

	if target.SendEmail {
		body := renderSummaryEmail(analysis)
		for _, email := range roster.Emails() {
			task, err := entities.NewEmailTask(batchID, entities.EmailPayload{
				Recipient: email,
				Subject:   "Meeting Summary & Action Items",
				Body:      body,
			})
			if err != nil {
				return nil, &entities.DispatchError{Reason: "failed to build email task", Err: err}
			}
			tasks = append(tasks, task)
		}
	}

	if target.CreateCards {
		for _, item := range analysis.ActionItems {
			task, err := entities.NewCardTask(batchID, entities.CardPayload{
				BoardID:     target.BoardID,
				ListID:      target.ListID,
				Title:       item.Description,
				Description: renderCardDescription(item),
			})
			if err != nil {
				return nil, &entities.DispatchError{Reason: "failed to build card task", Err: err}
			}
			tasks = append(tasks, task)
		}
	}

	for _, task := range tasks {
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return nil, &entities.DispatchError{Reason: "failed to persist task", Err: err}
		}
	}
	return tasks, nil
}

// executeTask attempts one task with bounded retries and records the outcome
// in the task store. The returned task carries the final status.
func (s *Service) executeTask(ctx context.Context, task *entities.AutomationTask) *entities.AutomationTask {
	var externalRef *string
	attempt := 0

	operation := func() error {
		attempt++
		// Count every real external attempt on the task record first, so a
		// crash mid-call still leaves an accurate attempt count behind
		if _, err := s.taskRepo.Update(ctx, task.ID, func(t *entities.AutomationTask) error {
			t.IncrementAttempt()
			return nil
		}); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to record attempt: %w", err))
		}

		callCtx, cancel := jobcontext.TaskBegin(ctx, task.BatchID, task.ID, string(task.Kind), s.cfg.CallTimeout)
		defer cancel()
		callCtx = jobcontext.SetRetryAttempt(callCtx, attempt-1)

		ref, err := s.callCapability(callCtx, task)
		if err != nil {
			if jobcontext.IsRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		externalRef = ref
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.BackoffBase
	bo.Multiplier = s.cfg.BackoffFactor
	bo.MaxInterval = s.cfg.BackoffCap
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.MaxAttempts-1)), ctx)

	err := backoff.Retry(operation, policy)

	final, updateErr := s.taskRepo.Update(ctx, task.ID, func(t *entities.AutomationTask) error {
		if err != nil {
			t.MarkFailed(err.Error())
		} else {
			t.MarkDispatched(externalRef)
		}
		return nil
	})
	if updateErr != nil {
		if s.logger != nil {
			s.logger.Error("failed to record task outcome",
				zap.String("task_id", task.ID.String()),
				zap.Error(updateErr),
			)
		}
		// Best effort: reflect the outcome on the in-memory copy
		if err != nil {
			task.MarkFailed(err.Error())
		} else {
			task.MarkDispatched(externalRef)
		}
		return task
	}

	if err != nil && s.logger != nil {
		s.logger.Error("task failed after retries",
			zap.String("task_id", final.ID.String()),
			zap.String("kind", string(final.Kind)),
			zap.Int("attempts", final.AttemptCount),
			zap.Error(err),
		)
	}

	return final
}

// callCapability routes one attempt to the kind-specific external capability.
// Tracker creates return an external ref; email is fire-and-forget.
func (s *Service) callCapability(ctx context.Context, task *entities.AutomationTask) (*string, error) {
	switch task.Kind {
	case entities.TaskKindEmailNotify:
		payload, err := task.EmailPayload()
		if err != nil {
			return nil, err
		}
		if s.mail == nil {
			return nil, fmt.Errorf("mail sender is not configured")
		}
		if err := s.mail.Send(ctx, payload.Recipient, payload.Subject, payload.Body); err != nil {
			return nil, err
		}
		return nil, nil

	case entities.TaskKindTrackerCard:
		payload, err := task.CardPayload()
		if err != nil {
			return nil, err
		}
		if s.tracker == nil {
			return nil, fmt.Errorf("tracker client is not configured")
		}
		ref, err := s.tracker.CreateCard(ctx, payload.ListID, payload.Title, payload.Description, task.IdempotencyToken)
		if err != nil {
			return nil, err
		}
		return &ref.ID, nil

	default:
		return nil, fmt.Errorf("unknown task kind %q", task.Kind)
	}
}
