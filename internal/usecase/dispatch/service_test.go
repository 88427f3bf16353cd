package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnquangdev/meeting-autopilot/internal/adapter/repository"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
)

type sentMail struct {
	recipient string
	subject   string
	body      string
}

type fakeMail struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func (f *fakeMail) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[recipient]; ok {
		return err
	}
	f.sent = append(f.sent, sentMail{recipient: recipient, subject: subject, body: body})
	return nil
}

type fakeTracker struct {
	mu        sync.Mutex
	calls     int
	failTimes int
	err       error
	tokens    []string
}

func (f *fakeTracker) CreateCard(ctx context.Context, listID, title, description, idempotencyToken string) (*trello.CardRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.tokens = append(f.tokens, idempotencyToken)
	if f.err != nil && (f.failTimes == 0 || f.calls <= f.failTimes) {
		return nil, f.err
	}
	return &trello.CardRef{ID: fmt.Sprintf("card-%d", f.calls), URL: "https://trello.example/c/1"}, nil
}

func testDispatchConfig() *config.DispatchConfig {
	return &config.DispatchConfig{
		MaxAttempts:   3,
		CallTimeout:   time.Second,
		BackoffBase:   time.Millisecond,
		BackoffFactor: 2.0,
		BackoffCap:    5 * time.Millisecond,
	}
}

func testAnalysis() *entities.MeetingAnalysis {
	return &entities.MeetingAnalysis{
		Summary:   "Weekly sync.",
		Decisions: []string{"Adopt the new CI"},
		ActionItems: []entities.ActionItem{
			{Description: "Migrate pipeline", Assignee: "Binh", DueDateText: "2026-09-01"},
		},
	}
}

func testRoster() entities.RosterView {
	return entities.RosterView{
		TeamName: "Platform",
		Members: []entities.RosterMember{
			{Name: "An", Email: "an@example.com"},
			{Name: "Binh", Email: "binh@example.com"},
			{Name: "Chi", Email: "chi@example.com"},
		},
	}
}

func cardTarget() Target {
	return Target{SendEmail: true, CreateCards: true, BoardID: "board-1", ListID: "list-1"}
}

func TestDispatch_FanOut(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	mail := &fakeMail{}
	tracker := &fakeTracker{}
	svc := NewService(repo, mail, tracker, testDispatchConfig(), nil)

	batchID, tasks, err := svc.Dispatch(context.Background(), testAnalysis(), testRoster(), cardTarget())
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	// 3 roster members + 1 action item
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	wantRecipients := []string{"an@example.com", "binh@example.com", "chi@example.com"}
	for i, want := range wantRecipients {
		task := tasks[i]
		if task.Kind != entities.TaskKindEmailNotify {
			t.Fatalf("task %d: expected email kind, got %s", i, task.Kind)
		}
		payload, err := task.EmailPayload()
		if err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
		if payload.Recipient != want {
			t.Fatalf("task %d: expected recipient %s, got %s", i, want, payload.Recipient)
		}
	}

	card := tasks[3]
	if card.Kind != entities.TaskKindTrackerCard {
		t.Fatalf("expected final task to be a card, got %s", card.Kind)
	}

	for _, task := range tasks {
		if task.BatchID != batchID {
			t.Fatalf("task %s not in batch %s", task.ID, batchID)
		}
		if task.Status != entities.TaskStatusDispatched {
			t.Fatalf("task %s: expected dispatched, got %s", task.ID, task.Status)
		}
	}

	if card.ExternalRef == nil || *card.ExternalRef == "" {
		t.Fatalf("card task missing external ref")
	}
	if len(mail.sent) != 3 {
		t.Fatalf("expected 3 mails sent, got %d", len(mail.sent))
	}
	if len(tracker.tokens) != 1 || tracker.tokens[0] == "" {
		t.Fatalf("expected one idempotency token, got %v", tracker.tokens)
	}
}

func TestDispatch_EmailBody(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	mail := &fakeMail{}
	svc := NewService(repo, mail, &fakeTracker{}, testDispatchConfig(), nil)

	_, _, err := svc.Dispatch(context.Background(), testAnalysis(), testRoster(), Target{SendEmail: true})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(mail.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	body := mail.sent[0].body
	for _, want := range []string{"<h2>Meeting Summary</h2>", "Weekly sync.", "Adopt the new CI", "Migrate pipeline"} {
		if !strings.Contains(body, want) {
			t.Fatalf("email body missing %q:\n%s", want, body)
		}
	}
	if mail.sent[0].subject != "Meeting Summary & Action Items" {
		t.Fatalf("unexpected subject %q", mail.sent[0].subject)
	}
}

func TestDispatch_NewBatchPerCall(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	svc := NewService(repo, &fakeMail{}, &fakeTracker{}, testDispatchConfig(), nil)

	first, _, err := svc.Dispatch(context.Background(), testAnalysis(), testRoster(), cardTarget())
	if err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	second, _, err := svc.Dispatch(context.Background(), testAnalysis(), testRoster(), cardTarget())
	if err != nil {
		t.Fatalf("second dispatch failed: %v", err)
	}

	if first == second {
		t.Fatalf("expected a fresh batch per dispatch pass")
	}

	firstTasks, _ := repo.ListByBatch(context.Background(), first)
	secondTasks, _ := repo.ListByBatch(context.Background(), second)
	if len(firstTasks) != 4 || len(secondTasks) != 4 {
		t.Fatalf("expected both batches persisted, got %d and %d", len(firstTasks), len(secondTasks))
	}
}

func TestDispatch_RetryExhaustion(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	tracker := &fakeTracker{err: errors.New("trello returned status 503")}
	svc := NewService(repo, &fakeMail{}, tracker, testDispatchConfig(), nil)

	_, tasks, err := svc.Dispatch(context.Background(), testAnalysis(), entities.RosterView{}, Target{CreateCards: true, BoardID: "b", ListID: "l"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	task := tasks[0]
	if task.Status != entities.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if task.AttemptCount != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", task.AttemptCount)
	}
	if task.LastError == nil || !strings.Contains(*task.LastError, "status 503") {
		t.Fatalf("expected last error to carry the cause, got %v", task.LastError)
	}
	if tracker.calls != 3 {
		t.Fatalf("expected 3 external calls, got %d", tracker.calls)
	}
}

func TestDispatch_NonRetryableFailsFast(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	tracker := &fakeTracker{err: errors.New("trello returned status 400")}
	svc := NewService(repo, &fakeMail{}, tracker, testDispatchConfig(), nil)

	_, tasks, err := svc.Dispatch(context.Background(), testAnalysis(), entities.RosterView{}, Target{CreateCards: true, BoardID: "b", ListID: "l"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	task := tasks[0]
	if task.Status != entities.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if task.AttemptCount != 1 {
		t.Fatalf("a non-transient error must not be retried, got %d attempts", task.AttemptCount)
	}
}

func TestDispatch_TransientThenSuccess(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	tracker := &fakeTracker{err: errors.New("trello returned status 429"), failTimes: 1}
	svc := NewService(repo, &fakeMail{}, tracker, testDispatchConfig(), nil)

	_, tasks, err := svc.Dispatch(context.Background(), testAnalysis(), entities.RosterView{}, Target{CreateCards: true, BoardID: "b", ListID: "l"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	task := tasks[0]
	if task.Status != entities.TaskStatusDispatched {
		t.Fatalf("expected dispatched after retry, got %s (%v)", task.Status, task.LastError)
	}
	if task.AttemptCount != 2 {
		t.Fatalf("expected 2 attempts, got %d", task.AttemptCount)
	}
	if len(tracker.tokens) != 2 || tracker.tokens[0] != tracker.tokens[1] {
		t.Fatalf("every retry must reuse the task's idempotency token, got %v", tracker.tokens)
	}
}

func TestDispatch_PartialFailureIndependence(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	mail := &fakeMail{failFor: map[string]error{
		"binh@example.com": errors.New("smtp: invalid recipient"),
	}}
	svc := NewService(repo, mail, &fakeTracker{}, testDispatchConfig(), nil)

	_, tasks, err := svc.Dispatch(context.Background(), testAnalysis(), testRoster(), cardTarget())
	if err != nil {
		t.Fatalf("individual task failures must not fail the pass: %v", err)
	}

	var failed, dispatched int
	for _, task := range tasks {
		switch task.Status {
		case entities.TaskStatusFailed:
			failed++
		case entities.TaskStatusDispatched:
			dispatched++
		default:
			t.Fatalf("task %s left in %s", task.ID, task.Status)
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly 1 failed task, got %d", failed)
	}
	if dispatched != 3 {
		t.Fatalf("expected 3 dispatched tasks, got %d", dispatched)
	}
}

func TestDispatch_Preconditions(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	svc := NewService(repo, &fakeMail{}, &fakeTracker{}, testDispatchConfig(), nil)

	var derr *entities.DispatchError

	_, _, err := svc.Dispatch(context.Background(), nil, testRoster(), cardTarget())
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError for nil analysis, got %v", err)
	}

	_, _, err = svc.Dispatch(context.Background(), testAnalysis(), testRoster(), Target{CreateCards: true})
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError for missing card target, got %v", err)
	}
	if !errors.Is(err, entities.ErrMissingCardTarget) {
		t.Fatalf("expected ErrMissingCardTarget cause, got %v", err)
	}

	cfg := testDispatchConfig()
	cfg.RequireRecipients = true
	strict := NewService(repo, &fakeMail{}, &fakeTracker{}, cfg, nil)
	_, _, err = strict.Dispatch(context.Background(), testAnalysis(), entities.RosterView{}, Target{SendEmail: true})
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError for empty roster, got %v", err)
	}

	// No tasks persisted by any failed precondition
	open, _ := repo.ListByStatus(context.Background(), entities.TaskStatusPending, entities.TaskStatusDispatched, entities.TaskStatusFailed)
	if len(open) != 0 {
		t.Fatalf("precondition failures must not persist tasks, found %d", len(open))
	}
}
