package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus represents the lifecycle status of an automation task
type TaskStatus string

const (
	TaskStatusPending      TaskStatus = "pending"       // Created, external call not yet attempted
	TaskStatusDispatched   TaskStatus = "dispatched"    // External call succeeded
	TaskStatusExternalOpen TaskStatus = "external_open" // External entity observed, not yet complete
	TaskStatusExternalDone TaskStatus = "external_done" // External entity observed complete (terminal)
	TaskStatusFailed       TaskStatus = "failed"        // Retries exhausted or entity gone (terminal)
)

// TaskKind represents the kind of side effect a task performs
type TaskKind string

const (
	TaskKindEmailNotify TaskKind = "email_notify" // Summary email to one roster member
	TaskKindTrackerCard TaskKind = "tracker_card" // Tracker card for one action item
)

// EmailPayload is the payload for email_notify tasks
type EmailPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// CardPayload is the payload for tracker_card tasks
type CardPayload struct {
	BoardID     string `json:"board_id"`
	ListID      string `json:"list_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AutomationTask is one unit of externally visible side-effect work derived
// from a meeting analysis. Owned exclusively by the task store; all mutation
// after creation goes through TaskRepository.Update.
type AutomationTask struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	BatchID          uuid.UUID      `json:"batch_id" gorm:"type:uuid;not null;index"`
	Kind             TaskKind       `json:"kind" gorm:"type:varchar(50);not null;index"`
	Payload          datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	Status           TaskStatus     `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	ExternalRef      *string        `json:"external_ref,omitempty" gorm:"type:varchar(255);index"` // Tracker card ID (nullable; email has no external state)
	IdempotencyToken string         `json:"idempotency_token,omitempty" gorm:"type:varchar(64)"`
	AttemptCount     int            `json:"attempt_count" gorm:"type:integer;default:0"`
	MissingCount     int            `json:"missing_count" gorm:"type:integer;default:0"` // Consecutive not-found observations
	LastError        *string        `json:"last_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewEmailTask creates a pending email_notify task for one recipient
func NewEmailTask(batchID uuid.UUID, payload EmailPayload) (*AutomationTask, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email payload: %w", err)
	}
	return &AutomationTask{
		ID:        uuid.New(),
		BatchID:   batchID,
		Kind:      TaskKindEmailNotify,
		Payload:   raw,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// NewCardTask creates a pending tracker_card task for one action item.
// The idempotency token is generated here so every retry of this task
// carries the same token.
func NewCardTask(batchID uuid.UUID, payload CardPayload) (*AutomationTask, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card payload: %w", err)
	}
	return &AutomationTask{
		ID:               uuid.New(),
		BatchID:          batchID,
		Kind:             TaskKindTrackerCard,
		Payload:          raw,
		Status:           TaskStatusPending,
		IdempotencyToken: uuid.NewString(),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}, nil
}

// EmailPayload decodes the payload of an email_notify task
func (t *AutomationTask) EmailPayload() (EmailPayload, error) {
	var p EmailPayload
	if t.Kind != TaskKindEmailNotify {
		return p, fmt.Errorf("task %s is not an email task", t.ID)
	}
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode email payload: %w", err)
	}
	return p, nil
}

// CardPayload decodes the payload of a tracker_card task
func (t *AutomationTask) CardPayload() (CardPayload, error) {
	var p CardPayload
	if t.Kind != TaskKindTrackerCard {
		return p, fmt.Errorf("task %s is not a card task", t.ID)
	}
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode card payload: %w", err)
	}
	return p, nil
}

// HasExternalState reports whether this kind has externally observable state
// the reconciler can re-read. Email is fire-and-forget.
func (t *AutomationTask) HasExternalState() bool {
	return t.Kind == TaskKindTrackerCard
}

// IsTerminal reports whether the task can never transition again
func (t *AutomationTask) IsTerminal() bool {
	return t.Status == TaskStatusFailed || t.Status == TaskStatusExternalDone
}

// MarkDispatched marks the external call as succeeded. externalRef is nil
// for fire-and-forget kinds.
func (t *AutomationTask) MarkDispatched(externalRef *string) {
	t.Status = TaskStatusDispatched
	t.ExternalRef = externalRef
	t.LastError = nil
	t.UpdatedAt = time.Now()
}

// MarkFailed marks the task permanently failed with an error message
func (t *AutomationTask) MarkFailed(errMsg string) {
	t.Status = TaskStatusFailed
	t.LastError = &errMsg
	t.UpdatedAt = time.Now()
}

// MarkExternalOpen records an observation that the external entity exists
// and is not yet complete. Resets the missing counter.
func (t *AutomationTask) MarkExternalOpen() {
	t.Status = TaskStatusExternalOpen
	t.MissingCount = 0
	t.LastError = nil
	t.UpdatedAt = time.Now()
}

// MarkExternalDone records an observation that the external entity is complete
func (t *AutomationTask) MarkExternalDone() {
	t.Status = TaskStatusExternalDone
	t.MissingCount = 0
	t.LastError = nil
	t.UpdatedAt = time.Now()
}

// ObserveMissing records a not-found observation. The task only fails after
// `tolerance` consecutive misses, to tolerate eventual-consistency lag in the
// tracker. Returns true when the task transitioned to failed.
func (t *AutomationTask) ObserveMissing(tolerance int) bool {
	t.MissingCount++
	t.UpdatedAt = time.Now()
	if t.MissingCount >= tolerance {
		msg := fmt.Sprintf("external entity missing after %d consecutive observations", t.MissingCount)
		t.Status = TaskStatusFailed
		t.LastError = &msg
		return true
	}
	return false
}

// RecordError stores a per-task error without changing status. Used by the
// reconciler when a status query fails for one task.
func (t *AutomationTask) RecordError(errMsg string) {
	t.LastError = &errMsg
	t.UpdatedAt = time.Now()
}

// IncrementAttempt bumps the attempt counter before an external call
func (t *AutomationTask) IncrementAttempt() {
	t.AttemptCount++
	t.UpdatedAt = time.Now()
}

// TableName specifies the table name for GORM
func (AutomationTask) TableName() string {
	return "automation_tasks"
}
