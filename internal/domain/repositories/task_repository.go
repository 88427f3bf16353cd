package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// TaskRepository is the task store shared between the dispatcher and the
// reconciliation worker. All cross-component coordination goes through it.
type TaskRepository interface {
	// Create persists a new task
	Create(ctx context.Context, task *entities.AutomationTask) error

	// GetByID returns the task or nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*entities.AutomationTask, error)

	// ListByStatus returns tasks whose status is in the given set, oldest first
	ListByStatus(ctx context.Context, statuses ...entities.TaskStatus) ([]entities.AutomationTask, error)

	// ListByBatch returns all tasks of one dispatch pass in creation order
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]entities.AutomationTask, error)

	// Update performs an atomic read-modify-write of a single task. Concurrent
	// updates to the same id are serialized; mutate sees the current row and
	// its changes are written back as one operation.
	Update(ctx context.Context, id uuid.UUID, mutate func(*entities.AutomationTask) error) (*entities.AutomationTask, error)
}
