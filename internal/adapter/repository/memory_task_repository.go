package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// MemoryTaskRepository is an in-memory task store. Used by tests and by
// TASKSTORE_DRIVER=memory development mode; it provides the same per-task
// update serialization as the PostgreSQL repository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*entities.AutomationTask
}

// NewMemoryTaskRepository creates an empty in-memory task store
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[uuid.UUID]*entities.AutomationTask),
	}
}

// Create stores a copy of the task
func (r *MemoryTaskRepository) Create(ctx context.Context, task *entities.AutomationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

// GetByID returns a copy of the task, nil when not found
func (r *MemoryTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AutomationTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *task
	return &cp, nil
}

// ListByStatus returns tasks whose status is in the given set, oldest first.
// The snapshot is taken under the lock, so a task is never returned twice or
// dropped because of a concurrent status change.
func (r *MemoryTaskRepository) ListByStatus(ctx context.Context, statuses ...entities.TaskStatus) ([]entities.AutomationTask, error) {
	wanted := make(map[entities.TaskStatus]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.AutomationTask, 0)
	for _, task := range r.tasks {
		if _, ok := wanted[task.Status]; ok {
			out = append(out, *task)
		}
	}
	sortByCreation(out)
	return out, nil
}

// ListByBatch returns all tasks of one dispatch pass in creation order
func (r *MemoryTaskRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]entities.AutomationTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.AutomationTask, 0)
	for _, task := range r.tasks {
		if task.BatchID == batchID {
			out = append(out, *task)
		}
	}
	sortByCreation(out)
	return out, nil
}

// Update applies mutate under the store lock, serializing concurrent updates
func (r *MemoryTaskRepository) Update(ctx context.Context, id uuid.UUID, mutate func(*entities.AutomationTask) error) (*entities.AutomationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}

	cp := *task
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	r.tasks[id] = &cp

	result := cp
	return &result, nil
}

func sortByCreation(tasks []entities.AutomationTask) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID.String() < tasks[j].ID.String()
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
