package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// TaskRepository handles automation task persistence on PostgreSQL
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a new task
func (r *TaskRepository) Create(ctx context.Context, task *entities.AutomationTask) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by ID, nil when not found
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AutomationTask, error) {
	var task entities.AutomationTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// ListByStatus retrieves tasks whose status is in the given set, oldest first
func (r *TaskRepository) ListByStatus(ctx context.Context, statuses ...entities.TaskStatus) ([]entities.AutomationTask, error) {
	var tasks []entities.AutomationTask
	if err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByBatch retrieves all tasks of one dispatch pass in creation order
func (r *TaskRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]entities.AutomationTask, error) {
	var tasks []entities.AutomationTask
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update performs an atomic read-modify-write on one task. The row is locked
// FOR UPDATE inside a transaction so two concurrent updates to the same id
// never interleave.
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, mutate func(*entities.AutomationTask) error) (*entities.AutomationTask, error) {
	var task entities.AutomationTask
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entities.ErrTaskNotFound
			}
			return err
		}
		if err := mutate(&task); err != nil {
			return err
		}
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}
