package ports

import (
	"context"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// FindByUsername fails with domain.ErrNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// TaskFilter selects tasks assigned to or created by a user. Set fields are
// OR-ed; an empty filter matches every task.
type TaskFilter struct {
	Assignee  string
	CreatedBy string
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (string, error)
	// FindByID fails with domain.ErrNotFound carrying message when the id is
	// malformed or unknown.
	FindByID(ctx context.Context, id, message string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter, limit int) ([]*domain.Task, error)
	// Update persists changed fields and reports whether a document changed.
	Update(ctx context.Context, task *domain.Task) (bool, error)
	Delete(ctx context.Context, task *domain.Task, soft bool) (bool, error)
}

// TaskEventRepository persists the task audit trail.
type TaskEventRepository interface {
	InsertEvent(ctx context.Context, event domain.TaskEvent) error
}
