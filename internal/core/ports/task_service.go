package ports

import (
	"context"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// CreateTaskInput is the DTO passed from the transport layer to TaskService.
type CreateTaskInput struct {
	Assignee    string
	Description string
}

// UpdateTaskInput holds the optional fields of a task edit.
type UpdateTaskInput struct {
	Assignee    *string
	Description *string
}

// ListTasksInput selects the caller's tasks. At least one flag must be set.
type ListTasksInput struct {
	Assigned  bool
	CreatedBy bool
}

// TaskService defines use-case operations for tasks. The actor is the
// identity of the authenticated caller.
type TaskService interface {
	Create(ctx context.Context, actor domain.Identity, input CreateTaskInput) (string, error)
	ListMine(ctx context.Context, actor domain.Identity, input ListTasksInput) ([]*domain.Task, error)
	ListAll(ctx context.Context, actor domain.Identity) ([]*domain.Task, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Identity, id string, input UpdateTaskInput) (*domain.Task, error)
	MarkDone(ctx context.Context, actor domain.Identity, id string) error
	Delete(ctx context.Context, actor domain.Identity, id string, justDeactivate bool) error
}

// TaskAuditor receives task lifecycle events. Publish must not block.
type TaskAuditor interface {
	Publish(event domain.TaskEvent)
}
