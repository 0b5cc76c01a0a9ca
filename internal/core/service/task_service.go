package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/pkg/metrics"
)

const (
	myTasksLimit  = 20
	allTasksLimit = 100

	taskNotFound = "task not found."
)

// TaskService implements the task use cases on behalf of an authenticated
// actor.
type TaskService struct {
	tasks   ports.TaskRepository
	users   ports.UserRepository
	auditor ports.TaskAuditor
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTaskService wires the task use cases. auditor may be nil.
func NewTaskService(tasks ports.TaskRepository, users ports.UserRepository, auditor ports.TaskAuditor, logger zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:   tasks,
		users:   users,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// Create assigns a new task to an existing user. The actor becomes its
// creator.
func (s *TaskService) Create(ctx context.Context, actor domain.Identity, input ports.CreateTaskInput) (string, error) {
	if strings.TrimSpace(input.Assignee) == "" || strings.TrimSpace(input.Description) == "" {
		return "", domain.InvalidInput("assignee and description are required")
	}

	assignee, err := s.lookupAssignee(ctx, input.Assignee)
	if err != nil {
		return "", err
	}

	task := domain.NewTask(input.Description, assignee.Username, actor.Username)
	id, err := s.tasks.Create(ctx, task)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	s.record(id, domain.TaskCreated, actor)
	s.logger.Info().Str("task_id", id).Str("assignee", assignee.Username).Str("created_by", actor.Username).Msg("task created")
	return id, nil
}

// ListMine returns up to 20 tasks assigned to or created by the actor.
func (s *TaskService) ListMine(ctx context.Context, actor domain.Identity, input ports.ListTasksInput) ([]*domain.Task, error) {
	if !input.Assigned && !input.CreatedBy {
		return nil, domain.InvalidInput("you have to choose at least one filter")
	}

	var filter ports.TaskFilter
	if input.Assigned {
		filter.Assignee = actor.Username
	}
	if input.CreatedBy {
		filter.CreatedBy = actor.Username
	}
	return s.tasks.List(ctx, filter, myTasksLimit)
}

// ListAll returns up to 100 tasks of every user. Admins only.
func (s *TaskService) ListAll(ctx context.Context, actor domain.Identity) ([]*domain.Task, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.tasks.List(ctx, ports.TaskFilter{}, allTasksLimit)
}

// Get returns a task visible to the actor: admins see every task, staff
// only the ones they are involved in.
func (s *TaskService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !task.Involves(actor.Username) {
		return nil, domain.Forbidden("You can't see this task detail because it is not related to you!")
	}
	return task, nil
}

// Update edits the description or assignee of a task. Only the creator or
// an admin may edit; only changed fields are written.
func (s *TaskService) Update(ctx context.Context, actor domain.Identity, id string, input ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id, taskNotFound)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && task.CreatedBy != actor.Username {
		return nil, domain.Forbidden("only admin or task creator can edit the task!")
	}

	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, domain.InvalidInput("description must not be empty")
		}
		task.Description = *input.Description
	}
	if input.Assignee != nil && *input.Assignee != task.Assignee {
		assignee, err := s.lookupAssignee(ctx, *input.Assignee)
		if err != nil {
			return nil, err
		}
		task.Assignee = assignee.Username
	}

	changed, err := s.tasks.Update(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if changed {
		s.record(task.ID, domain.TaskUpdated, actor)
	}
	return task, nil
}

// MarkDone closes a task. Admins and involved users may do so.
func (s *TaskService) MarkDone(ctx context.Context, actor domain.Identity, id string) error {
	task, err := s.tasks.FindByID(ctx, id, taskNotFound)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !task.Involves(actor.Username) {
		return domain.Forbidden("you are not allowed to do this action")
	}

	task.MarkDone(s.now())
	changed, err := s.tasks.Update(ctx, task)
	if err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	if !changed {
		return domain.ErrOperationFailed
	}

	s.record(task.ID, domain.TaskCompleted, actor)
	return nil
}

// Delete removes a task, or only deactivates it when justDeactivate is set.
// Only the creator or an admin may delete.
func (s *TaskService) Delete(ctx context.Context, actor domain.Identity, id string, justDeactivate bool) error {
	task, err := s.tasks.FindByID(ctx, id, "")
	if err != nil {
		return err
	}
	if justDeactivate && !task.Active {
		return &domain.Error{Kind: domain.ErrAlreadyInactive, Message: "this task is already inactive!"}
	}
	if !actor.IsAdmin() && task.CreatedBy != actor.Username {
		return domain.Forbidden("only admin or task creator can delete the task!")
	}

	ok, err := s.tasks.Delete(ctx, task, justDeactivate)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !ok {
		return domain.ErrOperationFailed
	}

	kind := domain.TaskDeleted
	if justDeactivate {
		kind = domain.TaskDeactivated
	}
	s.record(task.ID, kind, actor)
	return nil
}

func (s *TaskService) lookupAssignee(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(fmt.Sprintf("user with this username: %s not found.", username))
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *TaskService) record(taskID string, kind domain.TaskEventKind, actor domain.Identity) {
	metrics.TaskOperationsTotal.WithLabelValues(string(kind)).Inc()
	if s.auditor == nil {
		return
	}
	s.auditor.Publish(domain.TaskEvent{
		TaskID: taskID,
		Kind:   kind,
		Actor:  actor.Username,
		At:     s.now().UTC(),
	})
}
