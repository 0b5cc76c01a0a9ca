package handler

import (
	"time"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// --- Request types ---

type createTaskRequest struct {
	Assignee    string `json:"assignee" validate:"required,max=64"`
	Description string `json:"description" validate:"required,max=2000"`
}

type updateTaskRequest struct {
	Assignee    *string `json:"assignee" validate:"omitnil,min=1,max=64"`
	Description *string `json:"description" validate:"omitnil,min=1,max=2000"`
}

// --- Response types ---

type createTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// taskSummary is the list view of a task.
type taskSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Assignee  string    `json:"assignee"`
	CreatedBy string    `json:"created_by"`
	Status    string    `json:"status"`
}

// taskDetail is the full view of a task.
type taskDetail struct {
	ID          string     `json:"id"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee"`
	CreatedBy   string     `json:"created_by"`
	Status      string     `json:"status"`
	FinishedAt  *time.Time `json:"finished_at"`
}

func toTaskSummaries(tasks []*domain.Task) []taskSummary {
	out := make([]taskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskSummary{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			Assignee:  t.Assignee,
			CreatedBy: t.CreatedBy,
			Status:    string(t.Status),
		})
	}
	return out
}

func toTaskDetail(t *domain.Task) taskDetail {
	return taskDetail{
		ID:          t.ID,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		Description: t.Description,
		Assignee:    t.Assignee,
		CreatedBy:   t.CreatedBy,
		Status:      string(t.Status),
		FinishedAt:  t.FinishedAt,
	}
}

func toTaskDetails(tasks []*domain.Task) []taskDetail {
	out := make([]taskDetail, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskDetail(t))
	}
	return out
}
