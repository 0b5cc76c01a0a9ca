package domain

import (
	"time"

	"github.com/taskdesk/task-system/internal/core/schema"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "OPEN"
	TaskDone TaskStatus = "DONE"
)

// TaskSchema configures the tasks collection.
var TaskSchema = schema.Schema{
	Collection: "tasks",
	Naming:     schema.PascalCase,
	Indexes: []schema.Index{
		{Fields: []string{"assignee"}},
		{Fields: []string{"created_by"}},
	},
}

// Task is a unit of work assigned to a user. Assignee and CreatedBy are
// usernames, looked up on demand.
type Task struct {
	schema.Base `bson:",inline"`

	Description string     `bson:"description" json:"description"`
	Assignee    string     `bson:"assignee" json:"assignee"`
	CreatedBy   string     `bson:"created_by" json:"created_by"`
	Status      TaskStatus `bson:"status" json:"status"`
	FinishedAt  *time.Time `bson:"finished_at" json:"finished_at"`
}

// NewTask builds an unsaved open task.
func NewTask(description, assignee, createdBy string) *Task {
	return &Task{
		Base:        schema.NewBase(),
		Description: description,
		Assignee:    assignee,
		CreatedBy:   createdBy,
		Status:      TaskOpen,
	}
}

// MarkDone closes the task. FinishedAt is set exactly here.
func (t *Task) MarkDone(now time.Time) {
	finished := now.UTC().Truncate(time.Millisecond)
	t.Status = TaskDone
	t.Active = false
	t.FinishedAt = &finished
}

// Involves reports whether username is the task's assignee or creator.
func (t *Task) Involves(username string) bool {
	return t.Assignee == username || t.CreatedBy == username
}

// TaskEventKind names a task lifecycle change.
type TaskEventKind string

const (
	TaskCreated     TaskEventKind = "created"
	TaskUpdated     TaskEventKind = "updated"
	TaskCompleted   TaskEventKind = "done"
	TaskDeactivated TaskEventKind = "deactivated"
	TaskDeleted     TaskEventKind = "deleted"
)

// TaskEvent is an audit record of a lifecycle change.
type TaskEvent struct {
	TaskID string
	Kind   TaskEventKind
	Actor  string
	At     time.Time
}
