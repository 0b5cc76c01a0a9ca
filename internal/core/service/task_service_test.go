package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type stubTaskRepo struct {
	tasks     map[string]*domain.Task
	nextID    int
	lastLimit int
	lastList  ports.TaskFilter
	deleteErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	if t.FinishedAt != nil {
		at := *t.FinishedAt
		clone.FinishedAt = &at
	}
	return &clone
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (string, error) {
	r.nextID++
	id := fmt.Sprintf("%024x", r.nextID)
	task.SetIdentifier(id)
	r.tasks[id] = cloneTask(task)
	return id, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id, message string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		if message == "" {
			message = "id not found."
		}
		return nil, domain.NotFound(message)
	}
	return cloneTask(t), nil
}

func (r *stubTaskRepo) List(_ context.Context, filter ports.TaskFilter, limit int) ([]*domain.Task, error) {
	r.lastList, r.lastLimit = filter, limit
	out := []*domain.Task{}
	for _, t := range r.tasks {
		if filter.Assignee == "" && filter.CreatedBy == "" ||
			filter.Assignee != "" && t.Assignee == filter.Assignee ||
			filter.CreatedBy != "" && t.CreatedBy == filter.CreatedBy {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, task *domain.Task) (bool, error) {
	current, ok := r.tasks[task.ID]
	if !ok {
		return false, nil
	}
	if reflect.DeepEqual(current, task) {
		return false, nil
	}
	r.tasks[task.ID] = cloneTask(task)
	return true, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, task *domain.Task, soft bool) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	current, ok := r.tasks[task.ID]
	if !ok {
		return false, nil
	}
	if soft {
		if !current.Active {
			return false, nil
		}
		current.Active = false
		task.Deactivate()
		return true, nil
	}
	delete(r.tasks, task.ID)
	return true, nil
}

type recordingAuditor struct {
	events []domain.TaskEvent
}

func (a *recordingAuditor) Publish(e domain.TaskEvent) { a.events = append(a.events, e) }

func (a *recordingAuditor) kinds() []domain.TaskEventKind {
	out := make([]domain.TaskEventKind, len(a.events))
	for i, e := range a.events {
		out[i] = e.Kind
	}
	return out
}

var (
	adminActor = domain.Identity{ID: "a", Username: "root", Role: domain.RoleAdmin}
	aliceActor = domain.Identity{ID: "1", Username: "alice", Role: domain.RoleStaff}
	bobActor   = domain.Identity{ID: "2", Username: "bob", Role: domain.RoleStaff}
	carolActor = domain.Identity{ID: "3", Username: "carol", Role: domain.RoleStaff}
)

type taskFixture struct {
	svc     *TaskService
	tasks   *stubTaskRepo
	auditor *recordingAuditor
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	users := newStubUserRepo()
	for _, name := range []string{"alice", "bob", "carol"} {
		if err := users.Create(context.Background(), domain.NewUser(name, "hash", domain.RoleStaff)); err != nil {
			t.Fatalf("seed user %s: %v", name, err)
		}
	}
	tasks := newStubTaskRepo()
	auditor := &recordingAuditor{}
	svc := NewTaskService(tasks, users, auditor, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return taskFixture{svc: svc, tasks: tasks, auditor: auditor}
}

func (f taskFixture) create(t *testing.T, actor domain.Identity, assignee string) string {
	t.Helper()
	id, err := f.svc.Create(context.Background(), actor, ports.CreateTaskInput{Assignee: assignee, Description: "write report"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return id
}

func TestTaskService_Create(t *testing.T) {
	f := newTaskFixture(t)

	id := f.create(t, bobActor, "alice")

	stored := f.tasks.tasks[id]
	if stored.Assignee != "alice" || stored.CreatedBy != "bob" || stored.Status != domain.TaskOpen || !stored.Active {
		t.Fatalf("unexpected stored task: %+v", stored)
	}
	if len(f.auditor.events) != 1 || f.auditor.events[0].Kind != domain.TaskCreated || f.auditor.events[0].TaskID != id {
		t.Fatalf("unexpected audit events: %+v", f.auditor.events)
	}
}

func TestTaskService_Create_UnknownAssignee(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), bobActor, ports.CreateTaskInput{Assignee: "ghost", Description: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "user with this username: ghost not found." {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if len(f.tasks.tasks) != 0 {
		t.Fatalf("expected no task to be stored")
	}
}

func TestTaskService_ListMine(t *testing.T) {
	f := newTaskFixture(t)
	f.create(t, bobActor, "alice")
	f.create(t, aliceActor, "bob")
	f.create(t, carolActor, "carol")

	if _, err := f.svc.ListMine(context.Background(), aliceActor, ports.ListTasksInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	tasks, err := f.svc.ListMine(context.Background(), aliceActor, ports.ListTasksInput{Assigned: true, CreatedBy: true})
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(tasks) != 2 || f.tasks.lastLimit != 20 {
		t.Fatalf("expected 2 tasks with limit 20, got %d (limit %d)", len(tasks), f.tasks.lastLimit)
	}

	_, _ = f.svc.ListMine(context.Background(), aliceActor, ports.ListTasksInput{Assigned: true})
	if f.tasks.lastList != (ports.TaskFilter{Assignee: "alice"}) {
		t.Fatalf("unexpected filter: %+v", f.tasks.lastList)
	}
}

func TestTaskService_ListAll(t *testing.T) {
	f := newTaskFixture(t)
	f.create(t, bobActor, "alice")
	f.create(t, carolActor, "carol")

	if _, err := f.svc.ListAll(context.Background(), aliceActor); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	tasks, err := f.svc.ListAll(context.Background(), adminActor)
	if err != nil || len(tasks) != 2 || f.tasks.lastLimit != 100 {
		t.Fatalf("unexpected result: %d tasks, limit %d, err %v", len(tasks), f.tasks.lastLimit, err)
	}
}

func TestTaskService_Get(t *testing.T) {
	f := newTaskFixture(t)
	id := f.create(t, bobActor, "alice")

	for _, actor := range []domain.Identity{adminActor, aliceActor, bobActor} {
		if _, err := f.svc.Get(context.Background(), actor, id); err != nil {
			t.Fatalf("%s: expected access, got %v", actor.Username, err)
		}
	}
	if _, err := f.svc.Get(context.Background(), carolActor, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), adminActor, "not-an-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskService_Update(t *testing.T) {
	f := newTaskFixture(t)
	id := f.create(t, bobActor, "alice")

	desc, carol := "rewrite report", "carol"
	if _, err := f.svc.Update(context.Background(), aliceActor, id, ports.UpdateTaskInput{Description: &desc}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("assignee must not edit: got %v", err)
	}

	task, err := f.svc.Update(context.Background(), bobActor, id, ports.UpdateTaskInput{Description: &desc, Assignee: &carol})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if task.Description != desc || task.Assignee != "carol" {
		t.Fatalf("unexpected task: %+v", task)
	}

	ghost := "ghost"
	if _, err := f.svc.Update(context.Background(), adminActor, id, ports.UpdateTaskInput{Assignee: &ghost}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown assignee, got %v", err)
	}

	// unchanged edit records no event
	if _, err := f.svc.Update(context.Background(), bobActor, id, ports.UpdateTaskInput{Description: &desc}); err != nil {
		t.Fatalf("no-op Update returned error: %v", err)
	}
	want := []domain.TaskEventKind{domain.TaskCreated, domain.TaskUpdated}
	if !reflect.DeepEqual(f.auditor.kinds(), want) {
		t.Fatalf("unexpected events: %v", f.auditor.kinds())
	}
}

func TestTaskService_MarkDone(t *testing.T) {
	f := newTaskFixture(t)
	id := f.create(t, bobActor, "alice")

	if err := f.svc.MarkDone(context.Background(), carolActor, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.MarkDone(context.Background(), aliceActor, id); err != nil {
		t.Fatalf("MarkDone returned error: %v", err)
	}

	stored := f.tasks.tasks[id]
	if stored.Status != domain.TaskDone || stored.Active || stored.FinishedAt == nil {
		t.Fatalf("unexpected stored task: %+v", stored)
	}
	if !stored.FinishedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected finished_at: %v", stored.FinishedAt)
	}

	// same clock, nothing changes
	if err := f.svc.MarkDone(context.Background(), aliceActor, id); !errors.Is(err, domain.ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
}

func TestTaskService_Delete(t *testing.T) {
	f := newTaskFixture(t)
	id := f.create(t, bobActor, "alice")

	if err := f.svc.Delete(context.Background(), aliceActor, id, true); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("assignee must not delete: got %v", err)
	}
	if err := f.svc.Delete(context.Background(), bobActor, id, true); err != nil {
		t.Fatalf("soft Delete returned error: %v", err)
	}
	if f.tasks.tasks[id].Active {
		t.Fatalf("expected task to be inactive")
	}

	err := f.svc.Delete(context.Background(), bobActor, id, true)
	if !errors.Is(err, domain.ErrAlreadyInactive) || err.Error() != "this task is already inactive!" {
		t.Fatalf("expected ErrAlreadyInactive, got %v", err)
	}

	if err := f.svc.Delete(context.Background(), adminActor, id, false); err != nil {
		t.Fatalf("hard Delete returned error: %v", err)
	}
	if _, ok := f.tasks.tasks[id]; ok {
		t.Fatalf("expected task to be removed")
	}

	want := []domain.TaskEventKind{domain.TaskCreated, domain.TaskDeactivated, domain.TaskDeleted}
	if !reflect.DeepEqual(f.auditor.kinds(), want) {
		t.Fatalf("unexpected events: %v", f.auditor.kinds())
	}
}

func TestTaskService_Delete_StoreError(t *testing.T) {
	f := newTaskFixture(t)
	id := f.create(t, bobActor, "alice")
	f.tasks.deleteErr = errors.New("boom")

	if err := f.svc.Delete(context.Background(), bobActor, id, false); !errors.Is(err, f.tasks.deleteErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}
