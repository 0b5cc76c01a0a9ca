package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// TaskRepository implements ports.TaskRepository on top of the tasks store.
type TaskRepository struct {
	store *Store[domain.Task, *domain.Task]
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{store: NewStore[domain.Task](db, domain.TaskSchema)}
}

// Create inserts a new task and returns its id.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (string, error) {
	res, err := r.store.Insert(ctx, task)
	if err != nil {
		return "", err
	}
	if !res.Acknowledged {
		return "", domain.ErrOperationFailed
	}
	return res.InsertedID, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id, message string) (*domain.Task, error) {
	return r.store.FindByID(ctx, id, false, message)
}

// List returns tasks matching filter, at most limit of them.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter, limit int) ([]*domain.Task, error) {
	var or []bson.M
	if filter.Assignee != "" {
		or = append(or, bson.M{"assignee": filter.Assignee})
	}
	if filter.CreatedBy != "" {
		or = append(or, bson.M{"created_by": filter.CreatedBy})
	}

	query := bson.M{}
	if len(or) > 0 {
		query["$or"] = or
	}
	return r.store.FindMany(ctx, query, limit)
}

// Update writes only the fields changed since the task was loaded.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (bool, error) {
	res, err := r.store.Update(ctx, task, UpdateOptions{ExcludeUnset: true})
	if err != nil {
		return false, err
	}
	return res.Acknowledged && res.Modified > 0, nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *domain.Task, soft bool) (bool, error) {
	return r.store.Delete(ctx, task, soft)
}

func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx)
}
