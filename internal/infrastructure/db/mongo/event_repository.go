package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

const collectionTaskEvents = "task_events"

// EventRepository implements ports.TaskEventRepository using MongoDB. Events
// are append-only, so it writes plain documents instead of going through a
// Store.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.TaskEventRepository {
	return &EventRepository{col: db.Collection(collectionTaskEvents)}
}

// InsertEvent persists an event to the task_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event domain.TaskEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"TaskId":     event.TaskID,
		"Kind":       string(event.Kind),
		"Actor":      event.Actor,
		"At":         event.At.UTC(),
		"RecordedAt": time.Now().UTC(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}
