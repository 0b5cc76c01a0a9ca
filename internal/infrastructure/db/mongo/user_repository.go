package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// UserRepository implements ports.UserRepository on top of the users store.
type UserRepository struct {
	store *Store[domain.User, *domain.User]
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{store: NewStore[domain.User](db, domain.UserSchema)}
}

// FindByUsername returns domain.ErrNotFound when no user has that username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.store.FindOne(ctx, bson.M{"username": username})
}

// FindByID returns the user with id or a not-found error.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.store.FindByID(ctx, id, false, "user not found.")
}

// Create inserts user. A taken username yields *domain.DuplicateValueError.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.store.Insert(ctx, user)
	return err
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx)
}
