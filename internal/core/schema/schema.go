// Package schema holds the contract shared by every persisted record: the
// common fields, the per-type store configuration and the field-name
// transform applied at the store boundary.
package schema

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// In-memory names of the common fields.
const (
	FieldActive    = "active"
	FieldCreatedAt = "created_at"
)

// Entity is implemented by every record through an embedded Base.
type Entity interface {
	Identifier() string
	SetIdentifier(id string)
	Snapshot() bson.D
	SetSnapshot(doc bson.D)
	Deactivate()
}

// Base carries the fields every record has. ID is empty until the record is
// first persisted, then holds the hex form of the store's native id.
//
// Embed it with `bson:",inline"`.
type Base struct {
	ID        string    `bson:"-" json:"id"`
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// last state read from or written to the store, in store naming
	loaded bson.D
}

// NewBase returns an active Base stamped with the current time. The time is
// truncated to the store's millisecond precision.
func NewBase() Base {
	return Base{
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (b *Base) Identifier() string      { return b.ID }
func (b *Base) SetIdentifier(id string) { b.ID = id }
func (b *Base) Snapshot() bson.D        { return b.loaded }
func (b *Base) SetSnapshot(doc bson.D)  { b.loaded = doc }
func (b *Base) Deactivate()             { b.Active = false }

// Index declares a store index by in-memory field names.
type Index struct {
	Fields []string
	Unique bool
}

// Schema is the per-type configuration a store is instantiated with.
type Schema struct {
	Collection string
	Naming     Naming
	Indexes    []Index
}

// FieldNaming returns s.Naming, defaulting to Identity.
func (s Schema) FieldNaming() Naming {
	if s.Naming == nil {
		return Identity
	}
	return s.Naming
}
