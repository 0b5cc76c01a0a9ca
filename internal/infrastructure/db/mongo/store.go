package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/schema"
	"github.com/taskdesk/task-system/internal/pkg/metrics"
)

const (
	defaultFindLimit = 1000
	idField          = "_id"
)

// ErrMissingIdentifier is returned when a write targets a record that has no
// valid identifier.
var ErrMissingIdentifier = errors.New("record has no valid identifier")

// InsertOutcome is the result of Store.Insert.
type InsertOutcome struct {
	Acknowledged bool
	InsertedID   string
}

// UpdateOutcome is the result of Store.Update. Modified is the number of
// documents actually changed, so callers can tell matched-but-unchanged apart.
type UpdateOutcome struct {
	Acknowledged bool
	Matched      int64
	Modified     int64
}

// UpdateOptions controls which fields Store.Update writes.
type UpdateOptions struct {
	// Exclude lists in-memory field names never written.
	Exclude []string
	// ExcludeUnset writes only fields that differ from the last loaded state
	// (or from the zero record when the record was never loaded). When false
	// every field is written.
	ExcludeUnset bool
}

// Store persists records of type T in one collection. It is the only place
// that handles primitive.ObjectID: every id crossing its boundary is a hex
// string.
type Store[T any, PT interface {
	*T
	schema.Entity
}] struct {
	col    *mongo.Collection
	schema schema.Schema
	naming schema.Naming
	zero   bson.D
}

// NewStore builds a Store for the collection named by sc.
func NewStore[T any, PT interface {
	*T
	schema.Entity
}](db *mongo.Database, sc schema.Schema) *Store[T, PT] {
	s := &Store[T, PT]{
		col:    db.Collection(sc.Collection),
		schema: sc,
		naming: sc.FieldNaming(),
	}
	zero, err := s.encode(PT(new(T)), nil)
	if err != nil {
		panic(fmt.Sprintf("store %s: record type is not encodable: %v", sc.Collection, err))
	}
	s.zero = zero
	return s
}

// Collection returns the collection name.
func (s *Store[T, PT]) Collection() string {
	return s.schema.Collection
}

// CreateIdentifier parses raw into a native id. The second result is false
// for empty or malformed input.
func (s *Store[T, PT]) CreateIdentifier(raw string) (primitive.ObjectID, bool) {
	if raw == "" {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// FindByID looks up one record. A malformed or unknown id yields nil, nil
// when allowMissing is set, and a domain.ErrNotFound carrying message
// otherwise.
func (s *Store[T, PT]) FindByID(ctx context.Context, id string, allowMissing bool, message string) (PT, error) {
	missing := func() (PT, error) {
		if allowMissing {
			return nil, nil
		}
		if message == "" {
			message = "id not found."
		}
		return nil, domain.NotFound(message)
	}

	oid, ok := s.CreateIdentifier(id)
	if !ok {
		return missing()
	}

	rec, err := s.findOne(ctx, bson.M{idField: oid})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return missing()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find by id: %w", s.schema.Collection, err)
	}
	return rec, nil
}

// FindOne returns the first record matching filter (in-memory field names).
// It fails with domain.ErrNotFound when nothing matches.
func (s *Store[T, PT]) FindOne(ctx context.Context, filter bson.M) (PT, error) {
	rec, err := s.findOne(ctx, schema.RenameFilter(s.naming, filter))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find one: %w", s.schema.Collection, err)
	}
	return rec, nil
}

func (s *Store[T, PT]) findOne(ctx context.Context, filter bson.M) (PT, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	defer metrics.ObserveStore(s.schema.Collection, "find_one", time.Now())

	raw, err := s.col.FindOne(ctx, filter).Raw()
	if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

// FindMany returns at most maxCount records matching filter, in store order.
// maxCount <= 0 means defaultFindLimit. The result is never nil.
func (s *Store[T, PT]) FindMany(ctx context.Context, filter bson.M, maxCount int) ([]PT, error) {
	if maxCount <= 0 {
		maxCount = defaultFindLimit
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	defer metrics.ObserveStore(s.schema.Collection, "find_many", time.Now())

	cur, err := s.col.Find(ctx, schema.RenameFilter(s.naming, filter), options.Find().SetLimit(int64(maxCount)))
	if err != nil {
		return nil, fmt.Errorf("%s: find many: %w", s.schema.Collection, err)
	}
	defer cur.Close(ctx)

	out := make([]PT, 0)
	for cur.Next(ctx) {
		rec, err := s.decode(cur.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: find many: %w", s.schema.Collection, err)
	}
	return out, nil
}

// Insert persists rec without an id and writes the id assigned by the store
// back into it. A unique index violation becomes *domain.DuplicateValueError.
func (s *Store[T, PT]) Insert(ctx context.Context, rec PT, exclude ...string) (InsertOutcome, error) {
	doc, err := s.encode(rec, exclude)
	if err != nil {
		return InsertOutcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	defer metrics.ObserveStore(s.schema.Collection, "insert", time.Now())

	res, err := s.col.InsertOne(ctx, doc)
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return InsertOutcome{}, nil
	}
	if err != nil {
		return InsertOutcome{}, s.translateWriteError("insert", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return InsertOutcome{}, fmt.Errorf("%s: insert: unexpected id type %T", s.schema.Collection, res.InsertedID)
	}
	rec.SetIdentifier(oid.Hex())
	rec.SetSnapshot(doc)
	return InsertOutcome{Acknowledged: true, InsertedID: oid.Hex()}, nil
}

// Update writes rec to the document with rec's id. See UpdateOptions for
// which fields are written. When nothing changed no store call is made and an
// acknowledged outcome with zero counts is returned.
func (s *Store[T, PT]) Update(ctx context.Context, rec PT, opts UpdateOptions) (UpdateOutcome, error) {
	oid, ok := s.CreateIdentifier(rec.Identifier())
	if !ok {
		return UpdateOutcome{}, fmt.Errorf("%s: update: %w", s.schema.Collection, ErrMissingIdentifier)
	}

	current, err := s.encode(rec, opts.Exclude)
	if err != nil {
		return UpdateOutcome{}, err
	}

	set := current
	if opts.ExcludeUnset {
		base := rec.Snapshot()
		if base == nil {
			base = s.zero
		}
		set = changedFields(current, base)
	}
	if len(set) == 0 {
		return UpdateOutcome{Acknowledged: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	defer metrics.ObserveStore(s.schema.Collection, "update", time.Now())

	res, err := s.col.UpdateOne(ctx, bson.M{idField: oid}, bson.D{{Key: "$set", Value: set}})
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return UpdateOutcome{}, nil
	}
	if err != nil {
		return UpdateOutcome{}, s.translateWriteError("update", err)
	}

	rec.SetSnapshot(merge(rec.Snapshot(), set))
	return UpdateOutcome{Acknowledged: true, Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// Delete removes rec. A soft delete only sets active to false and keeps the
// document. It reports whether the store acknowledged the write and at least
// one document was affected, so a repeated soft delete returns false, nil.
func (s *Store[T, PT]) Delete(ctx context.Context, rec PT, soft bool) (bool, error) {
	oid, ok := s.CreateIdentifier(rec.Identifier())
	if !ok {
		return false, fmt.Errorf("%s: delete: %w", s.schema.Collection, ErrMissingIdentifier)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	defer metrics.ObserveStore(s.schema.Collection, "delete", time.Now())

	if soft {
		active := s.naming.ToStore(schema.FieldActive)
		res, err := s.col.UpdateOne(ctx, bson.M{idField: oid}, bson.D{{Key: "$set", Value: bson.D{{Key: active, Value: false}}}})
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			rec.Deactivate()
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: soft delete: %w", s.schema.Collection, err)
		}
		rec.Deactivate()
		rec.SetSnapshot(merge(rec.Snapshot(), bson.D{{Key: active, Value: false}}))
		return res.ModifiedCount > 0, nil
	}

	res, err := s.col.DeleteOne(ctx, bson.M{idField: oid})
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: delete: %w", s.schema.Collection, err)
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes creates the indexes declared by the schema.
func (s *Store[T, PT]) EnsureIndexes(ctx context.Context) error {
	if len(s.schema.Indexes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	models := make([]mongo.IndexModel, 0, len(s.schema.Indexes))
	for _, idx := range s.schema.Indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			keys = append(keys, bson.E{Key: s.naming.ToStore(f), Value: 1})
		}
		model := mongo.IndexModel{Keys: keys}
		if idx.Unique {
			model.Options = options.Index().SetUnique(true)
		}
		models = append(models, model)
	}

	if _, err := s.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("%s: create indexes: %w", s.schema.Collection, err)
	}
	return nil
}

// encode converts rec to a store document: no _id, excluded fields dropped,
// keys renamed to store naming.
func (s *Store[T, PT]) encode(rec PT, exclude []string) (bson.D, error) {
	data, err := bson.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.schema.Collection, err)
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.schema.Collection, err)
	}

	skip := make(map[string]struct{}, len(exclude)+1)
	skip[idField] = struct{}{}
	for _, f := range exclude {
		skip[f] = struct{}{}
	}

	kept := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if _, ok := skip[e.Key]; ok {
			continue
		}
		kept = append(kept, e)
	}
	return schema.RenameToStore(s.naming, kept), nil
}

// decode converts a store document back to a record and remembers it as the
// record's loaded state.
func (s *Store[T, PT]) decode(raw bson.Raw) (PT, error) {
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", s.schema.Collection, err)
	}

	var id string
	fields := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == idField {
			if oid, ok := e.Value.(primitive.ObjectID); ok {
				id = oid.Hex()
			}
			continue
		}
		fields = append(fields, e)
	}

	data, err := bson.Marshal(schema.RenameFromStore(s.naming, fields))
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", s.schema.Collection, err)
	}
	rec := PT(new(T))
	if err := bson.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", s.schema.Collection, err)
	}
	rec.SetIdentifier(id)
	rec.SetSnapshot(fields)
	return rec, nil
}

// changedFields returns the elements of current whose value differs from the
// same key in base.
func changedFields(current, base bson.D) bson.D {
	prev := make(map[string]any, len(base))
	for _, e := range base {
		prev[e.Key] = e.Value
	}

	out := bson.D{}
	for _, e := range current {
		old, ok := prev[e.Key]
		if ok && sameValue(old, e.Value) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sameValue compares two values by their BSON encoding.
func sameValue(a, b any) bool {
	ra, errA := bson.Marshal(bson.D{{Key: "v", Value: a}})
	rb, errB := bson.Marshal(bson.D{{Key: "v", Value: b}})
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

// merge returns base with the elements of set applied.
func merge(base, set bson.D) bson.D {
	out := make(bson.D, 0, len(base)+len(set))
	index := make(map[string]int, len(base))
	for _, e := range base {
		index[e.Key] = len(out)
		out = append(out, e)
	}
	for _, e := range set {
		if i, ok := index[e.Key]; ok {
			out[i] = e
			continue
		}
		out = append(out, e)
	}
	return out
}
