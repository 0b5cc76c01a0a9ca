package mongo

import (
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/pkg/metrics"
)

// E11000 duplicate key error collection: db.users index: Username_1 dup key: { Username: "alice" }
var (
	dupKeyPattern   = regexp.MustCompile(`dup key: \{\s*"?([^":\s]+)"?\s*:`)
	dupIndexPattern = regexp.MustCompile(`index: (\S+?)_-?1\b`)
)

// translateWriteError converts a unique index violation into a
// *domain.DuplicateValueError naming the field in in-memory naming. Any other
// error is wrapped and returned unchanged.
func (s *Store[T, PT]) translateWriteError(op string, err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %s: %w", s.schema.Collection, op, err)
	}

	field := "value"
	if f := duplicateKeyField(err); f != "" {
		field = s.naming.FromStore(f)
	}
	metrics.StoreDuplicateConflictsTotal.WithLabelValues(s.schema.Collection, field).Inc()
	return &domain.DuplicateValueError{Field: field}
}

// duplicateKeyField extracts the first field of the violated index, in store
// naming. It prefers the server's keyPattern and falls back to the message.
func duplicateKeyField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if f := keyPatternField(e.Raw); f != "" {
				return f
			}
			if f := messageField(e.Message); f != "" {
				return f
			}
		}
		if we.WriteConcernError != nil {
			return messageField(we.WriteConcernError.Message)
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if f := keyPatternField(ce.Raw); f != "" {
			return f
		}
		return messageField(ce.Message)
	}
	return messageField(err.Error())
}

func keyPatternField(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}
	val, err := raw.LookupErr("keyPattern")
	if err != nil {
		return ""
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return ""
	}
	elems, err := doc.Elements()
	if err != nil || len(elems) == 0 {
		return ""
	}
	return elems[0].Key()
}

func messageField(msg string) string {
	if m := dupKeyPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := dupIndexPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}
