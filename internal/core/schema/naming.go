package schema

import (
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
)

// Naming translates field names between the in-memory convention (the bson
// tags on record structs, snake_case) and the convention used on the wire in
// the store. Implementations must be bijective on the keys they are given.
type Naming interface {
	ToStore(field string) string
	FromStore(field string) string
}

// Identity keeps field names unchanged.
var Identity Naming = identityNaming{}

// PascalCase maps created_at <-> CreatedAt.
var PascalCase Naming = pascalNaming{}

type identityNaming struct{}

func (identityNaming) ToStore(field string) string   { return field }
func (identityNaming) FromStore(field string) string { return field }

type pascalNaming struct{}

func (pascalNaming) ToStore(field string) string {
	if reserved(field) {
		return field
	}
	var b strings.Builder
	b.Grow(len(field))
	upper := true
	for _, r := range field {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (pascalNaming) FromStore(field string) string {
	if reserved(field) {
		return field
	}
	var b strings.Builder
	b.Grow(len(field) + 4)
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WithOverrides wraps base with an explicit in-memory -> store map. Fields
// absent from the map fall through to base.
func WithOverrides(base Naming, overrides map[string]string) Naming {
	reverse := make(map[string]string, len(overrides))
	for k, v := range overrides {
		reverse[v] = k
	}
	return overrideNaming{base: base, to: overrides, from: reverse}
}

type overrideNaming struct {
	base Naming
	to   map[string]string
	from map[string]string
}

func (n overrideNaming) ToStore(field string) string {
	if v, ok := n.to[field]; ok {
		return v
	}
	return n.base.ToStore(field)
}

func (n overrideNaming) FromStore(field string) string {
	if v, ok := n.from[field]; ok {
		return v
	}
	return n.base.FromStore(field)
}

// reserved reports keys that never change: the native id and query operators.
func reserved(field string) bool {
	return field == "" || field == "_id" || strings.HasPrefix(field, "$")
}

// RenameToStore returns a copy of doc with every key, at every depth, mapped
// through n.ToStore.
func RenameToStore(n Naming, doc bson.D) bson.D {
	return renameD(doc, n.ToStore)
}

// RenameFromStore is the inverse of RenameToStore.
func RenameFromStore(n Naming, doc bson.D) bson.D {
	return renameD(doc, n.FromStore)
}

// RenameFilter maps the keys of a query filter to store names. Operator keys
// ($or, $in, ...) are kept and their operands are walked.
func RenameFilter(n Naming, filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return renameM(filter, n.ToStore)
}

func renameD(doc bson.D, fn func(string) string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		out = append(out, bson.E{Key: fn(e.Key), Value: renameValue(e.Value, fn)})
	}
	return out
}

func renameM(doc bson.M, fn func(string) string) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[fn(k)] = renameValue(v, fn)
	}
	return out
}

func renameValue(v any, fn func(string) string) any {
	switch val := v.(type) {
	case bson.D:
		return renameD(val, fn)
	case bson.M:
		return renameM(val, fn)
	case bson.A:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = renameValue(item, fn)
		}
		return out
	case []bson.M:
		out := make([]bson.M, len(val))
		for i, item := range val {
			out[i] = renameM(item, fn)
		}
		return out
	case []bson.D:
		out := make([]bson.D, len(val))
		for i, item := range val {
			out[i] = renameD(item, fn)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = renameValue(item, fn)
		}
		return out
	default:
		return v
	}
}
