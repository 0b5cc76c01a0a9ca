package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPascalCase_RoundTrip(t *testing.T) {
	cases := map[string]string{
		"username":      "Username",
		"created_at":    "CreatedAt",
		"password_hash": "PasswordHash",
		"finished_at":   "FinishedAt",
		"field2":        "Field2",
		"_id":           "_id",
		"$or":           "$or",
	}

	for mem, store := range cases {
		t.Run(mem, func(t *testing.T) {
			assert.Equal(t, store, PascalCase.ToStore(mem))
			assert.Equal(t, mem, PascalCase.FromStore(store))
		})
	}
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "created_at", Identity.ToStore("created_at"))
	assert.Equal(t, "CreatedAt", Identity.FromStore("CreatedAt"))
}

func TestWithOverrides(t *testing.T) {
	n := WithOverrides(PascalCase, map[string]string{"created_by": "author"})

	assert.Equal(t, "author", n.ToStore("created_by"))
	assert.Equal(t, "created_by", n.FromStore("author"))
	assert.Equal(t, "Assignee", n.ToStore("assignee"))
	assert.Equal(t, "assignee", n.FromStore("Assignee"))
}

func TestRenameDocument_Nested(t *testing.T) {
	doc := bson.D{
		{Key: "created_by", Value: "alice"},
		{Key: "meta_data", Value: bson.D{{Key: "last_seen", Value: 1}}},
		{Key: "tag_list", Value: bson.A{bson.D{{Key: "tag_name", Value: "x"}}, "plain"}},
	}

	stored := RenameToStore(PascalCase, doc)
	assert.Equal(t, bson.D{
		{Key: "CreatedBy", Value: "alice"},
		{Key: "MetaData", Value: bson.D{{Key: "LastSeen", Value: 1}}},
		{Key: "TagList", Value: bson.A{bson.D{{Key: "TagName", Value: "x"}}, "plain"}},
	}, stored)

	assert.Equal(t, doc, RenameFromStore(PascalCase, stored))
}

func TestRenameFilter_Operators(t *testing.T) {
	filter := bson.M{
		"$or": []bson.M{
			{"assignee": "alice"},
			{"created_by": "alice"},
		},
		"active": bson.M{"$ne": false},
	}

	got := RenameFilter(PascalCase, filter)

	assert.Equal(t, bson.M{
		"$or": []bson.M{
			{"Assignee": "alice"},
			{"CreatedBy": "alice"},
		},
		"Active": bson.M{"$ne": false},
	}, got)
}

func TestRenameFilter_Nil(t *testing.T) {
	assert.Equal(t, bson.M{}, RenameFilter(PascalCase, nil))
}

func TestNewBase(t *testing.T) {
	b := NewBase()
	assert.True(t, b.Active)
	assert.Empty(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	b.Deactivate()
	assert.False(t, b.Active)
}
