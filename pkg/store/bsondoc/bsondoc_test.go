package bsondoc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"twitterkeywordsearch/pkg/models"
)

func TestRoundTripYieldsPlainContainers(t *testing.T) {
	created := time.Date(2021, 5, 4, 3, 2, 1, 0, time.UTC)
	body, err := Marshal(models.Document{
		"id":         "42",
		"created_at": created,
		"user":       map[string]any{"id_str": "42", "entities": map[string]any{"urls": []any{}}},
		"tweets": []models.Document{
			{"id_str": "1", "user": map[string]any{"id_str": "42"}},
		},
		"follower_ids": []int64{1, 2, 3},
	})
	require.NoError(t, err)

	doc, err := Unmarshal(body)
	require.NoError(t, err)

	assert.IsType(t, map[string]any{}, doc["user"])
	assert.Equal(t, "42", models.String(doc, "user.id_str"))
	user, _ := models.Sub(doc, "user")
	assert.IsType(t, map[string]any{}, user["entities"])

	tweets, ok := doc["tweets"].([]any)
	require.True(t, ok, "arrays decode as []any, got %T", doc["tweets"])
	require.Len(t, tweets, 1)
	tweet, ok := tweets[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "42", models.String(tweet, "user.id_str"))

	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, doc["follower_ids"])
	assert.Equal(t, primitive.NewDateTimeFromTime(created), doc["created_at"])
}

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"scalar", "x", "x"},
		{"M", primitive.M{"a": primitive.A{primitive.M{"b": 1}}}, map[string]any{"a": []any{map[string]any{"b": 1}}}},
		{"D", primitive.D{{Key: "a", Value: primitive.D{{Key: "b", Value: "c"}}}}, map[string]any{"a": map[string]any{"b": "c"}}},
		{"nested map", map[string]any{"a": primitive.M{"b": true}}, map[string]any{"a": map[string]any{"b": true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plain(tt.in))
		})
	}
}
