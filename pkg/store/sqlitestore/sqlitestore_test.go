package sqlitestore

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/store"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "twitter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestInsertFindCount(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	search := st.Collection("search")

	created := time.Date(2021, 5, 4, 3, 2, 1, 0, time.UTC)
	require.NoError(t, search.InsertOne(ctx, models.Document{
		"id":         int64(1050118621198921728),
		"id_str":     "1050118621198921728",
		"created_at": created,
		"user":       map[string]any{"id_str": "42", "screen_name": "alice"},
	}))
	require.NoError(t, search.InsertOne(ctx, models.Document{"id_str": "2", "user": map[string]any{"id_str": "7"}}))
	require.NoError(t, st.Collection("other").InsertOne(ctx, models.Document{"id_str": "3"}))

	n, err := search.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cur, err := search.Find(ctx, store.Filter{"user.id_str": "42"})
	require.NoError(t, err)
	docs, err := store.All(ctx, cur)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, int64(1050118621198921728), doc["id"])
	assert.Equal(t, "alice", models.String(doc, "user.screen_name"))
	assert.Equal(t, primitive.NewDateTimeFromTime(created), doc["created_at"])
}

func TestUpdateManySetsFields(t *testing.T) {
	ctx := context.Background()
	users := openTemp(t).Collection("users")
	require.NoError(t, users.InsertOne(ctx, models.Document{"id": "42"}))
	require.NoError(t, users.InsertOne(ctx, models.Document{"id": "7"}))

	matched, err := users.UpdateMany(ctx, store.Filter{"id": "42"}, models.Document{
		"follower_ids": []int64{1, 2, 3},
		"screen_name":  "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	n, err := users.Count(ctx, store.Filter{"follower_ids": map[string]any{"$exists": true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = users.Count(ctx, store.Filter{"id": "42", "screen_name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"sqlite:///var/data/twitter.db", filepath.FromSlash("/var/data/twitter.db")},
		{"sqlite://twitter.db", "twitter.db"},
		{"sqlite://", "twitter.db"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, PathFromURL(u, "twitter"))
		})
	}
}

func TestOpenViaRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.db")
	st, err := store.Open(context.Background(), "sqlite://"+filepath.ToSlash(path), "twitter")
	require.NoError(t, err)
	defer st.Close(context.Background())
	assert.NoError(t, st.Ping(context.Background()))
}

func TestNestedDocumentsReadBackAsMaps(t *testing.T) {
	ctx := context.Background()
	users := openTemp(t).Collection("users")
	require.NoError(t, users.InsertOne(ctx, models.Document{"id": "42"}))
	_, err := users.UpdateMany(ctx, store.Filter{"id": "42"}, models.Document{
		"tweets": []models.Document{
			{"id_str": "1", "user": map[string]any{"id_str": "42"}},
		},
		"follower_ids": []int64{1, 2},
	})
	require.NoError(t, err)

	cur, err := users.Find(ctx, store.Filter{"id": "42"})
	require.NoError(t, err)
	docs, err := store.All(ctx, cur)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	tweets, ok := docs[0]["tweets"].([]any)
	require.True(t, ok, "tweets decoded as %T", docs[0]["tweets"])
	tweet, ok := tweets[0].(map[string]any)
	require.True(t, ok, "tweet decoded as %T", tweets[0])
	assert.Equal(t, "42", models.String(tweet, "user.id_str"))
	assert.Equal(t, []any{int64(1), int64(2)}, docs[0]["follower_ids"])

	n, err := users.Count(ctx, store.Filter{"follower_ids": map[string]any{"$exists": true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
