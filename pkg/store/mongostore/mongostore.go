// Package mongostore backs mongodb:// and mongodb+srv:// URLs with the
// official Mongo driver.
package mongostore

import (
	"context"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/store"
	"twitterkeywordsearch/pkg/store/bsondoc"
)

// DefaultConnectTimeout bounds the initial connect and ping.
const DefaultConnectTimeout = 10 * time.Second

func init() {
	open := func(ctx context.Context, u *url.URL, database string) (store.Store, error) {
		return Connect(ctx, u.String(), database)
	}
	store.Register("mongodb", open)
	store.Register("mongodb+srv", open)
}

// Store is a Mongo database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and pings the primary so an unreachable server fails
// at startup.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(DefaultConnectTimeout).
		SetServerSelectionTimeout(DefaultConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConnection, err, "failed to connect to mongo")
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{c: s.db.Collection(name)}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(errors.ErrorTypeConnection, err, "mongo ping failed")
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type collection struct {
	c *mongo.Collection
}

func filterDoc(f store.Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func (c *collection) Find(ctx context.Context, filter store.Filter) (store.Cursor, error) {
	cur, err := c.c.Find(ctx, filterDoc(filter))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConnection, err, "find "+c.c.Name())
	}
	return &cursor{cur: cur}, nil
}

func (c *collection) Count(ctx context.Context, filter store.Filter) (int64, error) {
	n, err := c.c.CountDocuments(ctx, filterDoc(filter))
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeConnection, err, "count "+c.c.Name())
	}
	return n, nil
}

func (c *collection) InsertOne(ctx context.Context, doc models.Document) error {
	if _, err := c.c.InsertOne(ctx, bson.M(doc)); err != nil {
		return errors.Wrap(errors.ErrorTypeConnection, err, "insert into "+c.c.Name())
	}
	return nil
}

func (c *collection) UpdateMany(ctx context.Context, filter store.Filter, set models.Document) (int64, error) {
	res, err := c.c.UpdateMany(ctx, filterDoc(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeConnection, err, "update "+c.c.Name())
	}
	return res.MatchedCount, nil
}

type cursor struct {
	cur *mongo.Cursor
}

func (c *cursor) Next(ctx context.Context) bool { return c.cur.Next(ctx) }
func (c *cursor) Err() error                    { return c.cur.Err() }
func (c *cursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

func (c *cursor) Decode(val any) error {
	out, ok := val.(*models.Document)
	if !ok {
		return c.cur.Decode(val)
	}
	doc, err := bsondoc.Unmarshal(c.cur.Current)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, err, "decode document")
	}
	*out = doc
	return nil
}
