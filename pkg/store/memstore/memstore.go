// Package memstore is an in-process document store. It backs memory://
// URLs and stands in for Mongo in tests.
package memstore

import (
	"context"
	"net/url"
	"sync"

	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/store"
)

func init() {
	store.Register("memory", func(ctx context.Context, u *url.URL, database string) (store.Store, error) {
		return New(), nil
	})
}

// Store keeps collections in memory. Documents are deep-copied on the way
// in and out, so callers never share maps with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) store.Collection {
	return s.collection(name)
}

// C is Collection with the concrete type, for tests that need Ops.
func (s *Store) C(name string) *Collection {
	return s.collection(name)
}

func (s *Store) collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &Collection{name: name}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

// Collection is an ordered list of documents.
type Collection struct {
	name string
	mu   sync.RWMutex
	docs []models.Document

	// Ops counts calls by operation name
	ops map[string]int
}

func (c *Collection) count(op string) {
	if c.ops == nil {
		c.ops = make(map[string]int)
	}
	c.ops[op]++
}

// Ops returns how many times op ("find", "count", "insert", "update") was
// called.
func (c *Collection) Ops(op string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ops[op]
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Collection) Find(ctx context.Context, filter store.Filter) (store.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("find")

	var out []models.Document
	for _, doc := range c.docs {
		if store.Matches(doc, filter) {
			out = append(out, models.Clone(doc))
		}
	}
	return store.NewSliceCursor(out), nil
}

func (c *Collection) Count(ctx context.Context, filter store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("count")

	var n int64
	for _, doc := range c.docs {
		if store.Matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (c *Collection) InsertOne(ctx context.Context, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("insert")

	c.docs = append(c.docs, models.Clone(doc))
	return nil
}

func (c *Collection) UpdateMany(ctx context.Context, filter store.Filter, set models.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("update")

	var n int64
	for _, doc := range c.docs {
		if store.Matches(doc, filter) {
			store.ApplySet(doc, models.Clone(set))
			n++
		}
	}
	return n, nil
}
