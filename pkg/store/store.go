// Package store defines the document store the ingester writes to, and
// opens a backend by URL scheme. Backends register themselves on import:
//
//	import _ "twitterkeywordsearch/pkg/store/mongostore"
//
//	st, err := store.Open(ctx, "mongodb://localhost:27017", "twitter")
package store

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
)

// Filter selects documents. Keys are dotted field paths; a value is either
// matched for equality or is an operator document such as
// {"$exists": true}.
type Filter = models.Document

// Store is a named database of document collections.
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Collection holds documents of one kind.
type Collection interface {
	Find(ctx context.Context, filter Filter) (Cursor, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	InsertOne(ctx context.Context, doc models.Document) error
	// UpdateMany merges set into every matching document and returns the
	// number matched.
	UpdateMany(ctx context.Context, filter Filter, set models.Document) (int64, error)
}

// Cursor iterates over query results.
type Cursor interface {
	Next(ctx context.Context) bool
	// Decode copies the current document into val, a *models.Document
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// OpenFunc opens a backend for a parsed URL and database name.
type OpenFunc func(ctx context.Context, u *url.URL, database string) (Store, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]OpenFunc)
)

// Register makes a backend available for a URL scheme. It panics when the
// scheme is registered twice.
func Register(scheme string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[scheme]; dup {
		panic("store: Register called twice for scheme " + scheme)
	}
	backends[scheme] = open
}

// Schemes lists the registered URL schemes.
func Schemes() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	out := make([]string, 0, len(backends))
	for s := range backends {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open connects to the store at rawURL. Failures are connection errors so
// the caller can abort before ingesting anything.
func Open(ctx context.Context, rawURL, database string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeValidation, err, "invalid database url")
	}

	backendsMu.RLock()
	open, ok := backends[strings.ToLower(u.Scheme)]
	backendsMu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"unsupported database url scheme %q (supported: %s)", u.Scheme, strings.Join(Schemes(), ", "))
	}

	st, err := open(ctx, u, database)
	if err != nil {
		if errors.TypeOf(err) != errors.ErrorTypeUnknown {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrorTypeConnection, err, fmt.Sprintf("cannot open %s store", u.Scheme))
	}
	return st, nil
}
