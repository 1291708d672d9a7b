// Package sqlitestore keeps documents as BSON blobs in a single SQLite
// file. It backs sqlite:// URLs for offline runs; filters are evaluated in
// process with store.Matches.
package sqlitestore

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/store"
	"twitterkeywordsearch/pkg/store/bsondoc"
)

func init() {
	store.Register("sqlite", func(ctx context.Context, u *url.URL, database string) (store.Store, error) {
		return Open(ctx, PathFromURL(u, database))
	})
}

// PathFromURL maps sqlite:///abs/path.db, sqlite://rel.db and sqlite://
// (database name in the working directory) onto a file path.
func PathFromURL(u *url.URL, database string) string {
	path := u.Host + u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path == "" || path == "/" {
		return database + ".db"
	}
	return filepath.FromSlash(path)
}

// Store is a SQLite file holding every collection in one table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConnection, err, "open sqlite "+path)
	}
	// One writer at a time; the aspect workers share this handle.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrorTypeConnection, err, "migrate sqlite "+path)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	PRAGMA journal_mode=WAL;
	PRAGMA synchronous=NORMAL;
	CREATE TABLE IF NOT EXISTS documents (
	  seq INTEGER PRIMARY KEY AUTOINCREMENT,
	  collection TEXT NOT NULL,
	  body BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`)
	return err
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrorTypeConnection, err, "sqlite ping failed")
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error { return s.db.Close() }

type collection struct {
	db   *sql.DB
	name string
}

type row struct {
	seq int64
	doc models.Document
}

// scan loads every document of the collection that matches filter.
func (c *collection) scan(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, filter store.Filter) ([]row, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, body FROM documents WHERE collection = ? ORDER BY seq`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		var body []byte
		if err := rows.Scan(&r.seq, &body); err != nil {
			return nil, err
		}
		if r.doc, err = decode(body); err != nil {
			return nil, err
		}
		if store.Matches(r.doc, filter) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func (c *collection) Find(ctx context.Context, filter store.Filter) (store.Cursor, error) {
	rows, err := c.scan(ctx, c.db, filter)
	if err != nil {
		return nil, c.wrap(err, "find")
	}
	docs := make([]models.Document, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return store.NewSliceCursor(docs), nil
}

func (c *collection) Count(ctx context.Context, filter store.Filter) (int64, error) {
	rows, err := c.scan(ctx, c.db, filter)
	if err != nil {
		return 0, c.wrap(err, "count")
	}
	return int64(len(rows)), nil
}

func (c *collection) InsertOne(ctx context.Context, doc models.Document) error {
	body, err := bsondoc.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, err, "encode document")
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, body) VALUES (?, ?)`, c.name, body); err != nil {
		return c.wrap(err, "insert")
	}
	return nil
}

func (c *collection) UpdateMany(ctx context.Context, filter store.Filter, set models.Document) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, c.wrap(err, "update")
	}
	defer tx.Rollback()

	rows, err := c.scan(ctx, tx, filter)
	if err != nil {
		return 0, c.wrap(err, "update")
	}
	for _, r := range rows {
		store.ApplySet(r.doc, set)
		body, err := bsondoc.Marshal(r.doc)
		if err != nil {
			return 0, errors.Wrap(errors.ErrorTypeParsing, err, "encode document")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE documents SET body = ? WHERE seq = ?`, body, r.seq); err != nil {
			return 0, c.wrap(err, "update")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, c.wrap(err, "update")
	}
	return int64(len(rows)), nil
}

func (c *collection) wrap(err error, op string) error {
	if errors.IsCanceled(err) {
		return err
	}
	return errors.Wrap(errors.ErrorTypeConnection, err, strings.Join([]string{op, c.name}, " "))
}

func decode(body []byte) (models.Document, error) {
	doc, err := bsondoc.Unmarshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "decode document")
	}
	return doc, nil
}
