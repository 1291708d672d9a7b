package store

import (
	"context"
	"fmt"

	"twitterkeywordsearch/pkg/models"
)

// SliceCursor iterates over an in-memory result set.
type SliceCursor struct {
	docs []models.Document
	pos  int
}

// NewSliceCursor returns a cursor over docs.
func NewSliceCursor(docs []models.Document) *SliceCursor {
	return &SliceCursor{docs: docs, pos: -1}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if ctx.Err() != nil || c.pos+1 >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Decode(val any) error {
	if c.pos < 0 || c.pos >= len(c.docs) {
		return fmt.Errorf("store: Decode called without a current document")
	}
	out, ok := val.(*models.Document)
	if !ok {
		return fmt.Errorf("store: cannot decode into %T", val)
	}
	*out = models.Clone(c.docs[c.pos])
	return nil
}

func (c *SliceCursor) Err() error { return nil }

func (c *SliceCursor) Close(ctx context.Context) error {
	c.docs = nil
	return nil
}

// All drains a cursor into a slice and closes it.
func All(ctx context.Context, cur Cursor) ([]models.Document, error) {
	defer cur.Close(ctx)

	var out []models.Document
	for cur.Next(ctx) {
		var doc models.Document
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}
