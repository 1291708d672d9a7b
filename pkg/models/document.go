// Package models defines the document shapes exchanged between the remote
// API adapter, the normalizer and the document store.
package models

import "strings"

// Document is a raw remote object, keyed by the remote API's JSON field
// names. It is an alias so that nested objects decoded by the store drivers
// share the same dynamic type as top-level ones.
type Document = map[string]any

// Aspect names double as the field each aspect is stored under on a user
// record, except for the profile which is merged at top level.
const (
	AspectProfile   = "profile"
	AspectTweets    = "tweets"
	AspectFollowers = "follower_ids"
	AspectFollowing = "following_ids"
)

// Well-known document fields
const (
	FieldID        = "id"
	FieldIDStr     = "id_str"
	FieldCreatedAt = "created_at"
	FieldUser      = "user"
)

// Lookup resolves a dotted path such as "user.id_str" through nested
// documents.
func Lookup(doc Document, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path, or "" when absent or not a string.
func String(doc Document, path string) string {
	v, ok := Lookup(doc, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Sub returns the nested document at key when it is present and an object.
func Sub(doc Document, key string) (Document, bool) {
	m, ok := doc[key].(map[string]any)
	return m, ok && m != nil
}

// Clone returns a deep copy of doc, copying nested documents and arrays.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Document:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []int64:
		return append([]int64(nil), t...)
	default:
		return v
	}
}
