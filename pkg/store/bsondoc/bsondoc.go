// Package bsondoc decodes BSON bodies into plain documents. Nested objects
// come back as map[string]any and arrays as []any, whatever shape the
// driver produced, so dotted-path lookups work on data read from any
// backend.
package bsondoc

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"twitterkeywordsearch/pkg/models"
)

// Marshal encodes doc as a BSON document.
func Marshal(doc models.Document) ([]byte, error) {
	return bson.Marshal(doc)
}

// Unmarshal decodes a BSON document body.
func Unmarshal(body []byte) (models.Document, error) {
	var d bson.D
	if err := bson.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	return fromD(d), nil
}

// Plain converts driver container types in v to map[string]any and []any,
// recursively. Scalars, including primitive.DateTime, are returned as is.
func Plain(v any) any {
	switch t := v.(type) {
	case primitive.D:
		return fromD(t)
	case primitive.M:
		return fromMap(t)
	case map[string]any:
		return fromMap(t)
	case primitive.A:
		return fromSlice(t)
	case []any:
		return fromSlice(t)
	default:
		return v
	}
}

func fromD(d primitive.D) models.Document {
	out := make(models.Document, len(d))
	for _, e := range d {
		out[e.Key] = Plain(e.Value)
	}
	return out
}

func fromMap(m map[string]any) models.Document {
	out := make(models.Document, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func fromSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Plain(v)
	}
	return out
}
