package twitter

import (
	"bytes"
	"encoding/json"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
)

// toDocument re-encodes a go-twitter struct into a document with the API's
// field names. Integral numbers become int64 so ids survive intact, and
// null fields are dropped so optional sub-posts are simply absent.
func toDocument(v any) (models.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "failed to encode response")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "failed to decode response")
	}
	if doc == nil {
		return nil, errors.New(errors.ErrorTypeParsing, "empty response")
	}
	return convertMap(doc), nil
}

func convertMap(m map[string]any) map[string]any {
	for k, v := range m {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = convertValue(v)
	}
	return m
}

func convertValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return convertMap(t)
	case []any:
		for i, e := range t {
			t[i] = convertValue(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
