package store

import (
	"reflect"
	"strings"

	"twitterkeywordsearch/pkg/models"
)

// Matches reports whether doc satisfies filter. It implements the subset
// of the Mongo query language the ingester uses: equality on dotted paths
// and $exists.
func Matches(doc models.Document, filter Filter) bool {
	for path, want := range filter {
		got, present := models.Lookup(doc, path)
		if op, ok := want.(map[string]any); ok && isOperator(op) {
			if !matchOperators(got, present, op) {
				return false
			}
			continue
		}
		if !present || !equal(got, want) {
			return false
		}
	}
	return true
}

func isOperator(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func matchOperators(got any, present bool, ops map[string]any) bool {
	for op, arg := range ops {
		switch op {
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false
			}
		case "$eq":
			if !present || !equal(got, arg) {
				return false
			}
		case "$ne":
			if present && equal(got, arg) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// equal compares values, treating integer types as interchangeable.
func equal(a, b any) bool {
	if ai, ok := toInt64(a); ok {
		bi, ok := toInt64(b)
		return ok && ai == bi
	}
	return reflect.DeepEqual(a, b)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// ApplySet merges set into doc. Dotted keys create nested documents as
// needed, as $set does.
func ApplySet(doc models.Document, set models.Document) {
	for path, v := range set {
		parts := strings.Split(path, ".")
		cur := doc
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
}
