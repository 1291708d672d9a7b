// Package normalize converts remote post and user documents into their
// stored shape: textual timestamps become time.Time, recursively through
// quoted and reposted sub-posts.
//
// Conversion only touches string values, so normalizing a document twice
// is a no-op the second time.
package normalize

import (
	stderrors "errors"
	"time"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
)

// TwitterTimeLayout is the remote API's created_at format.
const TwitterTimeLayout = "Mon Jan 02 15:04:05 +0000 2006"

// MaxDepth bounds recursion into nested posts.
const MaxDepth = 8

// nestedPosts are the sub-objects of a post that are posts themselves.
var nestedPosts = []string{"quoted_status", "retweeted_status"}

// Post converts created_at on doc, its user and any nested posts. The same
// document is returned. Fields that fail to parse are left as they were and
// reported in the returned error; the rest are still converted.
func Post(doc models.Document) (models.Document, error) {
	return doc, post(doc, 0)
}

func post(doc models.Document, depth int) error {
	if doc == nil {
		return nil
	}
	if depth > MaxDepth {
		return errors.Newf(errors.ErrorTypeParsing, "post nesting exceeds %d levels", MaxDepth)
	}

	var errs []error
	if err := convertCreatedAt(doc); err != nil {
		errs = append(errs, err)
	}
	if user, ok := models.Sub(doc, models.FieldUser); ok {
		if err := convertCreatedAt(user); err != nil {
			errs = append(errs, err)
		}
	}
	for _, key := range nestedPosts {
		if sub, ok := models.Sub(doc, key); ok {
			if err := post(sub, depth+1); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return stderrors.Join(errs...)
}

// User converts created_at on a user document. Users carry no nested posts
// at this point so there is no recursion.
func User(doc models.Document) (models.Document, error) {
	if doc == nil {
		return nil, nil
	}
	return doc, convertCreatedAt(doc)
}

func convertCreatedAt(doc models.Document) error {
	raw, ok := doc[models.FieldCreatedAt].(string)
	if !ok {
		return nil
	}
	ts, err := ParseTime(raw)
	if err != nil {
		return err
	}
	doc[models.FieldCreatedAt] = ts
	return nil
}

// ParseTime parses a remote API timestamp into UTC.
func ParseTime(s string) (time.Time, error) {
	ts, err := time.Parse(TwitterTimeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrorTypeParsing, err, "invalid created_at")
	}
	return ts.UTC(), nil
}
