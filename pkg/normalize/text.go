package normalize

import (
	"time"

	"twitterkeywordsearch/pkg/models"
)

// DisplayText flattens a post into a single line of text. A repost becomes
// " RT @<author>: <original text> " and never uses its own truncated text.
// Link entities are not appended. Reposts nested deeper than MaxDepth
// contribute no text.
func DisplayText(doc models.Document) string {
	return displayText(doc, 0)
}

func displayText(doc models.Document, depth int) string {
	if doc == nil {
		return ""
	}
	if rs, ok := models.Sub(doc, "retweeted_status"); ok {
		if depth >= MaxDepth {
			return ""
		}
		author := models.String(rs, "user.screen_name")
		return " RT @" + author + ": " + displayText(rs, depth+1) + " "
	}
	if full, _ := doc["full_text"].(string); full != "" {
		return full
	}
	text, _ := doc["text"].(string)
	return text
}

// CreatedAt returns the post's converted timestamp, parsing it when the
// document has not been normalized yet.
func CreatedAt(doc models.Document) (time.Time, bool) {
	switch v := doc[models.FieldCreatedAt].(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := ParseTime(v)
		return ts, err == nil
	default:
		return time.Time{}, false
	}
}
