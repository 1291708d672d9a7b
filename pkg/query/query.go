// Package query turns a keyword file into a search expression.
package query

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"twitterkeywordsearch/pkg/errors"
)

// MaxKeywords is the remote API's ceiling on OR operands in a single query.
const MaxKeywords = 10

// ParseKeywords reads one phrase per line, trimming whitespace and dropping
// blank lines. Order is preserved.
func ParseKeywords(r io.Reader) ([]string, error) {
	var keywords []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		kw := strings.TrimSpace(scanner.Text())
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeValidation, err, "failed to read keywords")
	}
	return keywords, nil
}

// Build renders keywords as `"k1" OR "k2" OR "kn"`. An empty list yields an
// empty query.
func Build(keywords []string) (string, error) {
	if len(keywords) > MaxKeywords {
		return "", errors.Newf(errors.ErrorTypeValidation,
			"query has %d keywords, the maximum is %d", len(keywords), MaxKeywords)
	}

	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = `"` + kw + `"`
	}
	return strings.Join(quoted, " OR "), nil
}

// Load reads the keyword file at path and builds its query.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeValidation, err, fmt.Sprintf("cannot open query file %s", path))
	}
	defer f.Close()

	keywords, err := ParseKeywords(f)
	if err != nil {
		return "", err
	}
	return Build(keywords)
}
