package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// stopwords never count towards relevance.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true, "for": true,
	"from": true, "in": true, "is": true, "it": true, "my": true, "near": true,
	"of": true, "on": true, "or": true, "the": true, "to": true, "was": true,
	"with": true, "lost": true, "found": true,
}

// Keywords splits s into distinct case-folded words, dropping stopwords and
// single characters.
func Keywords(s string) []string {
	fields := strings.FieldsFunc(folder.String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func keywordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, k := range Keywords(s) {
		set[k] = true
	}
	return set
}
