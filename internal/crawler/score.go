package crawler

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scorer counts which keywords occur in a description.
// Matching is a case-insensitive substring test with no word boundaries.
type Scorer struct {
	keywords []string
	needles  []string
}

// NewScorer creates a scorer over a copy of keywords
func NewScorer(keywords []string) *Scorer {
	lower := cases.Lower(language.Und)
	s := &Scorer{
		keywords: make([]string, 0, len(keywords)),
		needles:  make([]string, 0, len(keywords)),
	}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		s.keywords = append(s.keywords, kw)
		s.needles = append(s.needles, lower.String(kw))
	}
	return s
}

// Keywords returns the scorer's keyword list
func (s *Scorer) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}

// Score returns the matched keywords in keyword-list order and their count
func (s *Scorer) Score(text string) ([]string, int) {
	text = cases.Lower(language.Und).String(text)

	matched := []string{}
	for i, needle := range s.needles {
		if strings.Contains(text, needle) {
			matched = append(matched, s.keywords[i])
		}
	}
	return matched, len(matched)
}
