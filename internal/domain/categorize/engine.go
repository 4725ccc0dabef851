package categorize

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// LexicalMatch is a single strong-keyword hit.
type LexicalMatch struct {
	Pattern  string
	Category Category
}

// LexicalEngine matches thousands of merchant keywords in one pass using the
// Aho-Corasick algorithm. Time complexity is O(n + m) where n is the
// description length and m the number of hits, independent of table size.
type LexicalEngine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	entries  []KeywordEntry
}

// NewLexicalEngine builds the matcher from a keyword table. Patterns are
// normalized to uppercase; duplicate patterns keep the first entry.
func NewLexicalEngine(table []KeywordEntry) *LexicalEngine {
	e := &LexicalEngine{}

	seen := make(map[string]bool, len(table))
	for _, entry := range table {
		pattern := strings.ToUpper(strings.TrimSpace(entry.Pattern))
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		e.patterns = append(e.patterns, pattern)
		e.entries = append(e.entries, KeywordEntry{Pattern: pattern, Category: entry.Category})
	}

	if len(e.patterns) > 0 {
		bytePatterns := make([][]byte, len(e.patterns))
		for i, p := range e.patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	}

	return e
}

// Match returns the best strong-keyword hit for the description, or nil.
// When several patterns hit, the longest one wins: "JIO POSTPAID" must beat
// a shorter overlapping pattern so the more specific table entry decides.
func (e *LexicalEngine) Match(description string) *LexicalMatch {
	if e.matcher == nil {
		return nil
	}

	normalized := strings.ToUpper(description)
	hits := e.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return nil
	}

	var best *LexicalMatch
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.entries) {
			continue
		}
		entry := e.entries[idx]
		if best == nil || len(entry.Pattern) > len(best.Pattern) {
			best = &LexicalMatch{Pattern: entry.Pattern, Category: entry.Category}
		}
	}

	return best
}

// PatternCount returns the number of patterns loaded in the engine.
func (e *LexicalEngine) PatternCount() int {
	return len(e.patterns)
}
