package task

import "strings"

// MatchSeparator splits a "<project> - <title>" time-entry description.
const MatchSeparator = " - "

// MatchKey derives the text to look for from a time-entry description. When
// the description carries a project prefix, only the segment after the first
// separator is used.
func MatchKey(description string) string {
	key := strings.TrimSpace(description)
	if strings.Contains(key, MatchSeparator) {
		key = strings.TrimSpace(strings.Split(key, MatchSeparator)[1])
	}
	return key
}

// Matcher picks the task a match key refers to.
type Matcher interface {
	Match(key string, candidates []*Task) (*Task, bool)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(key string, candidates []*Task) (*Task, bool)

// Match calls f.
func (f MatcherFunc) Match(key string, candidates []*Task) (*Task, bool) {
	return f(key, candidates)
}

// SubstringMatcher returns the first candidate whose content contains the
// key, case-sensitively.
type SubstringMatcher struct{}

// Match implements Matcher.
func (SubstringMatcher) Match(key string, candidates []*Task) (*Task, bool) {
	for _, t := range candidates {
		if strings.Contains(t.Content, key) {
			return t, true
		}
	}
	return nil, false
}

// TokenMatcher returns the first candidate containing every whitespace
// separated token of the key, in any order.
type TokenMatcher struct {
	// FoldCase compares case-insensitively.
	FoldCase bool
}

// Match implements Matcher.
func (m TokenMatcher) Match(key string, candidates []*Task) (*Task, bool) {
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return nil, false
	}
	if m.FoldCase {
		for i := range tokens {
			tokens[i] = strings.ToLower(tokens[i])
		}
	}
	for _, t := range candidates {
		content := t.Content
		if m.FoldCase {
			content = strings.ToLower(content)
		}
		all := true
		for _, tok := range tokens {
			if !strings.Contains(content, tok) {
				all = false
				break
			}
		}
		if all {
			return t, true
		}
	}
	return nil, false
}
