package picker

import (
	"sort"
	"strings"
)

// matchResult pairs an entry with its fuzzy score.
type matchResult struct {
	entry Entry
	score int
}

// Filter narrows entries to those fuzzily matching the query, best matches
// first with original order breaking ties. An empty query returns the
// entries unchanged.
func Filter(entries []Entry, query string) []Entry {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return entries
	}

	queryRunes := []rune(query)
	results := make([]matchResult, 0, len(entries))
	for _, e := range entries {
		score, ok := matchScore(queryRunes, e.Label())
		if !ok {
			continue
		}
		results = append(results, matchResult{entry: e, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	out := make([]Entry, len(results))
	for i, r := range results {
		out[i] = r.entry
	}
	return out
}

// matchScore runs a greedy left-to-right subsequence match of query against
// text and scores it. All query runes must match. Consecutive matches and
// matches on word boundaries score higher; gaps cost.
func matchScore(queryRunes []rune, text string) (int, bool) {
	textRunes := []rune(strings.ToLower(text))

	score := 0
	queryIdx := 0
	lastMatch := -2
	for i := 0; i < len(textRunes) && queryIdx < len(queryRunes); i++ {
		if textRunes[i] != queryRunes[queryIdx] {
			continue
		}
		score += 10
		if i == lastMatch+1 {
			score += 5 // consecutive run
		}
		if i == 0 || textRunes[i-1] == ' ' || textRunes[i-1] == '_' || textRunes[i-1] == '-' {
			score += 8 // word boundary
		}
		if lastMatch >= 0 {
			score -= (i - lastMatch - 1) // gap penalty
		}
		lastMatch = i
		queryIdx++
	}

	if queryIdx != len(queryRunes) {
		return 0, false
	}
	return score, true
}
