// Package similarity provides normalized string similarity scoring for
// typo detection against a command corpus.
package similarity

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/hbollon/go-edlib"
)

// Ratio returns a similarity score in [0,1] between two strings.
// Matching is case-insensitive: both inputs are lowercased before
// comparison. The score is 1 - d/maxLen where d is the optimal string
// alignment (Damerau-Levenshtein with adjacent transpositions) distance,
// so a single transposed pair costs one edit rather than two.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}

	la := len([]rune(a))
	lb := len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	d := edlib.OSADamerauLevenshteinDistance(a, b)
	if d >= maxLen {
		return 0.0
	}
	return 1.0 - float64(d)/float64(maxLen)
}

// Distance returns the plain Levenshtein edit distance between two strings,
// case-insensitive. Used for human-readable explanations, not for scoring.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}

// Match is the best candidate found by BestMatch.
type Match struct {
	Text  string
	Score float64
}

// BestMatch scans candidates and returns the one with the highest Ratio
// against query. ok is false when candidates is empty.
func BestMatch(query string, candidates []string) (best Match, ok bool) {
	for _, c := range candidates {
		score := Ratio(query, c)
		if !ok || score > best.Score {
			best = Match{Text: c, Score: score}
			ok = true
		}
	}
	return best, ok
}
