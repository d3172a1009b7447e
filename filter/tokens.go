package filter

import (
	"strings"
	"unicode"
)

// tokenize splits a title into lowercase letter/digit runs
func tokenize(input string) []string {
	clean := normalize(input)
	if clean == "" {
		return nil
	}
	return strings.Fields(clean)
}

// normalize lowercases input and collapses every non letter/digit run to one space
func normalize(input string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// tokenMatch returns the share of desired tokens present in candidate
func tokenMatch(desired, candidate []string) float64 {
	if len(desired) == 0 || len(candidate) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(candidate))
	for _, token := range candidate {
		set[token] = struct{}{}
	}

	var matches int
	for _, token := range desired {
		if _, ok := set[token]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(desired))
}
