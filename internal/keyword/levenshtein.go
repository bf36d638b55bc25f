package keyword

import "strings"

// EditDistance returns the optimal string alignment distance between a and b:
// insertions, deletions, substitutions and adjacent transpositions each cost 1.
// Runes are compared, so "café" and "cafe" differ by one edit.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Three rolling rows: the transposition case looks two rows back.
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				curr[j] = min(curr[j], prev2[j-2]+1)
			}
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(rb)]
}

// Similarity maps the edit distance of a and b into [0, 1], where 1 means equal.
// Comparison is case-insensitive.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(EditDistance(a, b))/float64(longest)
}

// NameSimilarity scores how well a partially typed query matches a product name.
// A name containing the whole query scores 1. Otherwise every query token is
// scored against its best name token, a token that prefixes a name token scoring
// 1, and the mean is returned.
func NameSimilarity(query, name string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(name)
	if q == "" {
		return 0
	}
	if strings.Contains(n, q) {
		return 1
	}

	nameTerms := strings.Fields(n)
	if len(nameTerms) == 0 {
		return 0
	}
	queryTerms := strings.Fields(q)
	var total float64
	for _, qt := range queryTerms {
		best := 0.0
		for _, nt := range nameTerms {
			s := Similarity(qt, nt)
			if strings.HasPrefix(nt, qt) {
				s = 1
			}
			best = max(best, s)
		}
		total += best
	}
	return total / float64(len(queryTerms))
}
