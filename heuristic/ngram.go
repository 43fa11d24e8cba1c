package heuristic

import "strings"

// ngramCounts counts every n-gram of the given order over tokens.
// N-grams are keyed by their tokens joined with a unit separator.
func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

// clippedMatches sums min(hyp[g], ref[g]) over the n-grams of hyp.
func clippedMatches(hyp, ref map[string]int) int {
	matches := 0
	for gram, c := range hyp {
		if r := ref[gram]; r > 0 {
			matches += min(c, r)
		}
	}
	return matches
}

// total sums the counts of a n-gram map.
func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
