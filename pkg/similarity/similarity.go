// Package similarity scores how close two normalized names are using
// normalized Levenshtein edit distance over runes.
package similarity

// Distance returns the Levenshtein distance between a and b with unit costs
// for insertion, deletion and substitution. It works on runes, so a
// precomposed "é" counts as one edit.
func Distance(a, b string) int {
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

	// Keep the shorter string in ra so the rows stay small.
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// Score returns 1 - Distance(a, b) / max(len(a), len(b)), in [0, 1].
// Two empty strings score 1. Score is symmetric and Score(a, a) == 1.
func Score(a, b string) float64 {
	la, lb := runeLen(a), runeLen(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	return 1.0 - float64(Distance(a, b))/float64(max(la, lb))
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
