package analysis

// levenshtein computes the edit distance between two strings, rune-wise.
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min(min(prev[j]+1, curr[j-1]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

// bestMatch returns the closest candidate within edit distance 2. The
// first candidate at the minimum distance wins.
func bestMatch(name string, candidates []string) (string, bool) {
	best := ""
	bestDist := 3
	for _, c := range candidates {
		if d := levenshtein(name, c); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, bestDist <= 2
}
