package dedup

import "strings"

const shingleSize = 3

// Similarity scores two normalized texts in [0,1] using Jaccard overlap of
// word 3-shingles. Texts with fewer than three tokens fall back to unigram
// token sets so short headlines still compare sensibly.
func Similarity(a, b string) float64 {
	sa := shingles(a)
	sb := shingles(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	intersection := 0
	for s := range sa {
		if sb[s] {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func shingles(text string) map[string]bool {
	tokens := strings.Fields(text)
	out := make(map[string]bool)

	if len(tokens) < shingleSize {
		for _, t := range tokens {
			out[t] = true
		}
		return out
	}

	for i := 0; i+shingleSize <= len(tokens); i++ {
		out[strings.Join(tokens[i:i+shingleSize], " ")] = true
	}
	return out
}
