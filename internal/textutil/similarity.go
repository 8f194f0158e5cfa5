package textutil

import (
	"strings"
	"unicode"
)

// NormalizeTitle lowercases a title and strips everything but letters,
// digits, and single spaces, so two renditions of the same title compare
// equal regardless of separators and punctuation.
func NormalizeTitle(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	prevSpace := true
	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity returns a token-based Sørensen–Dice coefficient between two
// titles in [0, 1]. Identical normalized titles score 1.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	tokensA := tokenCounts(na)
	tokensB := tokenCounts(nb)

	var common, totalA, totalB int
	for token, countA := range tokensA {
		totalA += countA
		if countB, ok := tokensB[token]; ok {
			common += min(countA, countB)
		}
	}
	for _, countB := range tokensB {
		totalB += countB
	}
	if totalA+totalB == 0 {
		return 0
	}
	return 2 * float64(common) / float64(totalA+totalB)
}

func tokenCounts(normalized string) map[string]int {
	counts := make(map[string]int)
	for _, token := range strings.Fields(normalized) {
		counts[token]++
	}
	return counts
}
