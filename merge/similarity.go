package merge

import "strings"

// similarity scores two source texts in [0, 1]. The texts are
// whitespace-normalized first; then either one containing the other
// scores 1 (a unit that was split out of, or combined into, a larger
// one), and otherwise the score is the longest-common-subsequence
// ratio 2*LCS / (len(a)+len(b)) over runes.
func similarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ra := []rune(na)
	rb := []rune(nb)
	shorter := len(ra)
	if len(rb) < shorter {
		shorter = len(rb)
	}
	if shorter >= 3 && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return 1
	}

	// Cap the quadratic DP on pathological inputs.
	const maxRunes = 2000
	if len(ra) > maxRunes {
		ra = ra[:maxRunes]
	}
	if len(rb) > maxRunes {
		rb = rb[:maxRunes]
	}

	l := lcsLength(ra, rb)
	return 2 * float64(l) / float64(len(ra)+len(rb))
}

// normalizeText collapses all whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lcsLength computes the longest common subsequence length with a
// two-row dynamic program.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
