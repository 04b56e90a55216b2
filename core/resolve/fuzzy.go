package resolve

import (
	"sort"
	"strings"
)

// TokenSetRatio scores the similarity of two strings on a 0-100 scale using
// token-set comparison: both strings are split into unique whitespace-
// delimited tokens and the shared token set is compared against each full
// set. Word order and repeated mentions of shared tokens do not lower the
// score, which is what makes "Smith, John" match "John Smith". Matching is
// case-respecting; callers normalize before scoring.
func TokenSetRatio(a, b string) float64 {
	tokensA := uniqueSortedTokens(a)
	tokensB := uniqueSortedTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var intersection, diffA, diffB []string
	setB := make(map[string]struct{}, len(tokensB))
	for _, t := range tokensB {
		setB[t] = struct{}{}
	}
	setA := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		setA[t] = struct{}{}
	}
	for _, t := range tokensA {
		if _, ok := setB[t]; ok {
			intersection = append(intersection, t)
		} else {
			diffA = append(diffA, t)
		}
	}
	for _, t := range tokensB {
		if _, ok := setA[t]; !ok {
			diffB = append(diffB, t)
		}
	}

	sect := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(diffA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(diffB, " "))

	best := indelRatio(sect, combinedA)
	if r := indelRatio(sect, combinedB); r > best {
		best = r
	}
	if r := indelRatio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

// indelRatio is the normalized insert/delete similarity of two strings on a
// 0-100 scale: 100 - 100 * distance / (len(a) + len(b)), where distance is
// the minimum number of rune insertions and deletions turning a into b.
func indelRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	lcs := lcsLength(ra, rb)
	return 100 * float64(2*lcs) / float64(total)
}

// lcsLength computes the longest common subsequence length with a rolling
// single-row DP table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}
	return row[len(b)]
}

func uniqueSortedTokens(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}
