// Package merge implements deterministic three-way merging of note text
// (line based, diff3 style) and of ordered id sequences (for todo lists).
// All functions are pure: same inputs always produce the same output.
package merge

// lcsMatch is a pair of indices (one into each input) of equal elements.
type lcsMatch struct {
	a int
	b int
}

// lcsMatches returns the index pairs of a longest common subsequence of a
// and b, in order. Classic dynamic-programming LCS; inputs are note lines or
// todo ids, so quadratic cost is acceptable.
func lcsMatches(a, b []string) []lcsMatch {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	var rev []lcsMatch
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			rev = append(rev, lcsMatch{a: i - 1, b: j - 1})
			i--
			j--
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	out := make([]lcsMatch, len(rev))
	for k, v := range rev {
		out[len(rev)-1-k] = v
	}
	return out
}

// LongestCommonSubsequence returns the common elements of a and b in order.
// Used to synthesize a merge ancestor when none is known.
func LongestCommonSubsequence(a, b []string) []string {
	matches := lcsMatches(a, b)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, a[m.a])
	}
	return out
}
