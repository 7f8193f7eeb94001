package redact

import (
	"sort"
	"strings"
)

// atomic replaces every literal occurrence found in the original text. The
// scan is left to right; at each position the longest matching literal is
// taken and the scan resumes after it, so replacements never overlap and
// inserted sentinels are never rescanned.
func atomic(text string, literals []string) string {
	lits := normalize(literals)
	if len(lits) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i := 0; i < len(text); {
		n := longestAt(text[i:], lits)
		if n == 0 {
			i++
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString(Sentinel)
		i += n
		last = i
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// normalize drops empty and duplicate literals and orders the rest longest
// first.
func normalize(literals []string) []string {
	seen := make(map[string]bool, len(literals))
	out := make([]string, 0, len(literals))
	for _, l := range literals {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func longestAt(s string, lits []string) int {
	for _, l := range lits {
		if strings.HasPrefix(s, l) {
			return len(l)
		}
	}
	return 0
}
