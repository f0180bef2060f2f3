package corpus

import (
	"regexp"
	"sort"
	"strings"

	"specforge/internal/intent"
)

var wordRe = regexp.MustCompile(`[a-z_][a-z0-9_]+`)

// Tokenize derives the token set for an IR from its description, name, and
// signature. Tokens are lowercase words of at least two characters, deduped
// and sorted so stored sets are deterministic.
func Tokenize(ir intent.IR) []string {
	text := strings.ToLower(ir.Description + " " + strings.ReplaceAll(ir.Name, "_", " ") + " " + ir.Tag)
	seen := make(map[string]bool)
	for _, w := range wordRe.FindAllString(text, -1) {
		seen[w] = true
	}
	for _, p := range ir.Params {
		seen[strings.ToLower(p.Type)] = true
	}
	if ir.ReturnType != "" {
		seen[strings.ToLower(ir.ReturnType)] = true
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Jaccard computes intersection-over-union for two token sets. Two empty
// sets are treated as dissimilar, not identical.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}

	inter := 0
	union := len(setA)
	seenB := make(map[string]bool, len(b))
	for _, t := range b {
		if seenB[t] {
			continue
		}
		seenB[t] = true
		if setA[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
