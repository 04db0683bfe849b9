package resolve

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio computes the Ratcliff/Obershelp similarity between two strings over
// their runes. Symmetric, 1.0 for identical inputs. This is the same ratio
// the registry's legacy tooling used, so thresholds carry over unchanged.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Match is the winning candidate from a BestMatch call.
type Match struct {
	Value string
	Index int
	Score float64
}

// BestMatch returns the highest-scoring candidate with similarity >= the
// threshold. Ties keep the first-encountered candidate, so callers must pass
// candidates in a deterministic order (slices built from registry order or an
// explicit sort, never map iteration).
func BestMatch(query string, candidates []string, threshold float64) (Match, bool) {
	best := Match{Index: -1}
	for i, c := range candidates {
		if c == "" {
			continue
		}
		if score := Ratio(query, c); score > best.Score {
			best = Match{Value: c, Index: i, Score: score}
		}
	}
	if best.Index < 0 || best.Score < threshold {
		return Match{}, false
	}
	return best, true
}
