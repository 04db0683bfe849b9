package resolve

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/fieldsight/internal/model"
)

// PersonThreshold is the fuzzy cutoff for salesperson names. Looser than the
// clustering thresholds because working names are short and noisy.
const PersonThreshold = 0.80

// Multi-person raw fields are split on these separators before resolution.
var personSplitRe = regexp.MustCompile(`[/&,]`)

var titleCaser = cases.Title(language.Und)

// SplitPeople splits a possibly multi-person raw field ("Gladys / Wilson")
// into individual tokens. Each token receives full, undivided metric credit:
// the caller duplicates the metric per person rather than dividing it.
func SplitPeople(raw string) []string {
	parts := personSplitRe.Split(raw, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Index is the request-scoped resolution index for salespeople, built once
// per pass from a registry snapshot and discarded with it. It is never
// memoized across passes.
type Index struct {
	byID    map[string]model.User
	byCode  map[string]model.User
	byDigit map[string]model.User
	names   []string // normalized names, registry order
	users   []model.User

	// Threshold is the fuzzy tier cutoff; NewIndex sets PersonThreshold.
	Threshold float64
}

// NewIndex derives the code map, unique-digit map, and normalized-name list
// from a users snapshot. A digit sequence enters the digit map only when it
// identifies exactly one user; ambiguous digits are excluded.
func NewIndex(users []model.User) *Index {
	ix := &Index{
		byID:      make(map[string]model.User, len(users)),
		byCode:    make(map[string]model.User, len(users)),
		byDigit:   make(map[string]model.User),
		names:     make([]string, 0, len(users)),
		users:     make([]model.User, 0, len(users)),
		Threshold: PersonThreshold,
	}

	digitCounts := make(map[string]int)
	digitOwner := make(map[string]model.User)

	for _, u := range users {
		ix.byID[u.ID] = u

		code := strings.ToLower(strings.TrimSpace(u.Code))
		ix.byCode[code] = u

		if d := digitsRe.FindString(code); d != "" {
			digitCounts[d]++
			digitOwner[d] = u
		}

		ix.names = append(ix.names, PersonName(u.Name))
		ix.users = append(ix.users, u)
	}

	for d, n := range digitCounts {
		if n == 1 {
			ix.byDigit[d] = digitOwner[d]
		}
	}

	return ix
}

// Resolve runs the three-tier cascade for one raw token. The tier order is
// fixed: structured code, then unique digit, then fuzzy name. Unresolved
// tokens come back bucketed under their title-cased core name, never dropped.
func (ix *Index) Resolve(raw string) model.Resolution {
	clean := strings.ToLower(strings.TrimSpace(raw))

	if code := RepCode(clean); code != "" {
		if u, ok := ix.byCode[code]; ok {
			return model.Resolution{EntityID: u.ID, Method: model.MethodCode, Score: 1.0}
		}
	}

	for _, d := range LooseDigits(clean) {
		if u, ok := ix.byDigit[d]; ok {
			return model.Resolution{EntityID: u.ID, Method: model.MethodDigit, Score: 1.0}
		}
	}

	core := PersonCore(clean)
	if core == "" {
		return unmatchedPerson(raw, core)
	}
	if m, ok := BestMatch(core, ix.names, ix.Threshold); ok {
		return model.Resolution{EntityID: ix.users[m.Index].ID, Method: model.MethodFuzzy, Score: m.Score}
	}
	return unmatchedPerson(raw, core)
}

// User returns the registry user for a resolved id.
func (ix *Index) User(id string) (model.User, bool) {
	u, ok := ix.byID[id]
	return u, ok
}

func unmatchedPerson(raw, core string) model.Resolution {
	bucket := core
	if bucket == "" {
		bucket = strings.TrimSpace(raw)
	}
	return model.Resolution{Bucket: titleCaser.String(bucket), Method: model.MethodUnmatched}
}
