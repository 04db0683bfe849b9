package resolve

import (
	"sort"
	"strings"

	"github.com/sells-group/fieldsight/internal/model"
)

// ProductThreshold is the permissive fuzzy cutoff for the final product
// tier; the containment tier has already rejected the candidates by then.
const ProductThreshold = 0.70

// ProductIndex is the per-pass lookup structure for product resolution.
// Products are held longest-normalized-name first so the containment scan
// never lets a short canonical name win inside a longer raw description.
type ProductIndex struct {
	byID     map[string]model.Product
	products []model.Product
	names    []string // normalized, parallel to products

	// Threshold is the fuzzy tier cutoff; NewProductIndex sets ProductThreshold.
	Threshold float64
}

// NewProductIndex builds the product lookup structures from a registry
// snapshot. Ordering is fixed (name length desc, id asc) so containment and
// fuzzy scans are deterministic.
func NewProductIndex(products []model.Product) *ProductIndex {
	ix := &ProductIndex{
		byID:      make(map[string]model.Product, len(products)),
		products:  make([]model.Product, len(products)),
		Threshold: ProductThreshold,
	}
	copy(ix.products, products)

	for _, p := range products {
		ix.byID[strings.TrimSpace(p.ID)] = p
	}

	sort.Slice(ix.products, func(i, j int) bool {
		a, b := ProductName(ix.products[i].Name), ProductName(ix.products[j].Name)
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return ix.products[i].ID < ix.products[j].ID
	})

	ix.names = make([]string, len(ix.products))
	for i, p := range ix.products {
		ix.names[i] = ProductName(p.Name)
	}

	return ix
}

// Resolve maps a raw product row to a canonical product via the three-tier
// cascade: exact structured id, whole-word containment (longest canonical
// name first), then fuzzy. Failures land in an uncategorized bucket keyed by
// the title-cased normalized raw text so the volume stays auditable.
func (ix *ProductIndex) Resolve(itemID, raw string) model.Resolution {
	if id := strings.TrimSpace(itemID); id != "" {
		if p, ok := ix.byID[id]; ok {
			return model.Resolution{EntityID: p.ID, Method: model.MethodCode, Score: 1.0}
		}
	}

	clean := ProductName(raw)
	if clean != "" {
		for i, name := range ix.names {
			if containsWord(clean, name) {
				return model.Resolution{EntityID: ix.products[i].ID, Method: model.MethodContainment, Score: 1.0}
			}
		}

		if m, ok := BestMatch(clean, ix.names, ix.Threshold); ok {
			return model.Resolution{EntityID: ix.products[m.Index].ID, Method: model.MethodFuzzy, Score: m.Score}
		}
	}

	display := "[Unknown Product]"
	if clean != "" {
		display = titleCaser.String(clean)
	}
	return model.Resolution{Bucket: "[Uncategorized] " + display, Method: model.MethodUnmatched}
}

// Product returns the registry product for a resolved id.
func (ix *ProductIndex) Product(id string) (model.Product, bool) {
	p, ok := ix.byID[id]
	return p, ok
}

// containsWord reports whether needle occurs word-bounded inside haystack.
// Both strings must already be normalized (single spaces, no punctuation).
func containsWord(haystack, needle string) bool {
	return needle != "" && strings.Contains(" "+haystack+" ", " "+needle+" ")
}
