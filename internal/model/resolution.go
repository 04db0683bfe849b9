package model

// Method identifies which cascade tier produced a resolution.
type Method string

const (
	MethodCode        Method = "code"
	MethodDigit       Method = "digit"
	MethodFuzzy       Method = "fuzzy"
	MethodContainment Method = "containment"
	MethodUnmatched   Method = "unmatched"
)

// Resolution is the outcome for a single raw token. Exactly one of EntityID
// or Bucket is set: resolved tokens carry the canonical entity id, unresolved
// tokens carry a display bucket key so their metric volume stays visible.
type Resolution struct {
	EntityID string  `json:"entity_id,omitempty"`
	Bucket   string  `json:"bucket,omitempty"`
	Method   Method  `json:"method"`
	Score    float64 `json:"score"`
}

// Resolved reports whether the token mapped to a canonical entity.
func (r Resolution) Resolved() bool { return r.EntityID != "" }

// RawMetric is one raw ledger row: free text plus an aggregated metric.
type RawMetric struct {
	Raw    string `json:"raw"`
	Metric int    `json:"metric"`
}

// ProductMetric is one raw product ledger row. ItemID is the optional
// structured product id recorded on the transaction.
type ProductMetric struct {
	ItemID  string `json:"item_id,omitempty"`
	Raw     string `json:"raw"`
	Units   int    `json:"units"`
	Revenue int    `json:"revenue"`
}

// IDMetric is a ledger row already keyed by a registry id.
type IDMetric struct {
	ID     string `json:"id"`
	Metric int    `json:"metric"`
}
