package resolve

import (
	"sort"
)

// Clustering thresholds. Customer and clinic names are longer and richer
// than personal working names, so these sit well above PersonThreshold.
const (
	CustomerThreshold = 0.92
	ClinicThreshold   = 0.88
	// AccNameThreshold links accounting-system customer names to the
	// customer directory.
	AccNameThreshold = 0.85
)

// Member is one registry row entering clustering. Key is the normalized
// comparison name; Locality and Phone are optional depending on entity type.
type Member struct {
	ID       string
	Name     string
	Key      string
	Locality string
	Phone    string // canonicalized; "" means absent
}

// Cluster is a group of registry rows judged to be the same real-world
// entity, keyed by the normalized name of its founding member.
type Cluster struct {
	Key     string
	Members []Member
}

// IDs returns the member ids, in merge order, for aggregation lookups.
func (c *Cluster) IDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

// DisplayName is the longest member name; longer names tend to carry the
// most descriptive detail (titles, branch qualifiers).
func (c *Cluster) DisplayName() string {
	var name string
	for _, m := range c.Members {
		if len(m.Name) > len(name) {
			name = m.Name
		}
	}
	return name
}

// Locality returns any member's locality. Partitioned clustering guarantees
// members agree, so the first is as good as any.
func (c *Cluster) Locality() string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0].Locality
}

// ClusterOptions tunes the greedy clustering pass.
type ClusterOptions struct {
	// Threshold is the minimum name similarity for joining a cluster.
	Threshold float64
	// FirstLetterPrefilter restricts candidate clusters to keys sharing the
	// member's first byte, as the customer grouping has always done.
	FirstLetterPrefilter bool
	// PhoneWildcard applies the contact wildcard rule: an absent phone is
	// compatible with anything, two different present phones block a merge
	// even when names match.
	PhoneWildcard bool
}

// Clusterize greedily groups members by normalized-name similarity.
//
// Members are processed longest key first (id as tie-break) so short generic
// fragments never found a cluster that swallows richer names. Each member
// joins the best-scoring compatible cluster at or above the threshold, or
// founds a new cluster keyed by its own name. The greedy pass makes no
// transitivity guarantee: A may match B and B match C without A matching C,
// and the outcome for such chains follows this documented order exactly.
// Members with an empty key are dropped, matching the legacy behavior of
// skipping title-only names.
func Clusterize(members []Member, opts ClusterOptions) []*Cluster {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Key) != len(sorted[j].Key) {
			return len(sorted[i].Key) > len(sorted[j].Key)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var clusters []*Cluster
	for _, m := range sorted {
		if m.Key == "" {
			continue
		}
		if c := findCluster(clusters, m, opts); c != nil {
			c.Members = append(c.Members, m)
			continue
		}
		clusters = append(clusters, &Cluster{Key: m.Key, Members: []Member{m}})
	}
	return clusters
}

// ClusterizeByLocality partitions members by locality before clustering so
// same-named entities in different cities never merge. Partitions are walked
// in sorted key order for deterministic output.
func ClusterizeByLocality(members []Member, opts ClusterOptions) []*Cluster {
	partitions := make(map[string][]Member)
	for _, m := range members {
		partitions[m.Locality] = append(partitions[m.Locality], m)
	}

	keys := make([]string, 0, len(partitions))
	for k := range partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clusters []*Cluster
	for _, k := range keys {
		clusters = append(clusters, Clusterize(partitions[k], opts)...)
	}
	return clusters
}

// findCluster picks the best-scoring compatible cluster at or above the
// threshold. Score ties keep the earliest-founded cluster.
func findCluster(clusters []*Cluster, m Member, opts ClusterOptions) *Cluster {
	var (
		best      *Cluster
		bestScore float64
	)
	for _, c := range clusters {
		if opts.FirstLetterPrefilter && c.Key[0] != m.Key[0] {
			continue
		}
		if opts.PhoneWildcard && !phoneCompatible(c, m) {
			continue
		}
		if score := Ratio(m.Key, c.Key); score >= opts.Threshold && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// phoneCompatible applies the contact wildcard rule against a cluster's
// present phone values.
func phoneCompatible(c *Cluster, m Member) bool {
	if m.Phone == "" {
		return true
	}
	for _, existing := range c.Members {
		if existing.Phone != "" && existing.Phone != m.Phone {
			return false
		}
	}
	return true
}
