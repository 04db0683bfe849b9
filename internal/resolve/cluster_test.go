package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clinicMember(id, name, city string) Member {
	return Member{ID: id, Name: name, Key: FacilityName(name), Locality: CityCode(city)}
}

func customerMember(id, name, phone string) Member {
	return Member{ID: id, Name: name, Key: PersonName(name), Phone: Phone(phone)}
}

func TestClusterize_MergesFuzzyVariants(t *testing.T) {
	members := []Member{
		clinicMember("c1", "Klinik Sehat Selalu", "JKT"),
		clinicMember("c2", "Sehat Selalu", "JKT"),
		clinicMember("c3", "Apotek Bunda", "JKT"),
	}
	clusters := Clusterize(members, ClusterOptions{Threshold: ClinicThreshold})

	require.Len(t, clusters, 2)
	// Longest key founds the cluster; both "sehat selalu" rows join it.
	assert.ElementsMatch(t, []string{"c1", "c2"}, clusters[0].IDs())
	assert.Equal(t, "Klinik Sehat Selalu", clusters[0].DisplayName())
}

func TestClusterize_LongestKeyProcessedFirst(t *testing.T) {
	members := []Member{
		{ID: "b", Name: "Ortho Center Jakarta Selatan", Key: "ortho center jakarta selatan"},
		{ID: "a", Name: "Ortho", Key: "ortho"},
	}
	clusters := Clusterize(members, ClusterOptions{Threshold: 0.88})

	// The short generic fragment does not found the cluster and is too far
	// from the long key to join it.
	require.Len(t, clusters, 2)
	assert.Equal(t, "ortho center jakarta selatan", clusters[0].Key)
}

func TestClusterize_SkipsEmptyKeys(t *testing.T) {
	members := []Member{
		{ID: "a", Name: "drg.", Key: PersonName("drg.")},
		{ID: "b", Name: "Budi", Key: "budi"},
	}
	clusters := Clusterize(members, ClusterOptions{Threshold: 0.9})

	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"b"}, clusters[0].IDs())
}

func TestClusterize_DeterministicTieBreakByID(t *testing.T) {
	members := []Member{
		{ID: "z9", Name: "Beta", Key: "beta"},
		{ID: "a1", Name: "Alfa", Key: "alfa"},
	}
	clusters := Clusterize(members, ClusterOptions{Threshold: 0.99})

	require.Len(t, clusters, 2)
	// Equal key lengths: lower id is processed (and founded) first.
	assert.Equal(t, "alfa", clusters[0].Key)
}

func TestClusterizeByLocality_IdenticalNamesDifferentCitiesNeverMerge(t *testing.T) {
	members := []Member{
		clinicMember("c1", "Klinik Sehat Selalu", "JKT"),
		clinicMember("c2", "Klinik Sehat Selalu", "SBY"),
	}
	clusters := ClusterizeByLocality(members, ClusterOptions{Threshold: ClinicThreshold})

	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.Len(t, c.Members, 1)
	}
}

func TestClusterizeByLocality_FuzzyNamesSameCityMerge(t *testing.T) {
	members := []Member{
		clinicMember("c1", "Klinik Sehat Selalu", "JKT"),
		clinicMember("c2", "Klinik Sehat Slalu", "JKT"),
	}
	clusters := ClusterizeByLocality(members, ClusterOptions{Threshold: ClinicThreshold})

	require.Len(t, clusters, 1)
	assert.Equal(t, "JKT", clusters[0].Locality())
}

func TestClusterizeByLocality_PlaceholderCitiesShareUnknownBucket(t *testing.T) {
	members := []Member{
		clinicMember("c1", "Klinik Sehat Selalu", ""),
		clinicMember("c2", "Sehat Selalu", "Pilih Kota/Kab"),
	}
	clusters := ClusterizeByLocality(members, ClusterOptions{Threshold: ClinicThreshold})

	require.Len(t, clusters, 1)
	assert.Equal(t, "-", clusters[0].Locality())
}

func TestClusterize_PhoneWildcard_AbsentMergesWithPresent(t *testing.T) {
	members := []Member{
		customerMember("a", "Budi Santoso", ""),
		customerMember("b", "Budi Santoso", "0812000111"),
	}
	clusters := Clusterize(members, ClusterOptions{
		Threshold:            CustomerThreshold,
		FirstLetterPrefilter: true,
		PhoneWildcard:        true,
	})

	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, clusters[0].IDs())
}

func TestClusterize_PhoneWildcard_ConflictingPresentValuesDoNotMerge(t *testing.T) {
	members := []Member{
		customerMember("a", "Budi Santoso", "0812000111"),
		customerMember("c", "Budi Santoso", "0899000222"),
	}
	clusters := Clusterize(members, ClusterOptions{
		Threshold:            CustomerThreshold,
		FirstLetterPrefilter: true,
		PhoneWildcard:        true,
	})

	require.Len(t, clusters, 2)
}

func TestClusterize_FirstLetterPrefilter(t *testing.T) {
	// Without the prefilter these two would be compared; with it they are
	// never candidates for each other.
	members := []Member{
		{ID: "a", Name: "Anton", Key: "anton"},
		{ID: "b", Name: "Banton", Key: "banton"},
	}
	clusters := Clusterize(members, ClusterOptions{Threshold: 0.7, FirstLetterPrefilter: true})
	require.Len(t, clusters, 2)

	merged := Clusterize(members, ClusterOptions{Threshold: 0.7})
	require.Len(t, merged, 1)
}

func TestCluster_DisplayNameIsLongestMember(t *testing.T) {
	c := &Cluster{Members: []Member{
		{ID: "1", Name: "Sehat"},
		{ID: "2", Name: "Klinik Sehat Selalu"},
	}}
	assert.Equal(t, "Klinik Sehat Selalu", c.DisplayName())
}
