package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

func TestBuildGeoFeatures(t *testing.T) {
	rows := BuildGeoFeatures(sampleSnapshot())
	require.Len(t, rows, 4)

	jyoti := rows[0]
	assert.Equal(t, int64(1), jyoti.SHGID)
	assert.Equal(t, "Tailoring", jyoti.SkillCategory)
	assert.Equal(t, 1000.0, jyoti.MonthlyDemand, "first duplicate key wins")
	assert.Equal(t, 2.0, jyoti.PriorityLevel)
	assert.Equal(t, 18.5, jyoti.Latitude)
	assert.Equal(t, 73.8, jyoti.Longitude)
	assert.Equal(t, 500.0, jyoti.DemandGap)

	pragati := rows[1]
	assert.Equal(t, "Food Processing", pragati.SkillCategory)
	assert.Zero(t, pragati.MonthlyDemand)
	assert.Zero(t, pragati.Latitude)
	assert.Equal(t, -200.0, pragati.DemandGap)

	assert.Equal(t, 300.0, rows[2].MonthlyDemand)
	assert.Equal(t, -200.0, rows[2].DemandGap)

	nirmal := rows[3]
	assert.Empty(t, nirmal.SkillCategory)
	assert.Zero(t, nirmal.TotalCapacity)
	assert.Zero(t, nirmal.DemandGap)
}

func TestBuildGeoFeatures_RequiresAllSources(t *testing.T) {
	full := sampleSnapshot()

	noProduction := full
	noProduction.Production = nil
	assert.Empty(t, BuildGeoFeatures(noProduction))

	noSkills := full
	noSkills.Skills = nil
	assert.Empty(t, BuildGeoFeatures(noSkills))

	noDemand := full
	noDemand.DistrictDemand = nil
	assert.Len(t, BuildGeoFeatures(noDemand), 4, "demand table is optional")

	assert.Empty(t, BuildGeoFeatures(Snapshot{}))
}

func TestZScore(t *testing.T) {
	out := ZScore([][]float64{{1, 5}, {3, 5}})
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, out)

	out = ZScore([][]float64{{2}, {4}, {6}, {8}})
	std := math.Sqrt(5)
	assert.InDelta(t, -3/std, out[0][0], 1e-12)
	assert.InDelta(t, 3/std, out[3][0], 1e-12)

	assert.Empty(t, ZScore(nil))
}

func TestClusterGeo(t *testing.T) {
	rows, summary := ClusterGeo(sampleSnapshot(), KMeansConfig{K: 10})
	require.Len(t, rows, 4)
	require.Len(t, summary, 4)

	for i, r := range rows {
		assert.Equal(t, r.ClusterID+1, r.ClusterLabel)
		assert.Equal(t, i+1, summary[i].ClusterLabel)
	}
	assert.Equal(t, "Maharashtra", summary[0].States)
	assert.Equal(t, "Tailoring", summary[0].TopSkill)
	assert.Equal(t, UnknownSkill, summary[3].TopSkill)
}

func TestClusterGeo_Summary(t *testing.T) {
	s := Snapshot{
		SHGs: []shg.SHG{
			{ID: 1, District: "Pune", State: "Maharashtra"},
			{ID: 2, District: "Pune", State: "Maharashtra"},
			{ID: 3, District: "Indore", State: "Madhya Pradesh"},
		},
		Members: []shg.Member{{ID: 1, SHGID: 1}, {ID: 2, SHGID: 2}, {ID: 3, SHGID: 3}},
		Skills: []shg.MemberSkill{
			{MemberID: 1, SkillCategory: "Weaving"},
			{MemberID: 2, SkillCategory: "Bakery"},
			{MemberID: 3, SkillCategory: "Weaving"},
		},
		Production: []shg.ProductionCapacity{
			{SHGID: 1, ProductName: "Shawl", MonthlyCapacity: 100},
			{SHGID: 2, ProductName: "Bread", MonthlyCapacity: 100},
			{SHGID: 3, ProductName: "Shawl", MonthlyCapacity: 100},
		},
	}
	rows, summary := ClusterGeo(s, KMeansConfig{K: 1})
	require.Len(t, rows, 3)
	require.Len(t, summary, 1)

	got := summary[0]
	assert.Equal(t, 3, got.NumSHGs)
	assert.Equal(t, "Madhya Pradesh, Maharashtra", got.States)
	assert.Equal(t, "Weaving", got.TopSkill)
	assert.InDelta(t, 100.0, got.AvgCapacity, 1e-9)
	assert.InDelta(t, -100.0, got.AvgGap, 1e-9)
}
