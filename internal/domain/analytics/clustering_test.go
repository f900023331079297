package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterBusiness_Empty(t *testing.T) {
	assigned, summary := ClusterBusiness(nil, KMeansConfig{})
	assert.NotNil(t, assigned)
	assert.NotNil(t, summary)
	assert.Empty(t, assigned)
	assert.Empty(t, summary)
}

func TestClusterBusiness_SingletonsWhenKExceedsN(t *testing.T) {
	rows := BuildFeatures(sampleSnapshot())
	assigned, summary := ClusterBusiness(rows, KMeansConfig{K: 10})
	require.Len(t, assigned, 4)
	require.Len(t, summary, 4)

	for i, a := range assigned {
		assert.Equal(t, rows[i], a.FeatureRow)
		assert.Equal(t, i, a.ClusterID)
		assert.Equal(t, i+1, a.ClusterLabel)
	}
	for i, s := range summary {
		assert.Equal(t, i+1, s.ClusterLabel)
		assert.Equal(t, 1, s.NumSHGs)
	}
	assert.InDelta(t, 12000.0, summary[0].AvgIncome, 1e-9)
	assert.InDelta(t, 500.0, summary[0].AvgCapacity, 1e-9)
	assert.InDelta(t, 300.0, summary[0].AvgSupplyReady, 1e-9)
}

func TestClusterBusiness_Summary(t *testing.T) {
	rows := []FeatureRow{
		{SHGID: 1, AvgIncome: 1000, AvgSavings: 100, TotalCapacity: 10},
		{SHGID: 2, AvgIncome: 1200, AvgSavings: 300, TotalCapacity: 30},
		{SHGID: 3, AvgIncome: 90000, AvgSavings: 50000, TotalCapacity: 900},
	}
	assigned, summary := ClusterBusiness(rows, KMeansConfig{K: 2})
	require.Len(t, summary, 2)
	assert.Equal(t, 1, assigned[0].ClusterLabel)
	assert.Equal(t, 1, assigned[1].ClusterLabel)
	assert.Equal(t, 2, assigned[2].ClusterLabel)

	assert.Equal(t, BusinessClusterSummary{
		ClusterLabel: 1,
		NumSHGs:      2,
		AvgIncome:    1100,
		AvgSavings:   200,
		AvgCapacity:  20,
	}, summary[0])
	assert.Equal(t, 1, summary[1].NumSHGs)
	assert.Equal(t, 90000.0, summary[1].AvgIncome)
}

func TestClusterBusiness_Reproducible(t *testing.T) {
	rows := BuildFeatures(sampleSnapshot())
	a1, s1 := ClusterBusiness(rows, KMeansConfig{K: 2})
	a2, s2 := ClusterBusiness(rows, KMeansConfig{K: 2})
	assert.Equal(t, a1, a2)
	assert.Equal(t, s1, s2)
}
