package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ClusterAssignment is a FeatureRow tagged with its business cluster.
type ClusterAssignment struct {
	FeatureRow
	ClusterID    int `json:"cluster_id"`
	ClusterLabel int `json:"cluster_label"`
}

// BusinessClusterSummary holds the member count and feature means of one
// business cluster.
type BusinessClusterSummary struct {
	ClusterLabel   int     `json:"cluster_label"`
	NumSHGs        int     `json:"num_shgs"`
	AvgIncome      float64 `json:"avg_income"`
	AvgSavings     float64 `json:"avg_savings"`
	AvgExperience  float64 `json:"avg_experience"`
	AvgCapacity    float64 `json:"avg_capacity"`
	AvgSupplyReady float64 `json:"avg_supply_ready"`
}

// BusinessFeatures returns the unnormalised clustering vector of a row.
func BusinessFeatures(f FeatureRow) []float64 {
	return []float64{f.AvgIncome, f.AvgSavings, f.AvgExperience, f.TotalCapacity, f.TotalSupplyReady}
}

// ClusterBusiness partitions feature rows on BusinessFeatures.  Summaries
// are ordered by cluster label.  Empty input gives empty outputs.
func ClusterBusiness(rows []FeatureRow, cfg KMeansConfig) ([]ClusterAssignment, []BusinessClusterSummary) {
	if len(rows) == 0 {
		return []ClusterAssignment{}, []BusinessClusterSummary{}
	}
	points := make([][]float64, len(rows))
	for i, r := range rows {
		points[i] = BusinessFeatures(r)
	}
	res := KMeans(points, cfg)

	assigned := make([]ClusterAssignment, len(rows))
	members := make(map[int][]FeatureRow)
	for i, r := range rows {
		id := res.Labels[i]
		assigned[i] = ClusterAssignment{FeatureRow: r, ClusterID: id, ClusterLabel: id + 1}
		members[id] = append(members[id], r)
	}

	summaries := make([]BusinessClusterSummary, 0, len(members))
	for id, group := range members {
		col := func(get func(FeatureRow) float64) float64 {
			vals := make([]float64, len(group))
			for i, g := range group {
				vals[i] = get(g)
			}
			return stat.Mean(vals, nil)
		}
		summaries = append(summaries, BusinessClusterSummary{
			ClusterLabel:   id + 1,
			NumSHGs:        len(group),
			AvgIncome:      col(func(f FeatureRow) float64 { return f.AvgIncome }),
			AvgSavings:     col(func(f FeatureRow) float64 { return f.AvgSavings }),
			AvgExperience:  col(func(f FeatureRow) float64 { return f.AvgExperience }),
			AvgCapacity:    col(func(f FeatureRow) float64 { return f.TotalCapacity }),
			AvgSupplyReady: col(func(f FeatureRow) float64 { return f.TotalSupplyReady }),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ClusterLabel < summaries[j].ClusterLabel })
	return assigned, summaries
}
