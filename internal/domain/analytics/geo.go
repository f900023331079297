package analytics

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// GeoFeatureRow places one SHG on the demand map.  SkillCategory is blank
// when the SHG has no skill rows.
type GeoFeatureRow struct {
	SHGID            int64   `json:"shg_id"`
	Name             string  `json:"name"`
	Village          string  `json:"village"`
	District         string  `json:"district"`
	State            string  `json:"state"`
	SkillCategory    string  `json:"skill_category"`
	TotalCapacity    float64 `json:"total_capacity"`
	TotalSupplyReady float64 `json:"total_supply_ready"`
	MonthlyDemand    float64 `json:"monthly_demand"`
	PriorityLevel    float64 `json:"priority_level"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	DemandGap        float64 `json:"demand_gap"`
	ClusterID        int     `json:"cluster_id"`
	ClusterLabel     int     `json:"cluster_label"`
}

// GeoClusterSummary describes one geo-demand cluster.
type GeoClusterSummary struct {
	ClusterLabel int     `json:"cluster_label"`
	NumSHGs      int     `json:"num_shgs"`
	States       string  `json:"states"`
	TopSkill     string  `json:"top_skill"`
	AvgCapacity  float64 `json:"avg_capacity"`
	AvgDemand    float64 `json:"avg_demand"`
	AvgGap       float64 `json:"avg_gap"`
}

type demandKey struct {
	state, district, skill string
}

// BuildGeoFeatures joins each SHG's dominant skill and capacity totals with
// the district demand table on (state, district, skill category).  Keys
// missing from the table get zero demand, priority and coordinates; when a
// key repeats the first row wins.  The result is empty unless the snapshot
// has SHGs, production rows and skill rows.
func BuildGeoFeatures(s Snapshot) []GeoFeatureRow {
	if len(s.SHGs) == 0 || len(s.Production) == 0 || len(s.Skills) == 0 {
		return []GeoFeatureRow{}
	}

	owner := s.memberSHG()
	skillCounts := make(map[int64]map[string]int)
	for _, sk := range s.Skills {
		shgID, ok := owner[sk.MemberID]
		if !ok {
			continue
		}
		if skillCounts[shgID] == nil {
			skillCounts[shgID] = make(map[string]int)
		}
		skillCounts[shgID][sk.SkillCategory]++
	}

	demand := make(map[demandKey]shg.DistrictDemand, len(s.DistrictDemand))
	for _, d := range s.DistrictDemand {
		key := demandKey{d.State, d.District, d.SkillCategory}
		if _, dup := demand[key]; !dup {
			demand[key] = d
		}
	}

	caps := capacityBySHG(s.Production)
	rows := make([]GeoFeatureRow, 0, len(s.SHGs))
	for _, g := range s.SHGs {
		row := GeoFeatureRow{
			SHGID:    g.ID,
			Name:     g.Name,
			Village:  g.Village,
			District: g.District,
			State:    g.State,
		}
		if counts, ok := skillCounts[g.ID]; ok {
			if skill := dominantSkill(counts); skill != UnknownSkill {
				row.SkillCategory = skill
			}
		}
		if agg := caps[g.ID]; agg != nil {
			row.TotalCapacity = agg.capacity
			row.TotalSupplyReady = agg.supply
		}
		if d, ok := demand[demandKey{g.State, g.District, row.SkillCategory}]; ok && row.SkillCategory != "" {
			row.MonthlyDemand = d.MonthlyDemand
			row.PriorityLevel = d.PriorityLevel
			row.Latitude = d.Latitude
			row.Longitude = d.Longitude
		}
		row.DemandGap = row.MonthlyDemand - row.TotalCapacity
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SHGID < rows[j].SHGID })
	return rows
}

// GeoFeatures returns the raw geo clustering vector of a row.
func GeoFeatures(r GeoFeatureRow) []float64 {
	return []float64{r.Latitude, r.Longitude, r.TotalCapacity, r.MonthlyDemand, r.DemandGap}
}

// ZScore standardises each column with its mean and population standard
// deviation.  A column with zero deviation is divided by 1.
func ZScore(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return [][]float64{}
	}
	dim := len(points[0])
	out := make([][]float64, len(points))
	for i := range out {
		out[i] = make([]float64, dim)
	}
	col := make([]float64, len(points))
	for j := 0; j < dim; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i, p := range points {
			out[i][j] = (p[j] - mean) / std
		}
	}
	return out
}

// ClusterGeo builds geo features from s and clusters them after z-scoring.
// Summaries are ordered by cluster label.
func ClusterGeo(s Snapshot, cfg KMeansConfig) ([]GeoFeatureRow, []GeoClusterSummary) {
	rows := BuildGeoFeatures(s)
	if len(rows) == 0 {
		return rows, []GeoClusterSummary{}
	}
	raw := make([][]float64, len(rows))
	for i, r := range rows {
		raw[i] = GeoFeatures(r)
	}
	res := KMeans(ZScore(raw), cfg)

	members := make(map[int][]GeoFeatureRow)
	for i := range rows {
		rows[i].ClusterID = res.Labels[i]
		rows[i].ClusterLabel = res.Labels[i] + 1
		members[rows[i].ClusterID] = append(members[rows[i].ClusterID], rows[i])
	}

	summaries := make([]GeoClusterSummary, 0, len(members))
	for id, group := range members {
		summaries = append(summaries, summarizeGeo(id+1, group))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ClusterLabel < summaries[j].ClusterLabel })
	return rows, summaries
}

func summarizeGeo(label int, group []GeoFeatureRow) GeoClusterSummary {
	stateSet := make(map[string]struct{})
	skills := make(map[string]int)
	caps := make([]float64, len(group))
	demand := make([]float64, len(group))
	gaps := make([]float64, len(group))
	for i, r := range group {
		if strings.TrimSpace(r.State) != "" {
			stateSet[r.State] = struct{}{}
		}
		skills[r.SkillCategory]++
		caps[i] = r.TotalCapacity
		demand[i] = r.MonthlyDemand
		gaps[i] = r.DemandGap
	}
	states := make([]string, 0, len(stateSet))
	for st := range stateSet {
		states = append(states, st)
	}
	sort.Strings(states)

	return GeoClusterSummary{
		ClusterLabel: label,
		NumSHGs:      len(group),
		States:       strings.Join(states, ", "),
		TopSkill:     dominantSkill(skills),
		AvgCapacity:  stat.Mean(caps, nil),
		AvgDemand:    stat.Mean(demand, nil),
		AvgGap:       stat.Mean(gaps, nil),
	}
}
