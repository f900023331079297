package analytics

import (
	"math"
	"sort"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// Health bands, from strongest to weakest.
const (
	BandVeryStrong = "Very Strong"
	BandStable     = "Stable"
	BandEmerging   = "Emerging"
	BandAtRisk     = "At Risk"
)

const (
	healthIncomeRef  = 12000.0
	healthSavingsRef = 8000.0
)

// HealthRecord is a FeatureRow scored on the 100-point health rubric.
type HealthRecord struct {
	FeatureRow
	ProductCount int     `json:"product_count"`
	Utilisation  float64 `json:"utilisation"`
	HealthScore  float64 `json:"health_score"`
	HealthBand   string  `json:"health_band"`
}

// HealthBandCount is the number of SHGs in one band.
type HealthBandCount struct {
	HealthBand string `json:"health_band"`
	NumSHGs    int    `json:"num_shgs"`
}

// HealthBandFor maps a score to its band.
func HealthBandFor(score float64) string {
	switch {
	case score >= 80:
		return BandVeryStrong
	case score >= 65:
		return BandStable
	case score >= 50:
		return BandEmerging
	default:
		return BandAtRisk
	}
}

// Utilisation is supply ready over capacity, or 0 without capacity.
func Utilisation(supplyReady, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return supplyReady / capacity
}

// HealthScore scores one feature row:
//
//	income       min(avg_income/12000, 1) × 30
//	savings      min(avg_savings/8000, 1) × 20
//	utilisation  clamp(util, 0, 1) × 25
//	products     ≥3 → 20, 2 → 15, 1 → 10, 0 → 5
//	completeness 5 when income and savings are both positive
//
// The sum is clamped to [0, 100].
func HealthScore(f FeatureRow, productCount int) float64 {
	income := math.Min(f.AvgIncome/healthIncomeRef, 1) * 30
	savings := math.Min(f.AvgSavings/healthSavingsRef, 1) * 20
	util := clamp(Utilisation(f.TotalSupplyReady, f.TotalCapacity), 0, 1) * 25

	var diversification float64
	switch {
	case productCount >= 3:
		diversification = 20
	case productCount == 2:
		diversification = 15
	case productCount == 1:
		diversification = 10
	default:
		diversification = 5
	}

	var completeness float64
	if f.AvgIncome > 0 && f.AvgSavings > 0 {
		completeness = 5
	}
	return clamp(income+savings+util+diversification+completeness, 0, 100)
}

// ComputeHealth scores every feature row.  product_count is the number of
// distinct product names in the SHG's production rows.
func ComputeHealth(rows []FeatureRow, production []shg.ProductionCapacity) []HealthRecord {
	products := make(map[int64]map[string]struct{})
	for _, p := range production {
		set := products[p.SHGID]
		if set == nil {
			set = make(map[string]struct{})
			products[p.SHGID] = set
		}
		set[p.ProductName] = struct{}{}
	}

	out := make([]HealthRecord, 0, len(rows))
	for _, f := range rows {
		n := len(products[f.SHGID])
		score := HealthScore(f, n)
		out = append(out, HealthRecord{
			FeatureRow:   f,
			ProductCount: n,
			Utilisation:  Utilisation(f.TotalSupplyReady, f.TotalCapacity),
			HealthScore:  score,
			HealthBand:   HealthBandFor(score),
		})
	}
	return out
}

// SummarizeHealth counts records per band, most populated band first.
func SummarizeHealth(records []HealthRecord) []HealthBandCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.HealthBand]++
	}
	out := make([]HealthBandCount, 0, len(counts))
	for band, n := range counts {
		out = append(out, HealthBandCount{HealthBand: band, NumSHGs: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumSHGs != out[j].NumSHGs {
			return out[i].NumSHGs > out[j].NumSHGs
		}
		return out[i].HealthBand < out[j].HealthBand
	})
	return out
}
