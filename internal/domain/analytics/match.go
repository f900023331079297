package analytics

import (
	"sort"
	"strings"
)

// NoProducerReason is returned when no SHG makes the requested product.
const NoProducerReason = "No SHG produces this item."

// Match score component caps.
const (
	matchProductPoints  = 40.0
	matchSupplyPoints   = 25.0
	matchCapacityPoints = 20.0
	matchDistrictPoints = 5.0
	matchStatePoints    = 3.0
)

// DemandQuery describes a buyer request.
type DemandQuery struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	District string  `json:"district,omitempty"`
	State    string  `json:"state,omitempty"`
}

// MatchResult scores one SHG's production of a product against a demand.
type MatchResult struct {
	SHGID            int64   `json:"shg_id"`
	Name             string  `json:"name"`
	District         string  `json:"district"`
	State            string  `json:"state"`
	ProductName      string  `json:"product_name"`
	TotalCapacity    float64 `json:"total_capacity"`
	TotalSupplyReady float64 `json:"total_supply_ready"`
	AvgIncome        float64 `json:"avg_income"`
	MatchScore       float64 `json:"match_score"`
}

// IncomeTierPoints awards 2, 4, 7 or 10 points for incomes below 5000,
// below 8000, below 12000 and from 12000 up.
func IncomeTierPoints(income float64) float64 {
	switch {
	case income < 5000:
		return 2
	case income < 8000:
		return 4
	case income < 12000:
		return 7
	default:
		return 10
	}
}

// coverage is the proportional share of points for have against need,
// capped at full points.  A non-positive need earns full points.
func coverage(have, need, points float64) float64 {
	if need <= 0 || have >= need {
		return points
	}
	if have <= 0 {
		return 0
	}
	return have / need * points
}

// MatchScore scores one candidate row against q, rounded to 2 decimals.
func MatchScore(q DemandQuery, row ProductSupply) float64 {
	var score float64
	if strings.EqualFold(row.ProductName, q.Product) {
		score += matchProductPoints
	}
	score += coverage(row.SupplyReady, q.Quantity, matchSupplyPoints)
	score += coverage(row.MonthlyCapacity, q.Quantity, matchCapacityPoints)
	score += IncomeTierPoints(row.AvgIncome)
	switch {
	case q.District != "" && strings.EqualFold(row.District, q.District):
		score += matchDistrictPoints
	case q.State != "" && strings.EqualFold(row.State, q.State):
		score += matchStatePoints
	}
	return round(clamp(score, 0, 100), 2)
}

// MatchDemand scores every producer of q.Product, best first.  An empty
// result carries NoProducerReason.
func MatchDemand(pool []ProductSupply, q DemandQuery) ([]MatchResult, string) {
	candidates := filterProduct(pool, q.Product)
	if len(candidates) == 0 {
		return []MatchResult{}, NoProducerReason
	}
	out := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, MatchResult{
			SHGID:            c.SHGID,
			Name:             c.SHGName,
			District:         c.District,
			State:            c.State,
			ProductName:      c.ProductName,
			TotalCapacity:    c.MonthlyCapacity,
			TotalSupplyReady: c.SupplyReady,
			AvgIncome:        c.AvgIncome,
			MatchScore:       MatchScore(q, c),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].SHGID < out[j].SHGID
	})
	return out, ""
}
