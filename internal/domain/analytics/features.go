package analytics

import (
	"sort"
	"strings"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// UnknownSkill is reported when an SHG has no usable skill rows.
const UnknownSkill = "Unknown"

// FeatureRow is the per-SHG numeric profile every other engine consumes.
type FeatureRow struct {
	SHGID            int64   `json:"shg_id"`
	Name             string  `json:"name"`
	Village          string  `json:"village"`
	District         string  `json:"district"`
	State            string  `json:"state"`
	DominantSkill    string  `json:"dominant_skill"`
	AvgExperience    float64 `json:"avg_experience"`
	AvgIncome        float64 `json:"avg_income"`
	AvgExpense       float64 `json:"avg_expense"`
	AvgSavings       float64 `json:"avg_savings"`
	TotalCapacity    float64 `json:"total_capacity"`
	TotalSupplyReady float64 `json:"total_supply_ready"`
}

type skillAgg struct {
	counts   map[string]int
	expTotal float64
	n        int
}

type finAgg struct {
	income, expense, savings float64
	n                        int
}

type capAgg struct {
	capacity, supply float64
}

// BuildFeatures produces one FeatureRow per SHG in s.SHGs, ordered by SHG id.
// SHGs without members, skills, financial profiles or production rows get
// zero-filled numbers and UnknownSkill.
func BuildFeatures(s Snapshot) []FeatureRow {
	if len(s.SHGs) == 0 {
		return []FeatureRow{}
	}
	owner := s.memberSHG()

	skills := make(map[int64]*skillAgg)
	for _, sk := range s.Skills {
		shgID, ok := owner[sk.MemberID]
		if !ok {
			continue
		}
		agg := skills[shgID]
		if agg == nil {
			agg = &skillAgg{counts: make(map[string]int)}
			skills[shgID] = agg
		}
		agg.counts[sk.SkillCategory]++
		agg.expTotal += sk.YearsExperience
		agg.n++
	}

	fins := make(map[int64]*finAgg)
	for _, f := range s.Financials {
		shgID, ok := owner[f.MemberID]
		if !ok {
			continue
		}
		agg := fins[shgID]
		if agg == nil {
			agg = &finAgg{}
			fins[shgID] = agg
		}
		agg.income += f.MonthlyIncome
		agg.expense += f.MonthlyExpense
		agg.savings += f.Savings
		agg.n++
	}

	caps := capacityBySHG(s.Production)

	rows := make([]FeatureRow, 0, len(s.SHGs))
	for _, g := range s.SHGs {
		row := FeatureRow{
			SHGID:         g.ID,
			Name:          g.Name,
			Village:       g.Village,
			District:      g.District,
			State:         g.State,
			DominantSkill: UnknownSkill,
		}
		if agg := skills[g.ID]; agg != nil {
			row.DominantSkill = dominantSkill(agg.counts)
			row.AvgExperience = agg.expTotal / float64(agg.n)
		}
		if agg := fins[g.ID]; agg != nil {
			n := float64(agg.n)
			row.AvgIncome = agg.income / n
			row.AvgExpense = agg.expense / n
			row.AvgSavings = agg.savings / n
		}
		if agg := caps[g.ID]; agg != nil {
			row.TotalCapacity = agg.capacity
			row.TotalSupplyReady = agg.supply
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SHGID < rows[j].SHGID })
	return rows
}

func capacityBySHG(production []shg.ProductionCapacity) map[int64]*capAgg {
	out := make(map[int64]*capAgg)
	for _, p := range production {
		agg := out[p.SHGID]
		if agg == nil {
			agg = &capAgg{}
			out[p.SHGID] = agg
		}
		agg.capacity += p.MonthlyCapacity
		agg.supply += p.SupplyReady
	}
	return out
}

// dominantSkill returns the most frequent non-blank category.  Equal counts
// resolve to the lexicographically smallest category.
func dominantSkill(counts map[string]int) string {
	best, bestN := "", 0
	for cat, n := range counts {
		if strings.TrimSpace(cat) == "" {
			continue
		}
		if n > bestN || (n == bestN && cat < best) {
			best, bestN = cat, n
		}
	}
	if bestN == 0 {
		return UnknownSkill
	}
	return best
}
