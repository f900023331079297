package analytics

import (
	"sort"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// Insight query defaults.
const (
	DefaultTopProducts       = 10
	DefaultUtilThreshold     = 0.5
	DefaultMinCapacity       = 100.0
	DefaultIncomeThreshold   = 7000.0
	DefaultCapacityThreshold = 300.0
)

// ProductCapacity rolls production up to one product name.
type ProductCapacity struct {
	ProductName      string  `json:"product_name"`
	TotalCapacity    float64 `json:"total_capacity"`
	TotalSupplyReady float64 `json:"total_supply_ready"`
	NumSHGs          int     `json:"num_shgs"`
	NumStates        int     `json:"states"`
}

// UnderutilizedRow is one production row with idle capacity.
type UnderutilizedRow struct {
	SHGID           int64   `json:"shg_id"`
	SHGName         string  `json:"shg_name"`
	District        string  `json:"district"`
	State           string  `json:"state"`
	ProductName     string  `json:"product_name"`
	MonthlyCapacity float64 `json:"monthly_capacity"`
	SupplyReady     float64 `json:"supply_ready"`
	Utilization     float64 `json:"utilization"`
}

// StateSummary rolls feature rows up to one state.
type StateSummary struct {
	State         string  `json:"state"`
	NumSHGs       int     `json:"num_shgs"`
	AvgIncome     float64 `json:"avg_income"`
	TotalCapacity float64 `json:"total_capacity"`
}

func shgIndex(groups []shg.SHG) map[int64]shg.SHG {
	out := make(map[int64]shg.SHG, len(groups))
	for _, g := range groups {
		out[g.ID] = g
	}
	return out
}

// TopProducts ranks products by total capacity, largest first, ties by
// name.  Production rows of unknown SHGs are ignored.  limit <= 0 means
// DefaultTopProducts.
func TopProducts(s Snapshot, limit int) []ProductCapacity {
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	groups := shgIndex(s.SHGs)

	type acc struct {
		pc     ProductCapacity
		shgs   map[int64]struct{}
		states map[string]struct{}
	}
	byName := make(map[string]*acc)
	for _, p := range s.Production {
		g, ok := groups[p.SHGID]
		if !ok {
			continue
		}
		a := byName[p.ProductName]
		if a == nil {
			a = &acc{
				pc:     ProductCapacity{ProductName: p.ProductName},
				shgs:   make(map[int64]struct{}),
				states: make(map[string]struct{}),
			}
			byName[p.ProductName] = a
		}
		a.pc.TotalCapacity += p.MonthlyCapacity
		a.pc.TotalSupplyReady += p.SupplyReady
		a.shgs[p.SHGID] = struct{}{}
		if g.State != "" {
			a.states[g.State] = struct{}{}
		}
	}

	out := make([]ProductCapacity, 0, len(byName))
	for _, a := range byName {
		a.pc.NumSHGs = len(a.shgs)
		a.pc.NumStates = len(a.states)
		out = append(out, a.pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCapacity != out[j].TotalCapacity {
			return out[i].TotalCapacity > out[j].TotalCapacity
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Underutilized lists production rows with capacity > 0, utilisation below
// threshold and capacity of at least minCapacity, worst utilisation first.
func Underutilized(s Snapshot, threshold, minCapacity float64) []UnderutilizedRow {
	groups := shgIndex(s.SHGs)
	out := []UnderutilizedRow{}
	for _, p := range s.Production {
		g, ok := groups[p.SHGID]
		if !ok || p.MonthlyCapacity <= 0 {
			continue
		}
		util := p.SupplyReady / p.MonthlyCapacity
		if util >= threshold || p.MonthlyCapacity < minCapacity {
			continue
		}
		out = append(out, UnderutilizedRow{
			SHGID:           g.ID,
			SHGName:         g.Name,
			District:        g.District,
			State:           g.State,
			ProductName:     p.ProductName,
			MonthlyCapacity: p.MonthlyCapacity,
			SupplyReady:     p.SupplyReady,
			Utilization:     util,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Utilization < out[j].Utilization })
	return out
}

// HighPotential lists SHGs earning below incomeThreshold while declaring at
// least capacityThreshold, by capacity descending then income ascending.
func HighPotential(rows []FeatureRow, incomeThreshold, capacityThreshold float64) []FeatureRow {
	out := []FeatureRow{}
	for _, r := range rows {
		if r.AvgIncome < incomeThreshold && r.TotalCapacity >= capacityThreshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalCapacity != out[j].TotalCapacity {
			return out[i].TotalCapacity > out[j].TotalCapacity
		}
		return out[i].AvgIncome < out[j].AvgIncome
	})
	return out
}

// SummarizeStates groups feature rows by state: SHG count, mean income and
// total capacity.  Busiest state first, ties by name.
func SummarizeStates(rows []FeatureRow) []StateSummary {
	byState := make(map[string]*StateSummary)
	for _, r := range rows {
		st := byState[r.State]
		if st == nil {
			st = &StateSummary{State: r.State}
			byState[r.State] = st
		}
		st.NumSHGs++
		st.AvgIncome += r.AvgIncome
		st.TotalCapacity += r.TotalCapacity
	}
	out := make([]StateSummary, 0, len(byState))
	for _, st := range byState {
		st.AvgIncome /= float64(st.NumSHGs)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumSHGs != out[j].NumSHGs {
			return out[i].NumSHGs > out[j].NumSHGs
		}
		return out[i].State < out[j].State
	})
	return out
}
