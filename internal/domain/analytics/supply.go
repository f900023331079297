package analytics

import (
	"sort"
	"strings"
)

// ProductSupply is the production of one product by one SHG, summed over
// that SHG's capacity rows for the product.
type ProductSupply struct {
	SHGID           int64   `json:"shg_id"`
	SHGName         string  `json:"shg_name"`
	Village         string  `json:"village"`
	District        string  `json:"district"`
	State           string  `json:"state"`
	ProductName     string  `json:"product_name"`
	MonthlyCapacity float64 `json:"monthly_capacity"`
	SupplyReady     float64 `json:"supply_ready"`
	AvgIncome       float64 `json:"avg_income"`
	AvgSavings      float64 `json:"avg_savings"`
}

type supplyKey struct {
	shgID   int64
	product string
}

// BuildProductSupply aggregates production rows per (SHG, product name) and
// joins the SHG identity and financial means.  Rows whose SHG is not in the
// snapshot are dropped.  The result is ordered by SHG id, then product name.
func BuildProductSupply(s Snapshot) []ProductSupply {
	groups := make(map[int64]int, len(s.SHGs))
	for i, g := range s.SHGs {
		groups[g.ID] = i
	}

	owner := s.memberSHG()
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
		agg.savings += f.Savings
		agg.n++
	}

	index := make(map[supplyKey]int)
	var out []ProductSupply
	for _, p := range s.Production {
		gi, ok := groups[p.SHGID]
		if !ok {
			continue
		}
		key := supplyKey{p.SHGID, p.ProductName}
		if i, seen := index[key]; seen {
			out[i].MonthlyCapacity += p.MonthlyCapacity
			out[i].SupplyReady += p.SupplyReady
			continue
		}
		g := s.SHGs[gi]
		row := ProductSupply{
			SHGID:           g.ID,
			SHGName:         g.Name,
			Village:         g.Village,
			District:        g.District,
			State:           g.State,
			ProductName:     p.ProductName,
			MonthlyCapacity: p.MonthlyCapacity,
			SupplyReady:     p.SupplyReady,
		}
		if agg := fins[g.ID]; agg != nil {
			row.AvgIncome = agg.income / float64(agg.n)
			row.AvgSavings = agg.savings / float64(agg.n)
		}
		index[key] = len(out)
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SHGID != out[j].SHGID {
			return out[i].SHGID < out[j].SHGID
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// AvailableProducts returns the sorted distinct product names in the pool.
func AvailableProducts(pool []ProductSupply) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range pool {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		if _, ok := seen[p.ProductName]; ok {
			continue
		}
		seen[p.ProductName] = struct{}{}
		out = append(out, p.ProductName)
	}
	sort.Strings(out)
	return out
}

func filterProduct(pool []ProductSupply, product string) []ProductSupply {
	var out []ProductSupply
	for _, p := range pool {
		if strings.EqualFold(p.ProductName, product) {
			out = append(out, p)
		}
	}
	return out
}
