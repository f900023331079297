// Package analytics is the SHG analytics engine.  It turns a materialised
// snapshot of store rows into derived records: per-SHG feature rows,
// credibility and health scores, demand match scores, business and
// geo-demand clusters, bulk-order teams and threshold insights.
//
// Every function in this package is pure and total.  Missing child rows and
// unparseable numbers degrade to zero; empty inputs produce empty outputs,
// never errors.
package analytics

import (
	"math"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// Snapshot is the full set of rows the engine reads.  It is loaded wholesale
// by the application layer for each operation.
type Snapshot struct {
	SHGs           []shg.SHG
	Members        []shg.Member
	Skills         []shg.MemberSkill
	Financials     []shg.MemberFinancial
	Production     []shg.ProductionCapacity
	DistrictDemand []shg.DistrictDemand
}

// memberSHG maps member id to its SHG id.
func (s Snapshot) memberSHG() map[int64]int64 {
	out := make(map[int64]int64, len(s.Members))
	for _, m := range s.Members {
		out[m.ID] = m.SHGID
	}
	return out
}

// round rounds half away from zero to the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
