package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Team formation limits.
const (
	MaxTeamSize    = 4
	DefaultTeamTop = 5
)

// Reasons for an empty team result.
const (
	NoCapacityReason = "No capacity data available in database."
	NoRegionReason   = "No SHGs match the given region for this product."
)

// NoProductReason is returned when nobody produces the requested product.
func NoProductReason(product string) string {
	return fmt.Sprintf("No SHG produces product '%s'.", product)
}

// TeamRequest asks for teams that can jointly fulfil a bulk order.
type TeamRequest struct {
	Product     string  `json:"product"`
	Quantity    float64 `json:"quantity"`
	State       string  `json:"state,omitempty"`
	District    string  `json:"district,omitempty"`
	MaxTeamSize int     `json:"max_team_size"`
	TopK        int     `json:"top_k"`
}

// TeamCandidate is one scored subset of producers.
type TeamCandidate struct {
	Rank             int      `json:"team_rank"`
	TeamSize         int      `json:"team_size"`
	SHGIDs           []int64  `json:"shg_ids"`
	SHGNames         []string `json:"shg_names"`
	Districts        []string `json:"districts"`
	States           []string `json:"states"`
	ProductName      string   `json:"product_name"`
	TotalSupplyReady float64  `json:"total_supply_ready"`
	TotalCapacity    float64  `json:"total_capacity"`
	Score            float64  `json:"score"`
}

// TeamScore scores a team with the given totals:
//
//	fulfilment  min(supply/qty, 1.5) / 1.5 × 60
//	capacity    min(capacity/qty, 2) / 2 × 25
//	size        (4 − (size − 1)) / 4 × 15
//
// A non-positive qty is treated as 1.  The sum is rounded to 2 decimals.
func TeamScore(totalSupply, totalCapacity float64, size int, qty float64) float64 {
	if qty <= 0 {
		qty = 1
	}
	fulfil := math.Min(totalSupply/qty, 1.5) / 1.5 * 60
	capacity := math.Min(totalCapacity/qty, 2) / 2 * 25
	bonus := float64(MaxTeamSize-(size-1)) / MaxTeamSize * 15
	return round(fulfil+capacity+bonus, 2)
}

// TeamPool narrows the supply pool to req's product and region.  The reason
// is non-empty exactly when the pool comes back empty.
func TeamPool(pool []ProductSupply, req TeamRequest) ([]ProductSupply, string) {
	if len(pool) == 0 {
		return nil, NoCapacityReason
	}
	candidates := filterProduct(pool, req.Product)
	if len(candidates) == 0 {
		return nil, NoProductReason(req.Product)
	}
	state := strings.TrimSpace(req.State)
	district := strings.TrimSpace(req.District)
	var out []ProductSupply
	for _, c := range candidates {
		if state != "" && !strings.EqualFold(c.State, state) {
			continue
		}
		if district != "" && !strings.EqualFold(c.District, district) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, NoRegionReason
	}
	return out, ""
}

// EnumerateTeams scores every subset of candidates of size 1..maxSize in
// lexicographic combination order.  maxSize is capped to [1, 4] and to the
// number of candidates.
func EnumerateTeams(candidates []ProductSupply, qty float64, maxSize int) []TeamCandidate {
	if maxSize > MaxTeamSize {
		maxSize = MaxTeamSize
	}
	if maxSize < 1 {
		maxSize = 1
	}
	if maxSize > len(candidates) {
		maxSize = len(candidates)
	}

	var teams []TeamCandidate
	for size := 1; size <= maxSize; size++ {
		combinations(len(candidates), size, func(idx []int) {
			teams = append(teams, buildTeam(candidates, idx, qty))
		})
	}
	return teams
}

// FormTeams returns the top req.TopK teams, best score first and smaller
// teams first on equal scores, ranked from 1.
func FormTeams(pool []ProductSupply, req TeamRequest) ([]TeamCandidate, string) {
	candidates, reason := TeamPool(pool, req)
	if reason != "" {
		return []TeamCandidate{}, reason
	}
	maxSize := req.MaxTeamSize
	if maxSize == 0 {
		maxSize = MaxTeamSize
	}
	teams := EnumerateTeams(candidates, req.Quantity, maxSize)
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Score != teams[j].Score {
			return teams[i].Score > teams[j].Score
		}
		return teams[i].TeamSize < teams[j].TeamSize
	})

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTeamTop
	}
	if len(teams) > topK {
		teams = teams[:topK]
	}
	for i := range teams {
		teams[i].Rank = i + 1
	}
	return teams, ""
}

func buildTeam(candidates []ProductSupply, idx []int, qty float64) TeamCandidate {
	t := TeamCandidate{
		TeamSize:    len(idx),
		SHGIDs:      make([]int64, 0, len(idx)),
		SHGNames:    make([]string, 0, len(idx)),
		Districts:   make([]string, 0, len(idx)),
		States:      make([]string, 0, len(idx)),
		ProductName: candidates[idx[0]].ProductName,
	}
	var supply, capacity float64
	for _, i := range idx {
		c := candidates[i]
		t.SHGIDs = append(t.SHGIDs, c.SHGID)
		t.SHGNames = append(t.SHGNames, c.SHGName)
		t.Districts = append(t.Districts, c.District)
		t.States = append(t.States, c.State)
		supply += c.SupplyReady
		capacity += c.MonthlyCapacity
	}
	t.Score = TeamScore(supply, capacity, len(idx), qty)
	t.TotalSupplyReady = round(supply, 1)
	t.TotalCapacity = round(capacity, 1)
	return t
}

// combinations calls fn with every k-subset of 0..n-1 in lexicographic
// order.  fn must not retain idx.
func combinations(n, k int, fn func(idx []int)) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
