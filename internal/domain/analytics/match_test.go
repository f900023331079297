package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomeTierPoints(t *testing.T) {
	cases := map[float64]float64{
		0:        2,
		4999.99:  2,
		5000:     4,
		7999:     4,
		8000:     7,
		11999.99: 7,
		12000:    10,
		50000:    10,
	}
	for income, want := range cases {
		assert.Equal(t, want, IncomeTierPoints(income), "income %.2f", income)
	}
}

func TestMatchScore_Components(t *testing.T) {
	row := ProductSupply{
		ProductName:     "Cloth Bags",
		District:        "Nagpur",
		State:           "Maharashtra",
		MonthlyCapacity: 100,
		SupplyReady:     50,
		AvgIncome:       9000,
	}

	// 40 product + 6.25 supply + 10 capacity + 7 income + 5 district
	got := MatchScore(DemandQuery{Product: "cloth bags", Quantity: 200, District: "NAGPUR"}, row)
	assert.Equal(t, 68.25, got)

	// State only.
	got = MatchScore(DemandQuery{Product: "Cloth Bags", Quantity: 200, District: "Pune", State: "maharashtra"}, row)
	assert.Equal(t, 66.25, got)

	// Different product, no location.
	got = MatchScore(DemandQuery{Product: "Pickle", Quantity: 200}, row)
	assert.Equal(t, 23.25, got)

	// Rounded to two decimals.
	got = MatchScore(DemandQuery{Product: "Cloth Bags", Quantity: 300}, row)
	assert.Equal(t, 57.83, got)
}

func TestMatchScore_FullCoverageAndBounds(t *testing.T) {
	row := ProductSupply{ProductName: "Milk", District: "Pune", State: "Maharashtra", MonthlyCapacity: 1e6, SupplyReady: 1e6, AvgIncome: 1e6}
	best := MatchScore(DemandQuery{Product: "milk", Quantity: 10, District: "pune", State: "maharashtra"}, row)
	assert.Equal(t, 100.0, best)

	zeroQty := MatchScore(DemandQuery{Product: "Milk", Quantity: 0}, ProductSupply{ProductName: "Milk"})
	assert.Equal(t, 87.0, zeroQty, "non-positive quantity earns full coverage")

	none := MatchScore(DemandQuery{Product: "Milk", Quantity: 10}, ProductSupply{ProductName: "Ghee", SupplyReady: -5})
	assert.Equal(t, 2.0, none)
}

func TestMatchScore_ComponentCaps(t *testing.T) {
	for _, qty := range []float64{0, 1, 50, 100, 5000} {
		for _, have := range []float64{0, 10, 100, 1e5} {
			row := ProductSupply{ProductName: "Bag", MonthlyCapacity: have, SupplyReady: have, AvgIncome: have}
			assert.LessOrEqual(t, coverage(have, qty, matchSupplyPoints), 25.0)
			assert.LessOrEqual(t, coverage(have, qty, matchCapacityPoints), 20.0)
			assert.LessOrEqual(t, IncomeTierPoints(have), 10.0)
			score := MatchScore(DemandQuery{Product: "Bag", Quantity: qty}, row)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

func TestMatchDemand(t *testing.T) {
	pool := BuildProductSupply(sampleSnapshot())

	results, reason := MatchDemand(pool, DemandQuery{Product: "CLOTH BAGS", Quantity: 200, District: "nagpur"})
	assert.Empty(t, reason)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].SHGID)
	assert.Equal(t, "Jyoti", results[0].Name)
	assert.Equal(t, 400.0, results[0].TotalCapacity)
	assert.Equal(t, 200.0, results[0].TotalSupplyReady)
	assert.Equal(t, 95.0, results[0].MatchScore)

	assert.Equal(t, int64(2), results[1].SHGID)
	assert.Equal(t, 75.25, results[1].MatchScore)
}

func TestMatchDemand_NoProducer(t *testing.T) {
	results, reason := MatchDemand(BuildProductSupply(sampleSnapshot()), DemandQuery{Product: "Honey", Quantity: 5})
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, NoProducerReason, reason)

	results, reason = MatchDemand(nil, DemandQuery{Product: "Honey"})
	assert.Empty(t, results)
	assert.Equal(t, NoProducerReason, reason)
}
