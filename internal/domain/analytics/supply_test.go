package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

func TestBuildProductSupply(t *testing.T) {
	s := sampleSnapshot()
	s.Production = append(s.Production, shg.ProductionCapacity{SHGID: 404, ProductName: "Ghost", MonthlyCapacity: 10})

	pool := BuildProductSupply(s)
	require.Len(t, pool, 4)

	assert.Equal(t, ProductSupply{
		SHGID:           1,
		SHGName:         "Jyoti",
		Village:         "Hadapsar",
		District:        "Pune",
		State:           "Maharashtra",
		ProductName:     "Cloth Bags",
		MonthlyCapacity: 400,
		SupplyReady:     200,
		AvgIncome:       12000,
		AvgSavings:      8000,
	}, pool[0])
	assert.Equal(t, "Pickle", pool[1].ProductName)
	assert.Equal(t, int64(2), pool[2].SHGID)
	assert.Equal(t, int64(3), pool[3].SHGID)
	assert.Zero(t, pool[3].AvgIncome)
}

func TestAvailableProducts(t *testing.T) {
	assert.Equal(t, []string{"Cloth Bags", "Milk", "Pickle"}, AvailableProducts(BuildProductSupply(sampleSnapshot())))
	assert.Equal(t, []string{}, AvailableProducts(nil))
}
