package analytics

import "github.com/turtacn/SHG-Insights/internal/domain/shg"

// sampleSnapshot is shared by the engine tests:
//
//	SHG 1 Jyoti    Pune/Maharashtra    Tailoring x2, Food Processing x1, two products
//	SHG 2 Pragati  Nagpur/Maharashtra  Handicrafts and Food Processing tie
//	SHG 3 Sakhi    Jaipur/Rajasthan    Dairy, no financial profile
//	SHG 4 Nirmal   Kota/Rajasthan      no children at all
func sampleSnapshot() Snapshot {
	return Snapshot{
		SHGs: []shg.SHG{
			{ID: 3, Name: "Sakhi", Village: "Amer", District: "Jaipur", State: "Rajasthan"},
			{ID: 1, Name: "Jyoti", Village: "Hadapsar", District: "Pune", State: "Maharashtra"},
			{ID: 2, Name: "Pragati", Village: "Kamptee", District: "Nagpur", State: "Maharashtra"},
			{ID: 4, Name: "Nirmal", Village: "Bundi", District: "Kota", State: "Rajasthan"},
		},
		Members: []shg.Member{
			{ID: 10, SHGID: 1, Name: "Asha"},
			{ID: 11, SHGID: 1, Name: "Meena"},
			{ID: 20, SHGID: 2, Name: "Kavita"},
			{ID: 30, SHGID: 3, Name: "Lata"},
		},
		Skills: []shg.MemberSkill{
			{MemberID: 10, SkillCategory: "Tailoring", YearsExperience: 4},
			{MemberID: 11, SkillCategory: "Tailoring", YearsExperience: 2},
			{MemberID: 11, SkillCategory: "Food Processing", YearsExperience: 6},
			{MemberID: 20, SkillCategory: "Handicrafts", YearsExperience: 3},
			{MemberID: 20, SkillCategory: "Food Processing", YearsExperience: 5},
			{MemberID: 30, SkillCategory: "Dairy", YearsExperience: 10},
			{MemberID: 99, SkillCategory: "Orphan", YearsExperience: 50},
		},
		Financials: []shg.MemberFinancial{
			{MemberID: 10, MonthlyIncome: 10000, MonthlyExpense: 6000, Savings: 4000},
			{MemberID: 11, MonthlyIncome: 14000, MonthlyExpense: 8000, Savings: 12000},
			{MemberID: 20, MonthlyIncome: 6000, MonthlyExpense: 5000, Savings: 1000},
		},
		Production: []shg.ProductionCapacity{
			{SHGID: 1, ProductName: "Cloth Bags", MonthlyCapacity: 300, SupplyReady: 150},
			{SHGID: 1, ProductName: "Pickle", MonthlyCapacity: 100, SupplyReady: 100},
			{SHGID: 1, ProductName: "Cloth Bags", MonthlyCapacity: 100, SupplyReady: 50},
			{SHGID: 2, ProductName: "Cloth Bags", MonthlyCapacity: 200, SupplyReady: 50},
			{SHGID: 3, ProductName: "Milk", MonthlyCapacity: 500, SupplyReady: 100},
		},
		DistrictDemand: []shg.DistrictDemand{
			{State: "Maharashtra", District: "Pune", SkillCategory: "Tailoring", MonthlyDemand: 1000, PriorityLevel: 2, Latitude: 18.5, Longitude: 73.8},
			{State: "Maharashtra", District: "Pune", SkillCategory: "Tailoring", MonthlyDemand: 9999, PriorityLevel: 9, Latitude: 1, Longitude: 1},
			{State: "Rajasthan", District: "Jaipur", SkillCategory: "Dairy", MonthlyDemand: 300, PriorityLevel: 1, Latitude: 26.9, Longitude: 75.8},
		},
	}
}

func featureByID(rows []FeatureRow) map[int64]FeatureRow {
	out := make(map[int64]FeatureRow, len(rows))
	for _, r := range rows {
		out[r.SHGID] = r
	}
	return out
}
