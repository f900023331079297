package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

var districtDemandColumns = []string{
	"state", "district", "skill_category", "monthly_demand", "priority_level", "latitude", "longitude",
}

// ParseDistrictDemand reads a district demand CSV.  The header row names the
// columns in any order; state, district and skill_category are required,
// the numeric columns are optional and unparseable values read as 0.  Rows
// with a blank state, district or skill category are skipped.
func ParseDistrictDemand(r io.Reader) ([]shg.DistrictDemand, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeDatasetMalformed, "district demand CSV is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed, "failed to read district demand header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range districtDemandColumns[:3] {
		if _, ok := index[col]; !ok {
			return nil, errors.New(errors.ErrCodeDatasetMalformed, "district demand CSV is missing column "+col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := []shg.DistrictDemand{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed, fmt.Sprintf("failed to read district demand line %d", line))
		}
		row := shg.DistrictDemand{
			State:         field(rec, "state"),
			District:      field(rec, "district"),
			SkillCategory: field(rec, "skill_category"),
			MonthlyDemand: shg.SafeFloat(field(rec, "monthly_demand")),
			PriorityLevel: shg.SafeFloat(field(rec, "priority_level")),
			Latitude:      shg.SafeFloat(field(rec, "latitude")),
			Longitude:     shg.SafeFloat(field(rec, "longitude")),
		}
		if row.State == "" || row.District == "" || row.SkillCategory == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
