package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/internal/application/analytics"
	domainanalytics "github.com/turtacn/SHG-Insights/internal/domain/analytics"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

func analyticsService(cmd *cobra.Command) (analytics.Service, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return cliCtx.Analytics()
}

func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Show the per-SHG feature profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			rows, err := svc.Features(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, featureTable(rows))
		},
	}
}

func featureTable(rows []domainanalytics.FeatureRow) table {
	t := table{
		payload: rows,
		headers: []string{"ID", "NAME", "DISTRICT", "STATE", "SKILL", "EXP", "INCOME", "EXPENSE", "SAVINGS", "CAPACITY", "SUPPLY"},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{
			itoa64(r.SHGID), r.Name, r.District, r.State, r.DominantSkill,
			f2(r.AvgExperience), f2(r.AvgIncome), f2(r.AvgExpense), f2(r.AvgSavings),
			f2(r.TotalCapacity), f2(r.TotalSupplyReady),
		})
	}
	return t
}

func newHealthCmd() *cobra.Command {
	var bands bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Score every SHG on the health rubric",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			report, err := svc.Health(cmd.Context())
			if err != nil {
				return err
			}
			if bands {
				t := table{payload: report.Bands, headers: []string{"BAND", "SHGS"}}
				for _, b := range report.Bands {
					t.rows = append(t.rows, []string{b.HealthBand, fmt.Sprint(b.NumSHGs)})
				}
				return PrintResult(cmd, t)
			}
			t := table{payload: report, headers: []string{"ID", "NAME", "PRODUCTS", "UTILISATION", "SCORE", "BAND"}}
			for _, r := range report.Records {
				t.rows = append(t.rows, []string{
					itoa64(r.SHGID), r.Name, fmt.Sprint(r.ProductCount),
					f2(r.Utilisation), f2(r.HealthScore), r.HealthBand,
				})
			}
			return PrintResult(cmd, t)
		},
	}
	cmd.Flags().BoolVar(&bands, "bands", false, "show the band distribution only")
	return cmd
}

func newCredibilityCmd() *cobra.Command {
	var shgID int64
	cmd := &cobra.Command{
		Use:   "credibility",
		Short: "Score an SHG's ledger for credit readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			r, err := svc.Credibility(cmd.Context(), shgID)
			if err != nil {
				return err
			}
			return PrintResult(cmd, table{
				payload: r,
				headers: []string{"FIELD", "VALUE"},
				rows: [][]string{
					{"shg_id", itoa64(r.SHGID)},
					{"total_income", f2(r.TotalIncome)},
					{"total_expense", f2(r.TotalExpense)},
					{"balance", f2(r.Balance)},
					{"transactions", fmt.Sprint(r.NumTransactions)},
					{"inventory_value", f2(r.InventoryValue)},
					{"score", fmt.Sprint(r.Score)},
					{"advice", r.Advice},
				},
			})
		},
	}
	cmd.Flags().Int64Var(&shgID, "shg", 0, "SHG id")
	_ = cmd.MarkFlagRequired("shg")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var (
		q        domainanalytics.DemandQuery
		demandID int64
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank SHGs against a buyer demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			var report *analytics.MatchReport
			if demandID > 0 {
				report, err = svc.MatchDemand(cmd.Context(), demandID)
			} else {
				if q.Product == "" {
					return errors.InvalidParam("either --product or --demand-id is required")
				}
				report, err = svc.Match(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			if report.Reason != "" && len(report.Results) == 0 && outputFormat(cmd) == FormatText {
				return printText(cmd, report.Reason)
			}
			t := table{payload: report, headers: []string{"ID", "NAME", "DISTRICT", "STATE", "PRODUCT", "CAPACITY", "SUPPLY", "INCOME", "SCORE"}}
			for _, r := range report.Results {
				t.rows = append(t.rows, []string{
					itoa64(r.SHGID), r.Name, r.District, r.State, r.ProductName,
					f2(r.TotalCapacity), f2(r.TotalSupplyReady), f2(r.AvgIncome), f2(r.MatchScore),
				})
			}
			return PrintResult(cmd, t)
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Product, "product", "", "product keyword")
	f.Float64Var(&q.Quantity, "qty", 0, "quantity required")
	f.StringVar(&q.District, "district", "", "buyer district")
	f.StringVar(&q.State, "state", "", "buyer state")
	f.Int64Var(&demandID, "demand-id", 0, "match a recorded demand instead")
	return cmd
}

func newTeamsCmd() *cobra.Command {
	var req domainanalytics.TeamRequest
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Form SHG teams that can fulfil a bulk order together",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			report, err := svc.Teams(cmd.Context(), req)
			if err != nil {
				return err
			}
			if report.Reason != "" && len(report.Teams) == 0 && outputFormat(cmd) == FormatText {
				return printText(cmd, report.Reason)
			}
			t := table{payload: report, headers: []string{"RANK", "SIZE", "SHGS", "STATES", "PRODUCT", "SUPPLY", "CAPACITY", "SCORE"}}
			for _, tm := range report.Teams {
				t.rows = append(t.rows, []string{
					fmt.Sprint(tm.Rank), fmt.Sprint(tm.TeamSize),
					strings.Join(tm.SHGNames, ", "), strings.Join(tm.States, ", "),
					tm.ProductName, f2(tm.TotalSupplyReady), f2(tm.TotalCapacity), f2(tm.Score),
				})
			}
			return PrintResult(cmd, t)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Product, "product", "", "product keyword")
	f.Float64Var(&req.Quantity, "qty", 0, "order quantity")
	f.StringVar(&req.State, "state", "", "restrict to a state")
	f.StringVar(&req.District, "district", "", "restrict to a district")
	f.IntVar(&req.MaxTeamSize, "max-size", 0, "largest team size, 1 to 4 (default from config)")
	f.IntVar(&req.TopK, "top", 0, "teams to return (default from config)")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group SHGs by business profile or district demand",
	}

	var (
		businessK int
		members   bool
	)
	business := &cobra.Command{
		Use:   "business",
		Short: "Cluster SHGs on their numeric features",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.ClusterBusiness(cmd.Context(), businessK)
			if err != nil {
				return err
			}
			if members {
				t := table{payload: res, headers: []string{"ID", "NAME", "STATE", "SKILL", "CLUSTER"}}
				for _, a := range res.Assignments {
					t.rows = append(t.rows, []string{itoa64(a.SHGID), a.Name, a.State, a.DominantSkill, fmt.Sprint(a.ClusterLabel)})
				}
				return PrintResult(cmd, t)
			}
			t := table{payload: res, headers: []string{"CLUSTER", "SHGS", "INCOME", "SAVINGS", "EXP", "CAPACITY", "SUPPLY"}}
			for _, s := range res.Summaries {
				t.rows = append(t.rows, []string{
					fmt.Sprint(s.ClusterLabel), fmt.Sprint(s.NumSHGs), f2(s.AvgIncome), f2(s.AvgSavings),
					f2(s.AvgExperience), f2(s.AvgCapacity), f2(s.AvgSupplyReady),
				})
			}
			return PrintResult(cmd, t)
		},
	}
	business.Flags().IntVar(&businessK, "k", 0, "number of clusters (default from config)")
	business.Flags().BoolVar(&members, "members", false, "list every SHG with its cluster")

	var geoK int
	geo := &cobra.Command{
		Use:   "geo",
		Short: "Cluster SHGs on capacity against district demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.ClusterGeo(cmd.Context(), geoK)
			if err != nil {
				return err
			}
			t := table{payload: res, headers: []string{"CLUSTER", "SHGS", "STATES", "TOP SKILL", "CAPACITY", "DEMAND", "GAP"}}
			for _, s := range res.Summaries {
				t.rows = append(t.rows, []string{
					fmt.Sprint(s.ClusterLabel), fmt.Sprint(s.NumSHGs), s.States, s.TopSkill,
					f2(s.AvgCapacity), f2(s.AvgDemand), f2(s.AvgGap),
				})
			}
			return PrintResult(cmd, t)
		},
	}
	geo.Flags().IntVar(&geoK, "k", 0, "number of clusters (default from config)")

	cmd.AddCommand(business, geo)
	return cmd
}

func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Product and capacity insights",
	}

	available := &cobra.Command{
		Use:   "available",
		Short: "List products with declared capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			names, err := svc.AvailableProducts(cmd.Context())
			if err != nil {
				return err
			}
			t := table{payload: names, headers: []string{"PRODUCT"}}
			for _, n := range names {
				t.rows = append(t.rows, []string{n})
			}
			return PrintResult(cmd, t)
		},
	}

	var limit int
	top := &cobra.Command{
		Use:   "products",
		Short: "Products ranked by total capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			rows, err := svc.TopProducts(cmd.Context(), limit)
			if err != nil {
				return err
			}
			t := table{payload: rows, headers: []string{"PRODUCT", "CAPACITY", "SUPPLY", "SHGS", "STATES"}}
			for _, r := range rows {
				t.rows = append(t.rows, []string{r.ProductName, f2(r.TotalCapacity), f2(r.TotalSupplyReady), fmt.Sprint(r.NumSHGs), fmt.Sprint(r.NumStates)})
			}
			return PrintResult(cmd, t)
		},
	}
	top.Flags().IntVar(&limit, "limit", 0, "rows to return (default from config)")

	var threshold, minCapacity float64
	under := &cobra.Command{
		Use:   "underutilized",
		Short: "Production rows running below a utilisation threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min-capacity") {
				minCapacity = -1
			}
			rows, err := svc.Underutilized(cmd.Context(), threshold, minCapacity)
			if err != nil {
				return err
			}
			t := table{payload: rows, headers: []string{"ID", "SHG", "DISTRICT", "STATE", "PRODUCT", "CAPACITY", "SUPPLY", "UTILISATION"}}
			for _, r := range rows {
				t.rows = append(t.rows, []string{
					itoa64(r.SHGID), r.SHGName, r.District, r.State, r.ProductName,
					f2(r.MonthlyCapacity), f2(r.SupplyReady), f2(r.Utilization),
				})
			}
			return PrintResult(cmd, t)
		},
	}
	under.Flags().Float64Var(&threshold, "threshold", 0, "utilisation threshold (default from config)")
	under.Flags().Float64Var(&minCapacity, "min-capacity", 0, "minimum monthly capacity (default from config)")

	var income, capacity float64
	high := &cobra.Command{
		Use:   "high-potential",
		Short: "Low-income SHGs with high production capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("capacity") {
				capacity = -1
			}
			rows, err := svc.HighPotential(cmd.Context(), income, capacity)
			if err != nil {
				return err
			}
			return PrintResult(cmd, featureTable(rows))
		},
	}
	high.Flags().Float64Var(&income, "income", 0, "income ceiling (default from config)")
	high.Flags().Float64Var(&capacity, "capacity", 0, "capacity floor (default from config)")

	states := &cobra.Command{
		Use:   "states",
		Short: "Per-state SHG counts, income and capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analyticsService(cmd)
			if err != nil {
				return err
			}
			rows, err := svc.StateSummary(cmd.Context())
			if err != nil {
				return err
			}
			t := table{payload: rows, headers: []string{"STATE", "SHGS", "INCOME", "CAPACITY"}}
			for _, r := range rows {
				t.rows = append(t.rows, []string{r.State, fmt.Sprint(r.NumSHGs), f2(r.AvgIncome), f2(r.TotalCapacity)})
			}
			return PrintResult(cmd, t)
		},
	}

	cmd.AddCommand(top, available, under, high, states)
	return cmd
}

func outputFormat(cmd *cobra.Command) string {
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		return cliCtx.OutputFormat
	}
	return FormatJSON
}
