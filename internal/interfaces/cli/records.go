package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/internal/application/records"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// recordsService resolves the records service from the command context.
func recordsService(cmd *cobra.Command) (records.Service, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return cliCtx.Records()
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML dataset of SHGs, members, products and demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			ds, err := records.LoadDataset(f)
			if err != nil {
				return err
			}
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			report, err := svc.Seed(cmd.Context(), ds)
			if err != nil {
				return err
			}
			return PrintResult(cmd, seedTable(report))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "dataset file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seedTable(r *records.SeedReport) table {
	return table{
		payload: r,
		headers: []string{"KIND", "WRITTEN"},
		rows: [][]string{
			{records.KindSHG, fmt.Sprint(r.SHGs)},
			{records.KindMember, fmt.Sprint(r.Members)},
			{records.KindSkill, fmt.Sprint(r.Skills)},
			{records.KindFinancial, fmt.Sprint(r.Financials)},
			{records.KindProduct, fmt.Sprint(r.Products)},
			{records.KindTransaction, fmt.Sprint(r.Transactions)},
			{records.KindCapacity, fmt.Sprint(r.Capacities)},
			{records.KindDemand, fmt.Sprint(r.DemandCenters)},
			{records.KindDistrictDemand, fmt.Sprint(r.DistrictDemand)},
		},
	}
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register SHGs, members, skills, financial profiles and products",
	}
	cmd.AddCommand(
		newCreateSHGCmd(),
		newCreateMemberCmd(),
		newCreateSkillCmd(),
		newCreateFinancialCmd(),
		newCreateProductCmd(),
	)
	return cmd
}

func newCreateSHGCmd() *cobra.Command {
	g := &shg.SHG{}
	cmd := &cobra.Command{
		Use:   "shg",
		Short: "Register a self-help group",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.CreateSHG(cmd.Context(), g); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("created SHG %d", g.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&g.Name, "name", "", "group name")
	f.StringVar(&g.Village, "village", "", "village")
	f.StringVar(&g.District, "district", "", "district")
	f.StringVar(&g.State, "state", "", "state")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCreateMemberCmd() *cobra.Command {
	m := &shg.Member{}
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add a member to an SHG",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.AddMember(cmd.Context(), m); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("created member %d", m.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&m.SHGID, "shg", 0, "SHG id")
	f.StringVar(&m.Name, "name", "", "member name")
	f.StringVar(&m.Phone, "phone", "", "phone number")
	f.StringVar(&m.Role, "role", "", "role within the group")
	_ = cmd.MarkFlagRequired("shg")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCreateSkillCmd() *cobra.Command {
	s := &shg.MemberSkill{}
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Record a member skill",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.AddSkill(cmd.Context(), s); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("created skill %d", s.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&s.MemberID, "member", 0, "member id")
	f.StringVar(&s.SkillCategory, "category", "", "skill category")
	f.StringVar(&s.SubSkill, "sub-skill", "", "sub-skill")
	f.Float64Var(&s.YearsExperience, "years", 0, "years of experience")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newCreateFinancialCmd() *cobra.Command {
	fin := &shg.MemberFinancial{}
	cmd := &cobra.Command{
		Use:   "financial",
		Short: "Set a member's financial profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.SetFinancial(cmd.Context(), fin); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("financial profile saved for member %d", fin.MemberID))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&fin.MemberID, "member", 0, "member id")
	f.Float64Var(&fin.MonthlyIncome, "income", 0, "monthly income")
	f.Float64Var(&fin.MonthlyExpense, "expense", 0, "monthly expense")
	f.Float64Var(&fin.CreditOutstanding, "credit", 0, "outstanding credit")
	f.Float64Var(&fin.LoanRepaymentRate, "repayment-rate", 0, "loan repayment rate in [0, 1]")
	f.Float64Var(&fin.Savings, "savings", 0, "savings")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newCreateProductCmd() *cobra.Command {
	p := &shg.Product{}
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Add a product to an SHG catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.CreateProduct(cmd.Context(), p); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("created product %d", p.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&p.SHGID, "shg", 0, "SHG id")
	f.StringVar(&p.Name, "name", "", "product name")
	f.StringVar(&p.Category, "category", "", "category")
	f.StringVar(&p.Unit, "unit", "", "unit of sale")
	f.Float64Var(&p.CostPrice, "cost", 0, "cost price")
	f.Float64Var(&p.SellingPrice, "price", 0, "selling price")
	_ = cmd.MarkFlagRequired("shg")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record inventory changes, ledger entries and production capacity",
	}
	cmd.AddCommand(newRecordInventoryCmd(), newRecordTxCmd(), newRecordCapacityCmd(), newDemandAddCmd("demand"))
	return cmd
}

func newRecordInventoryCmd() *cobra.Command {
	var adj records.InventoryAdjustment
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Adjust the stock of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			qty, err := svc.AdjustInventory(cmd.Context(), adj)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("product %d stock is now %s", adj.ProductID, f2(qty)))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&adj.ProductID, "product", 0, "product id")
	f.Float64Var(&adj.Change, "change", 0, "quantity to add (negative to remove)")
	f.StringVar(&adj.Reason, "reason", "", "reason for the adjustment")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("change")
	return cmd
}

func newRecordTxCmd() *cobra.Command {
	var (
		t         shg.Transaction
		txType    string
		productID int64
		memberID  int64
	)
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record a ledger transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Type = shg.TxType(txType)
			if cmd.Flags().Changed("product") {
				t.ProductID = &productID
			}
			if cmd.Flags().Changed("member") {
				t.MemberID = &memberID
			}
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.RecordTransaction(cmd.Context(), &t); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("recorded transaction %d", t.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&t.SHGID, "shg", 0, "SHG id")
	f.StringVar(&txType, "type", "", "income, expense, loan_disbursed, loan_repaid, savings, sale or purchase")
	f.Float64Var(&t.Amount, "amount", 0, "amount")
	f.Float64Var(&t.Quantity, "qty", 0, "quantity moved")
	f.Int64Var(&productID, "product", 0, "product id")
	f.Int64Var(&memberID, "member", 0, "member id")
	f.StringVar(&t.TxDate, "date", "", "transaction date, YYYY-MM-DD (default: today)")
	f.StringVar(&t.Description, "desc", "", "description")
	_ = cmd.MarkFlagRequired("shg")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRecordCapacityCmd() *cobra.Command {
	var (
		c           shg.ProductionCapacity
		productType string
	)
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Declare monthly production capacity for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.ProductType = shg.ProductType(productType)
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.DeclareCapacity(cmd.Context(), &c); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("declared %s capacity for %s", c.ProductType, c.ProductName))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&c.SHGID, "shg", 0, "SHG id")
	f.StringVar(&c.ProductName, "product", "", "product name")
	f.Float64Var(&c.MonthlyCapacity, "capacity", 0, "monthly capacity")
	f.Float64Var(&c.SupplyReady, "supply", 0, "supply ready now")
	f.StringVar(&productType, "type", "", "perishable or non_perishable (default: classified from the name)")
	_ = cmd.MarkFlagRequired("shg")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func newDemandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demand",
		Short: "Manage buyer demand and district demand data",
	}

	var file string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Replace district demand with the rows of a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(file)
			if err != nil {
				return err
			}
			defer in.Close()

			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			n, err := svc.ImportDistrictDemand(cmd.Context(), in)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("imported %d district demand rows", n))
			return nil
		},
	}
	imp.Flags().StringVarP(&file, "file", "f", "", "district demand CSV")
	_ = imp.MarkFlagRequired("file")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded buyer demand, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			demands, err := svc.ListDemands(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, demandTable(demands))
		},
	}

	cmd.AddCommand(newDemandAddCmd("add"), imp, list)
	return cmd
}

func demandTable(demands []shg.DemandCenter) table {
	rows := make([][]string, 0, len(demands))
	for _, d := range demands {
		rows = append(rows, []string{
			itoa64(d.ID), d.Location, d.District, d.State,
			d.ProductRequired, f2(d.QuantityRequired), d.Deadline,
		})
	}
	return table{
		payload: demands,
		headers: []string{"ID", "LOCATION", "DISTRICT", "STATE", "PRODUCT", "QTY", "DEADLINE"},
		rows:    rows,
	}
}

func newDemandAddCmd(use string) *cobra.Command {
	d := &shg.DemandCenter{}
	cmd := &cobra.Command{
		Use:   use,
		Short: "Record a buyer demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := recordsService(cmd)
			if err != nil {
				return err
			}
			if err := svc.RecordDemand(cmd.Context(), d); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("recorded demand %d", d.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.Location, "location", "", "buyer location")
	f.StringVar(&d.District, "district", "", "district")
	f.StringVar(&d.State, "state", "", "state")
	f.StringVar(&d.ProductRequired, "product", "", "product required")
	f.Float64Var(&d.QuantityRequired, "qty", 0, "quantity required")
	f.StringVar(&d.Deadline, "deadline", "", "deadline, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}
