package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			return printStatus(cmd, m)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back (0 rolls back all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				if err := m.Up(); err != nil {
					return err
				}
				return printStatus(cmd, m)
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return printStatus(cmd, m)
			},
		},
	)
	return cmd
}

// migrator opens the store without the automatic migration so that schema
// commands act on the database as it is.
func migrator(cmd *cobra.Command) (*sqlite.Migrator, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	cliCtx.Config.Database.MigrateOnStart = false
	conn, err := cliCtx.Store()
	if err != nil {
		return nil, err
	}
	return sqlite.NewMigrator(conn, cliCtx.Logger), nil
}

func printStatus(cmd *cobra.Command, m *sqlite.Migrator) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	return PrintResult(cmd, table{
		payload: st,
		headers: []string{"VERSION", "DIRTY"},
		rows:    [][]string{{fmt.Sprintf("%d", st.Version), fmt.Sprintf("%t", st.Dirty)}},
	})
}
