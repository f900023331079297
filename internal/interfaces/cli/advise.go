package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

func newAdviseCmd() *cobra.Command {
	var (
		query      string
		showBundle bool
	)
	cmd := &cobra.Command{
		Use:   "advise [question]",
		Short: "Ask the advisory model about the current SHG insights",
		Long: "advise builds an insight bundle from the store (clusters, health bands,\n" +
			"underutilised capacity, high-potential SHGs and top products) and asks\n" +
			"the configured generative model to answer the question against it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				query = strings.Join(args, " ")
			}
			if strings.TrimSpace(query) == "" && !showBundle {
				return errors.InvalidParam("a question is required (--query or argument)")
			}
			if strings.TrimSpace(query) == "" && !showBundle {
				return errors.InvalidParam("a question is required (--query or argument)")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			svc, err := cliCtx.Advisory()
			if err != nil {
				return err
			}
			if showBundle {
				b, err := svc.Bundle(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), b)
			}

			answer, err := svc.Advise(cmd.Context(), query)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == FormatJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{"query": query, "answer": answer})
			}
			return printText(cmd, answer)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "question to ask")
	cmd.Flags().BoolVar(&showBundle, "bundle", false, "print the insight bundle instead of asking")
	return cmd
}
