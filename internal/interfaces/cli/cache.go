package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the Redis result cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ping",
			Short: "Check that the result cache is reachable",
			RunE: func(cmd *cobra.Command, args []string) error {
				cliCtx, err := GetCLIContext(cmd)
				if err != nil {
					return err
				}
				rc, err := cliCtx.Cache()
				if err != nil {
					return err
				}
				if err := rc.Ping(cmd.Context()); err != nil {
					return err
				}
				PrintSuccess(cmd, "result cache is reachable")
				return nil
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Drop results cached at older store revisions",
			RunE: func(cmd *cobra.Command, args []string) error {
				cliCtx, err := GetCLIContext(cmd)
				if err != nil {
					return err
				}
				rc, err := cliCtx.Cache()
				if err != nil {
					return err
				}
				rev, err := cliCtx.Revision(cmd.Context())
				if err != nil {
					return err
				}
				n, err := rc.Prune(cmd.Context(), rev)
				if err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("removed %d stale entries, revision %d kept", n, rev))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Drop every cached result",
			RunE: func(cmd *cobra.Command, args []string) error {
				cliCtx, err := GetCLIContext(cmd)
				if err != nil {
					return err
				}
				rc, err := cliCtx.Cache()
				if err != nil {
					return err
				}
				n, err := rc.DeleteByPrefix(cmd.Context(), "")
				if err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("removed %d cached results", n))
				return nil
			},
		},
	)
	return cmd
}
