package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := BuildInfo{
				Version:   Version,
				Commit:    GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			return PrintResult(cmd, table{
				payload: info,
				headers: []string{"FIELD", "VALUE"},
				rows: [][]string{
					{"version", info.Version},
					{"commit", info.Commit},
					{"build_date", info.BuildDate},
					{"go", info.GoVersion},
				},
			})
		},
	}
}
