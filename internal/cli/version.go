package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/moodtune/internal/app"
)

func newVersionCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.GetVersionInfo()
			out := cmd.OutOrStdout()

			if jsonOut {
				data, err := json.MarshalIndent(map[string]string{
					"version":    info.Version,
					"commit":     info.GitCommit,
					"tag":        info.GitTag,
					"build_time": info.BuildTime,
					"go_version": runtime.Version(),
					"platform":   runtime.GOOS + "/" + runtime.GOARCH,
				}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			_, err := fmt.Fprintln(out, info.FullString())
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
