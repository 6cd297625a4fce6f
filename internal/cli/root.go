// Package cli implements the moodtune command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/moodtune/internal/app"
	"github.com/tejashwikalptaru/moodtune/internal/config"
)

// options are the global flags and the configuration they load.
type options struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
}

// NewRootCommand builds the moodtune command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "moodtune",
		Short: "Mood-tagged playback core with listening history",
		Long: `MoodTune drives an external player from a playback session and keeps a
listening history grouped by mood and minute.

Run "moodtune serve" to expose the core to Socket.io clients.`,
		Version: app.GetVersionInfo().FullString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default: ~/.config/moodtune/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(opts),
		newPlayCommand(opts),
		newHistoryCommand(opts),
		newVersionCommand(),
	)

	return root
}

func (o *options) initConfig() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	o.cfg = cfg
	return nil
}

// newApplication builds the application from the loaded configuration.
func (o *options) newApplication() (*app.Application, error) {
	return app.NewApplication(app.Config{Settings: o.cfg})
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
