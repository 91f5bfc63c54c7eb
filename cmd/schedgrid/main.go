package main

import (
	"os"

	"github.com/spf13/cobra"

	"schedgrid/internal/config"
	appLog "schedgrid/internal/log"
)

const version = "0.1.0"

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "schedgrid",
		Short:         "Compute the day/time grid of a scheduler view",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "./schedgrid.yaml", "Path to config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newGridCmd(opts),
		newViewsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// load reads the config file and applies the effective log level.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", o.configPath)
		return nil, err
	}
	levelName := cfg.LogLevel
	if o.logLevel != "" {
		levelName = o.logLevel
	}
	level, err := appLog.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(level)
	return cfg, nil
}
