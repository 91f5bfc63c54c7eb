package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schedgrid/internal/schedule"
)

func newViewsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views [name]",
		Short: "List the available view names, including the requested one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			current := cfg.CurrentView
			if len(args) == 1 {
				current = args[0]
			}
			bold := color.New(color.Bold)
			for _, name := range schedule.AvailableViewNames(cfg.Views, current) {
				if name == current {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), bold.Sprint("* "+name))
					continue
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  "+name)
			}
			return nil
		},
	}
}
