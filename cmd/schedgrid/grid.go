package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	appLog "schedgrid/internal/log"
	"schedgrid/internal/schedule"
)

type gridFlags struct {
	date     string
	firstDay string
	days     int
	exclude  []string
	start    int
	end      int
	duration string
}

func newGridCmd(root *rootOptions) *cobra.Command {
	f := &gridFlags{}
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the cells of the configured view",
		Long: `Print the cells of the configured view as a table: one row per time
slot, one column per visible day, followed by the view range.

Flags override the matching config file values for this run only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGrid(cmd, root, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "Current date, e.g. 2018-10-09 or 2018-10-09T10:00")
	fl.StringVar(&f.firstDay, "first-day", "", "First day of week (sunday..saturday, 0-6, or none)")
	fl.IntVar(&f.days, "days", 0, "Number of day columns")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Weekdays to hide, e.g. sat,sun")
	fl.IntVar(&f.start, "start", 0, "First visible hour")
	fl.IntVar(&f.end, "end", 0, "End of the visible hours")
	fl.StringVar(&f.duration, "duration", "", "Cell duration in minutes or ISO 8601 (PT30M)")
	return cmd
}

func runGrid(cmd *cobra.Command, root *rootOptions, f *gridFlags) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	fl := cmd.Flags()
	if fl.Changed("date") {
		cfg.CurrentDate = f.date
	}
	if fl.Changed("first-day") {
		cfg.WeekStart = f.firstDay
	}
	if fl.Changed("days") {
		cfg.IntervalCount = f.days
	}
	if fl.Changed("exclude") {
		cfg.ExcludedDays = f.exclude
	}
	if fl.Changed("start") {
		cfg.StartDayHour = f.start
	}
	if fl.Changed("end") {
		cfg.EndDayHour = f.end
	}
	if fl.Changed("duration") {
		cfg.CellDuration = f.duration
	}

	p, err := cfg.Params(time.Now())
	if err != nil {
		return err
	}
	view, err := schedule.Compute(p)
	if err != nil {
		return err
	}
	appLog.Debug("grid computed",
		"days", len(view.Days),
		"slots", len(view.Slots),
		"first_day_of_week", p.FirstDayOfWeek,
	)

	printView(cmd, view)
	return nil
}

func printView(cmd *cobra.Command, view schedule.View) {
	bold := color.New(color.Bold)
	weekend := color.New(color.FgRed, color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "

	header := []any{bold.Sprint("Time")}
	for _, d := range view.Days {
		label := d.Format("Mon 01-02")
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			header = append(header, weekend.Sprint(label))
		} else {
			header = append(header, bold.Sprint(label))
		}
	}
	tbl.AddRow(header...)

	for r, row := range view.Cells {
		line := []any{view.Slots[r].Start.Format("15:04")}
		for _, cell := range row {
			line = append(line, cell.StartDate.Format("15:04")+"-"+cell.EndDate.Format("15:04"))
		}
		tbl.AddRow(line...)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, tbl)
	_, _ = fmt.Fprintf(out, "\n%s %s .. %s\n",
		bold.Sprint("Range:"),
		view.Range.Start.Format("2006-01-02 15:04:05 MST"),
		view.Range.End.Format("2006-01-02 15:04:05 MST"),
	)
}
