package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"schedgrid/internal/config"
	"schedgrid/internal/schedule"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const gridConfig = `timezone: UTC
week_start: none
interval_count: 2
start_day_hour: 10
end_day_hour: 11
cell_duration: "30"
log_level: error
`

func TestGridCommand(t *testing.T) {
	path := writeConfig(t, gridConfig)
	out, err := run(t, "--config", path, "grid", "--date", "2018-10-09T10:00")
	require.NoError(t, err)

	require.Contains(t, out, "Tue 10-09")
	require.Contains(t, out, "Wed 10-10")
	require.Contains(t, out, "10:00-10:30")
	require.Contains(t, out, "10:30-10:59")
	require.Contains(t, out, "2018-10-09 10:00:00 UTC .. 2018-10-10 10:58:59 UTC")
}

func TestGridCommandOverrides(t *testing.T) {
	path := writeConfig(t, gridConfig)
	out, err := run(t, "--config", path, "grid",
		"--date", "2018-06-24",
		"--first-day", "wednesday",
		"--days", "7",
		"--exclude", "sat,sun",
		"--duration", "PT1H",
	)
	require.NoError(t, err)

	require.Contains(t, out, "Wed 06-20")
	require.Contains(t, out, "Tue 06-26")
	require.NotContains(t, out, "Sat 06-23")
	require.NotContains(t, out, "Sun 06-24")
	require.Contains(t, out, "10:00-10:59")
	require.Contains(t, out, "2018-06-20 10:00:00 UTC .. 2018-06-26 10:58:59 UTC")
}

func TestGridCommandRejectsZeroDays(t *testing.T) {
	path := writeConfig(t, gridConfig)
	_, err := run(t, "--config", path, "grid", "--days", "0")
	require.ErrorIs(t, err, schedule.ErrInvalidConfiguration)
}

func TestViewsCommand(t *testing.T) {
	// A missing config file is created with the defaults.
	path := filepath.Join(t.TempDir(), "schedgrid.yaml")
	out, err := run(t, "--config", path, "--log-level", "error", "views", "Agenda")
	require.NoError(t, err)
	require.FileExists(t, path)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Equal(t, []string{"  Day", "  Week", "  Month", "* Agenda"}, lines)

	out, err = run(t, "--config", path, "--log-level", "error", "views")
	require.NoError(t, err)
	require.Equal(t, "  Day\n* Week\n  Month\n", out)
}

func TestUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, gridConfig)
	_, err := run(t, "--config", path, "--log-level", "loud", "views")
	require.Error(t, err)
}

func TestConfigFieldsArePaired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StartDayHour = 8
	cfg.EndDayHour = 18

	fields := configFields(cfg)
	require.Zero(t, len(fields)%2)
	kv := map[string]any{}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		require.True(t, ok, "field %d is not a key", i)
		kv[key] = fields[i+1]
	}
	require.Equal(t, 8, kv["start_day_hour"])
	require.Equal(t, 18, kv["end_day_hour"])
}
