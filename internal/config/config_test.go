package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"schedgrid/internal/schedule"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Europe/Berlin
week_start: sunday
interval_count: 5
excluded_days: [sat, sun]
start_day_hour: 8
end_day_hour: 18
cell_duration: PT45M
views: [Week]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultListen, cfg.Listen)
	require.Equal(t, "Week", cfg.CurrentView)
	require.Equal(t, []string{"Week"}, cfg.Views)
	require.Equal(t, defaultRefresh, cfg.RefreshCron)

	minutes, err := cfg.CellMinutes()
	require.NoError(t, err)
	require.Equal(t, 45, minutes)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval_count: [1, 2"), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("start_day_hour: 30\n"), 0o600))
	_, err = Load(path)
	require.True(t, errors.Is(err, schedule.ErrInvalidConfiguration))
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.WeekStart = "someday"
	cfg.ExcludedDays = []string{"sat", "8"}
	cfg.CellDuration = "PT90S"
	cfg.RefreshCron = "every day"
	cfg.CurrentDate = "tomorrow"
	cfg.StartDayHour = 20
	cfg.EndDayHour = 10

	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, schedule.ErrInvalidConfiguration))
	require.True(t, errors.Is(err, schedule.ErrInvalidDate))

	var m interface{ Unwrap() []error }
	require.True(t, errors.As(err, &m))
	require.Len(t, m.Unwrap(), 7)
}

func TestValidateIntervalCountLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntervalCount = schedule.MaxDayCount
	require.NoError(t, cfg.Validate())

	cfg.IntervalCount = schedule.MaxDayCount + 1
	require.True(t, errors.Is(cfg.Validate(), schedule.ErrInvalidConfiguration))
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestCellMinutes(t *testing.T) {
	for in, want := range map[string]int{
		"30":    30,
		" 15 ":  15,
		"PT1H":  60,
		"PT90M": 90,
	} {
		cfg := &Config{CellDuration: in}
		got, err := cfg.CellMinutes()
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, in := range []string{"0", "-5", "PT30S", "thirty", "-PT30M"} {
		cfg := &Config{CellDuration: in}
		_, err := cfg.CellMinutes()
		require.True(t, errors.Is(err, schedule.ErrInvalidConfiguration), in)
	}
}

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.WeekStart = "wednesday"
	cfg.ExcludedDays = []string{"sunday"}
	cfg.StartDayHour = 9
	cfg.EndDayHour = 17
	cfg.CellDuration = "PT1H"

	now := time.Date(2018, time.June, 24, 15, 4, 5, 0, time.UTC)
	p, err := cfg.Params(now)
	require.NoError(t, err)
	require.Equal(t, now, p.CurrentDate)
	require.Equal(t, schedule.StartOn(time.Wednesday), p.FirstDayOfWeek)
	require.Equal(t, []time.Weekday{time.Sunday}, p.ExcludedDays)
	require.Equal(t, 7, p.IntervalCount)
	require.Equal(t, 60, p.CellDuration)

	cfg.CurrentDate = "2020-01-02"
	cfg.WeekStart = "none"
	p, err = cfg.Params(now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), p.CurrentDate)
	require.False(t, p.FirstDayOfWeek.Set)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICS = []ICSConfig{{ID: "work", URL: "https://example.com/work.ics"}}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
	require.Equal(t, "work", loaded.ICS[0].SourceID())
	require.Equal(t, "https://x/y.ics", ICSConfig{URL: "https://x/y.ics"}.SourceID())
}
