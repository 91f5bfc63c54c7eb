package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/datetime"
	cerrors "cloudeng.io/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"schedgrid/internal/schedule"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "UTC"
	defaultWeekStart    = "monday"
	defaultIntervals    = 7
	defaultEndDayHour   = 24
	defaultCellDuration = "30"
	defaultCurrentView  = "Week"
	defaultRefresh      = "0 0 * * *"
	defaultCacheDir     = "./cache/ics-cache"
	defaultLogLevel     = "info"
)

// ICSConfig describes a single ICS subscription whose events are shown in
// the view.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config describes one scheduler view and the service around it.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone the view is laid out in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// CurrentDate pins the view to a date (ISO format). Empty follows today.
	CurrentDate string `yaml:"current_date,omitempty" json:"current_date,omitempty"`

	// WeekStart is a weekday name or index, or "none" to start the view on
	// the current date itself.
	WeekStart string `yaml:"week_start" json:"week_start"`

	IntervalCount int      `yaml:"interval_count" json:"interval_count"`
	ExcludedDays  []string `yaml:"excluded_days,omitempty" json:"excluded_days,omitempty"`
	StartDayHour  int      `yaml:"start_day_hour" json:"start_day_hour"`
	EndDayHour    int      `yaml:"end_day_hour" json:"end_day_hour"`

	// CellDuration is either whole minutes ("30") or an ISO 8601 duration
	// ("PT30M").
	CellDuration string `yaml:"cell_duration" json:"cell_duration"`

	Views       []string `yaml:"views" json:"views"`
	CurrentView string   `yaml:"current_view" json:"current_view"`

	// RefreshCron is the cron schedule on which the served view is
	// re-anchored to the current date.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	ICS      []ICSConfig `yaml:"ics" json:"ics"`
	CacheDir string      `yaml:"cache_dir" json:"cache_dir"`
	LogLevel string      `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration: a Monday-aligned
// week of 30 minute cells.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so that partially
// filled files still describe a usable view.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.WeekStart == "" {
		c.WeekStart = defaultWeekStart
	}
	if c.IntervalCount <= 0 {
		c.IntervalCount = defaultIntervals
	}
	// An end hour of 0 can never show anything; treat it as unset.
	if c.EndDayHour == 0 {
		c.EndDayHour = defaultEndDayHour
	}
	if strings.TrimSpace(c.CellDuration) == "" {
		c.CellDuration = defaultCellDuration
	}
	if c.CurrentView == "" {
		c.CurrentView = defaultCurrentView
	}
	if c.Views == nil {
		c.Views = []string{"Day", "Week", "Month"}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate reports every problem in c at once. Each reported error wraps
// schedule.ErrInvalidConfiguration or schedule.ErrInvalidDate.
func (c *Config) Validate() error {
	errs := &cerrors.M{}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs.Append(fmt.Errorf("%w: timezone %q: %v", schedule.ErrInvalidConfiguration, c.Timezone, err))
		loc = time.UTC
	}
	if c.CurrentDate != "" {
		if _, err := schedule.ParseDate(c.CurrentDate, loc); err != nil {
			errs.Append(err)
		}
	}
	if _, err := schedule.ParseWeekStart(c.WeekStart); err != nil {
		errs.Append(err)
	}
	if _, err := schedule.ParseWeekdays(c.ExcludedDays); err != nil {
		errs.Append(err)
	}
	if c.IntervalCount <= 0 || c.IntervalCount > schedule.MaxDayCount {
		errs.Append(fmt.Errorf("%w: interval_count must be in 1-%d, got %d", schedule.ErrInvalidConfiguration, schedule.MaxDayCount, c.IntervalCount))
	}
	for name, h := range map[string]int{"start_day_hour": c.StartDayHour, "end_day_hour": c.EndDayHour} {
		if h < 0 || h > 24 {
			errs.Append(fmt.Errorf("%w: %s %d is outside 0-24", schedule.ErrInvalidConfiguration, name, h))
		}
	}
	if c.StartDayHour >= c.EndDayHour {
		errs.Append(fmt.Errorf("%w: start_day_hour %d must be before end_day_hour %d", schedule.ErrInvalidConfiguration, c.StartDayHour, c.EndDayHour))
	}
	if _, err := c.CellMinutes(); err != nil {
		errs.Append(err)
	}
	for i, v := range c.Views {
		if strings.TrimSpace(v) == "" {
			errs.Append(fmt.Errorf("%w: views[%d] is empty", schedule.ErrInvalidConfiguration, i))
		}
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs.Append(fmt.Errorf("%w: refresh %q: %v", schedule.ErrInvalidConfiguration, c.RefreshCron, err))
	}
	for i, src := range c.ICS {
		if src.URL == "" {
			errs.Append(fmt.Errorf("%w: ics[%d] has no url", schedule.ErrInvalidConfiguration, i))
		}
	}
	return errs.Err()
}

// CellMinutes returns CellDuration in minutes.
func (c *Config) CellMinutes() (int, error) {
	v := strings.TrimSpace(c.CellDuration)
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: cell_duration must be positive, got %d", schedule.ErrInvalidConfiguration, n)
		}
		return n, nil
	}
	d, err := datetime.ParseISO8601Period(v)
	if err != nil {
		return 0, fmt.Errorf("%w: cell_duration %q: %v", schedule.ErrInvalidConfiguration, v, err)
	}
	if d <= 0 || d%time.Minute != 0 {
		return 0, fmt.Errorf("%w: cell_duration %q is not a positive whole number of minutes", schedule.ErrInvalidConfiguration, v)
	}
	return int(d / time.Minute), nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", schedule.ErrInvalidConfiguration, c.Timezone, err)
	}
	return loc, nil
}

// Params converts c into engine parameters. now supplies the current date
// when CurrentDate is empty.
func (c *Config) Params(now time.Time) (schedule.ViewParams, error) {
	loc, err := c.Location()
	if err != nil {
		return schedule.ViewParams{}, err
	}
	current := now.In(loc)
	if c.CurrentDate != "" {
		if current, err = schedule.ParseDate(c.CurrentDate, loc); err != nil {
			return schedule.ViewParams{}, err
		}
	}
	first, err := schedule.ParseWeekStart(c.WeekStart)
	if err != nil {
		return schedule.ViewParams{}, err
	}
	excluded, err := schedule.ParseWeekdays(c.ExcludedDays)
	if err != nil {
		return schedule.ViewParams{}, err
	}
	minutes, err := c.CellMinutes()
	if err != nil {
		return schedule.ViewParams{}, err
	}
	return schedule.ViewParams{
		CurrentDate:    current,
		FirstDayOfWeek: first,
		IntervalCount:  c.IntervalCount,
		ExcludedDays:   excluded,
		StartDayHour:   c.StartDayHour,
		EndDayHour:     c.EndDayHour,
		CellDuration:   minutes,
	}, nil
}

// Load loads configuration from the given YAML path.
//
// A missing file is created with the defaults (0600, parent directory
// 0700) and the defaults are returned. An existing file is unmarshalled,
// normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file in the same directory
// and a rename. The final file is 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
