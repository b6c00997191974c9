package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fbcal/internal/model"
)

// ICSConfig describes a single legacy ICS busy source. Only consulted when
// no feed URL is configured.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
}

// WorkingHoursConfig is one weekly working-hours rule for the legacy ICS
// path. Day uses ISO numbering (Monday=1 .. Sunday=7); Start and End are
// "HH:mm" owner-local clock times.
type WorkingHoursConfig struct {
	Day   int    `yaml:"day" json:"day"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// FeedURL is the availability feed endpoint. When set, the feed is the
	// sole source of schedule context and busy intervals; the ICS sources
	// below are ignored.
	FeedURL string `yaml:"feed_url" json:"feed_url"`

	// Timezone is the owner's IANA timezone, used only by the legacy ICS
	// path. The feed carries its own.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStartDay is the ISO weekday (Monday=1 .. Sunday=7) that starts
	// each displayed week on the legacy ICS path.
	WeekStartDay int `yaml:"week_start_day" json:"week_start_day"`

	// ViewTimezone is the default viewer timezone when a request does not
	// pick one.
	ViewTimezone string `yaml:"view_timezone" json:"view_timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/5 * * * *")
	// driving periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of days covered by the legacy ICS window,
	// starting today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// GridStartHour / GridEndHour bound the hour grid when no working-hours
	// rules narrow it further.
	GridStartHour int `yaml:"grid_start_hour" json:"grid_start_hour"`
	GridEndHour   int `yaml:"grid_end_hour" json:"grid_end_hour"`

	// CellHeight is the pixel height of one hour cell, used for busy block
	// geometry.
	CellHeight int `yaml:"cell_height" json:"cell_height"`

	// CacheDir holds the conditional-GET response cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of legacy busy sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Weekly is the legacy working-hours schedule.
	Weekly []WorkingHoursConfig `yaml:"weekly" json:"weekly"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Timezone:      "Etc/UTC",
		WeekStartDay:  1,
		ViewTimezone:  "America/New_York",
		RefreshCron:   "*/5 * * * *",
		HorizonDays:   28,
		GridStartHour: 8,
		GridEndHour:   18,
		CellHeight:    48,
		CacheDir:      "./var/feed-cache",
		ICS:           []ICSConfig{},
		Weekly:        []WorkingHoursConfig{},
	}
}

// Normalize fills in missing or out-of-range values so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Etc/UTC"
	}
	if c.WeekStartDay < 1 || c.WeekStartDay > 7 {
		c.WeekStartDay = 1
	}
	if !model.IsSupportedViewZone(c.ViewTimezone) {
		c.ViewTimezone = "America/New_York"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/5 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 28
	}
	if c.GridStartHour < 0 || c.GridStartHour > 23 {
		c.GridStartHour = 8
	}
	if c.GridEndHour <= c.GridStartHour || c.GridEndHour > 24 {
		c.GridEndHour = 18
		if c.GridEndHour <= c.GridStartHour {
			c.GridEndHour = 24
		}
	}
	if c.CellHeight <= 0 {
		c.CellHeight = 48
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/feed-cache"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Weekly == nil {
		c.Weekly = []WorkingHoursConfig{}
	}
}

// WeeklyRules converts the configured schedule into the wire form used by
// the schedule package. Validation happens downstream; this is a plain
// field mapping.
func (c *Config) WeeklyRules() []model.WorkingHoursRule {
	out := make([]model.WorkingHoursRule, 0, len(c.Weekly))
	for _, w := range c.Weekly {
		out = append(out, model.WorkingHoursRule{
			Weekday: w.Day,
			Start:   w.Start,
			End:     w.End,
		})
	}
	return out
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: the default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename in the same
// directory) with 0600 permissions, creating the parent directory if
// needed.
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

	tmp, err := os.CreateTemp(dir, ".fbcal-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
