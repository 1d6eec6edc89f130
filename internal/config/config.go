package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// BlackoutSource is an ICS calendar whose events block proposal dates
// (holidays, vacations, conference travel).
type BlackoutSource struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (b BlackoutSource) SourceID() string {
	switch {
	case b.ID != "":
		return b.ID
	case b.Name != "":
		return b.Name
	default:
		return b.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PreviewConfig controls the headless browser screenshot of the blog page.
type PreviewConfig struct {
	// URL to capture. Empty means the file:// URL of TargetHTML.
	URL        string `yaml:"url" json:"url"`
	OutputPath string `yaml:"output" json:"output"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// SchedulePath is the JSON schedule document.
	SchedulePath string `yaml:"schedule_path" json:"schedule_path"`
	// PostsDir holds rendered posts named {day}-{date}{ext}.
	PostsDir string `yaml:"posts_dir" json:"posts_dir"`
	// PostExtensions lists accepted post file extensions.
	PostExtensions []string `yaml:"post_extensions" json:"post_extensions"`
	// TargetHTML is the static page that receives the coming-soon section.
	TargetHTML string `yaml:"target_html" json:"target_html"`

	// Timezone is the IANA zone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`
	// WindowDays is the inclusive coming-soon look-ahead.
	WindowDays int `yaml:"window_days" json:"window_days"`
	// MaxItems caps the coming-soon list.
	MaxItems int `yaml:"max_items" json:"max_items"`

	// RefreshCron is the cron schedule for serve mode (e.g. "0 6 * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`
	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Blackout calendars consulted by the proposer.
	Blackout []BlackoutSource `yaml:"blackout" json:"blackout"`
	// CacheDir stores fetched calendars.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// ICSDomain is the right-hand side of exported event UIDs.
	ICSDomain string `yaml:"ics_domain" json:"ics_domain"`

	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration laid out for a
// website repository root.
func DefaultConfig() *Config {
	return &Config{
		SchedulePath:   "blog-schedule.json",
		PostsDir:       "website/blog-posts",
		PostExtensions: []string{".html"},
		TargetHTML:     "website/blog.html",
		Timezone:       "UTC",
		WindowDays:     14,
		MaxItems:       10,
		RefreshCron:    "0 6 * * *",
		Listen:         "127.0.0.1:8080",
		Blackout:       []BlackoutSource{},
		CacheDir:       ".cache/blogsched",
		ICSDomain:      "blogsched.local",
		Preview: PreviewConfig{
			OutputPath: ".cache/blogsched/preview.png",
			Width:      1280,
			Height:     2000,
		},
		LogLevel: "info",
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.SchedulePath == "" {
		c.SchedulePath = d.SchedulePath
	}
	if c.PostsDir == "" {
		c.PostsDir = d.PostsDir
	}
	if len(c.PostExtensions) == 0 {
		c.PostExtensions = d.PostExtensions
	}
	if c.TargetHTML == "" {
		c.TargetHTML = d.TargetHTML
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Blackout == nil {
		c.Blackout = []BlackoutSource{}
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.ICSDomain == "" {
		c.ICSDomain = d.ICSDomain
	}
	if c.Preview.OutputPath == "" {
		c.Preview.OutputPath = d.Preview.OutputPath
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = d.Preview.Width
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = d.Preview.Height
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("refresh %q: %w", c.RefreshCron, err)
	}
	for i, b := range c.Blackout {
		if b.URL == "" {
			return fmt.Errorf("blackout[%d]: url is empty", i)
		}
	}
	return nil
}

// Location resolves Timezone. Validate has already rejected bad names, so a
// failure here falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Resolve makes relative paths absolute against base (normally the config
// file's directory).
func (c *Config) Resolve(base string) {
	for _, p := range []*string{&c.SchedulePath, &c.PostsDir, &c.TargetHTML, &c.CacheDir, &c.Preview.OutputPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there (0600)
//     and returned.
//   - Otherwise the YAML is decoded, normalized and validated.
//   - Relative paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	base := filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				cfg.Resolve(base)
				return cfg, err
			}
			cfg.Resolve(base)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Resolve(base)

	return &cfg, nil
}

// Save writes cfg as YAML atomically with 0600 permissions, creating the
// parent directory if needed.
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".blogsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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
