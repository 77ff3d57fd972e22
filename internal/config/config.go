package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// SIGConfig is one entry of the ordered match table: a title/name prefix and
// everything needed to act on items matching it. Table order matters; when
// two prefixes overlap, the first entry in file order wins.
type SIGConfig struct {
	// Prefix is the match key, e.g. "[X] sig-foo". The file mover matches it
	// as a substring of the item name; the calendar watcher requires the
	// occurrence title to start with it.
	Prefix string `yaml:"prefix" json:"prefix"`

	// ChannelName is a human-friendly label for the destination channel.
	ChannelName string `yaml:"channel_name" json:"channel_name"`

	// ChannelWebhook is the incoming-webhook URL for the SIG's channel.
	ChannelWebhook string `yaml:"channel_webhook" json:"channel_webhook"`

	// FolderID is the destination folder for moved artifacts.
	FolderID string `yaml:"folder_id" json:"folder_id"`

	// UploadEnabled triggers a video-hosting upload of recording items
	// before the move.
	UploadEnabled bool `yaml:"upload_enabled" json:"upload_enabled"`

	// UploadPlaylistID, if set, is the hosting-side playlist uploaded
	// recordings are added to.
	UploadPlaylistID string `yaml:"upload_playlist_id" json:"upload_playlist_id"`
}

// RoleConfig names one required artifact role and the marker substring that
// identifies items filling it.
type RoleConfig struct {
	Name   string `yaml:"name" json:"name"`
	Marker string `yaml:"marker" json:"marker"`
}

// CalendarConfig describes a single ICS subscription source.
type CalendarConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the status server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone meeting times are announced in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Debug reroutes every would-be production notification to the error
	// webhook with a visible prefix instead of suppressing the action.
	Debug bool `yaml:"debug" json:"debug"`

	// ErrorWebhook receives failure reports and debug-rerouted messages.
	ErrorWebhook string `yaml:"error_webhook" json:"error_webhook"`

	// CommunityPrefix names the SIG entry whose channel is the org-wide
	// catch-all. Calendar announcements for every other SIG fan out to
	// their own channel plus this one.
	CommunityPrefix string `yaml:"community_prefix" json:"community_prefix"`

	// SIGs is the ordered match table.
	SIGs []SIGConfig `yaml:"sigs" json:"sigs"`

	// Calendars is the list of subscribed ICS sources.
	Calendars []CalendarConfig `yaml:"calendars" json:"calendars"`

	// CalendarCron / MoverCron are cron-style schedules for the two polling
	// jobs (e.g. "@every 1m"). MaintenanceCron fires the daily fixed-horizon
	// store maintenance at a fixed local time.
	CalendarCron    string `yaml:"calendar_cron" json:"calendar_cron"`
	MoverCron       string `yaml:"mover_cron" json:"mover_cron"`
	MaintenanceCron string `yaml:"maintenance_cron" json:"maintenance_cron"`

	// ToleranceSeconds is the half-width of the "starting now" window around
	// an occurrence's scheduled start.
	ToleranceSeconds int `yaml:"tolerance_seconds" json:"tolerance_seconds"`

	// FetchAheadSeconds bounds the calendar query window: occurrences are
	// fetched from now-tolerance to now+fetch_ahead. Must cover the
	// tolerance window with headroom for scheduler jitter.
	FetchAheadSeconds int `yaml:"fetch_ahead_seconds" json:"fetch_ahead_seconds"`

	// CleanupEveryTicks controls how often the calendar job runs the
	// adaptive store cleanup (every Nth tick).
	CleanupEveryTicks int `yaml:"cleanup_every_ticks" json:"cleanup_every_ticks"`

	// StorePath is the SQLite file backing the bounded property store.
	// StoreQuota is the hard slot quota, shared with all other persisted
	// state in the store.
	StorePath  string `yaml:"store_path" json:"store_path"`
	StoreQuota int    `yaml:"store_quota" json:"store_quota"`

	// CacheDir is the base directory for the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// DriveRoot is the root directory of the local drive adapter; the inbox
	// is DriveRoot/inbox and destination folders are DriveRoot/<folder_id>.
	DriveRoot string `yaml:"drive_root" json:"drive_root"`

	// RequiredRoles are the artifact roles a regular file group must cover
	// before it is acted on. AuxiliaryMarker identifies items (e.g. chat
	// transcripts) that act alone without the role check.
	RequiredRoles   []RoleConfig `yaml:"required_roles" json:"required_roles"`
	AuxiliaryMarker string       `yaml:"auxiliary_marker" json:"auxiliary_marker"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all status
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "UTC",
		Debug:             false,
		CalendarCron:      "@every 1m",
		MoverCron:         "@every 5m",
		MaintenanceCron:   "30 3 * * *",
		ToleranceSeconds:  90,
		FetchAheadSeconds: 180,
		CleanupEveryTicks: 10,
		StorePath:         "./var/sigherald.db",
		StoreQuota:        50,
		CacheDir:          "./var/ics-cache",
		DriveRoot:         "./var/drive",
		RequiredRoles: []RoleConfig{
			{Name: "notes", Marker: "Notes"},
			{Name: "recording", Marker: "Recording"},
		},
		AuxiliaryMarker: "Chat",
		SIGs:            []SIGConfig{},
		Calendars:       []CalendarConfig{},
		BasicAuth:       nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.CalendarCron == "" {
		c.CalendarCron = "@every 1m"
	}
	if c.MoverCron == "" {
		c.MoverCron = "@every 5m"
	}
	if c.MaintenanceCron == "" {
		c.MaintenanceCron = "30 3 * * *"
	}
	if c.ToleranceSeconds <= 0 {
		c.ToleranceSeconds = 90
	}
	if c.FetchAheadSeconds < c.ToleranceSeconds {
		// The fetch window must be a superset of the tolerance window.
		c.FetchAheadSeconds = c.ToleranceSeconds * 2
	}
	if c.CleanupEveryTicks <= 0 {
		c.CleanupEveryTicks = 10
	}
	if c.StorePath == "" {
		c.StorePath = "./var/sigherald.db"
	}
	if c.StoreQuota <= 0 {
		c.StoreQuota = 50
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.DriveRoot == "" {
		c.DriveRoot = "./var/drive"
	}
	if len(c.RequiredRoles) == 0 {
		c.RequiredRoles = []RoleConfig{
			{Name: "notes", Marker: "Notes"},
			{Name: "recording", Marker: "Recording"},
		}
	}
	if c.AuxiliaryMarker == "" {
		c.AuxiliaryMarker = "Chat"
	}
	if c.SIGs == nil {
		c.SIGs = []SIGConfig{}
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidateCommon checks the fields every job needs before any side effect.
func (c *Config) ValidateCommon() error {
	if c.ErrorWebhook == "" {
		return errors.New("config: error_webhook is required")
	}
	if len(c.SIGs) == 0 {
		return errors.New("config: at least one sigs entry is required")
	}
	for i, s := range c.SIGs {
		if s.Prefix == "" {
			return fmt.Errorf("config: sigs[%d] has an empty prefix", i)
		}
		if s.ChannelWebhook == "" {
			return fmt.Errorf("config: sigs[%d] (%s) has no channel_webhook", i, s.Prefix)
		}
	}
	return nil
}

// ValidateCalendar checks the calendar job's required fields.
func (c *Config) ValidateCalendar() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	if len(c.Calendars) == 0 {
		return errors.New("config: at least one calendars entry is required")
	}
	if c.CommunityPrefix != "" && c.sigByPrefix(c.CommunityPrefix) == nil {
		return fmt.Errorf("config: community_prefix %q has no sigs entry", c.CommunityPrefix)
	}
	return nil
}

// ValidateMover checks the file-mover job's required fields.
func (c *Config) ValidateMover() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	for i, s := range c.SIGs {
		if s.FolderID == "" {
			return fmt.Errorf("config: sigs[%d] (%s) has no folder_id", i, s.Prefix)
		}
	}
	return nil
}

func (c *Config) sigByPrefix(prefix string) *SIGConfig {
	for i := range c.SIGs {
		if c.SIGs[i].Prefix == prefix {
			return &c.SIGs[i]
		}
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
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
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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
	tmp, err := os.CreateTemp(dir, ".sigherald-config-*.tmp")
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

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
