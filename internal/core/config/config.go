// Package config handles configuration loading and validation for toaster.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/internal/core/toast"
)

// CronParser parses schedule specs: standard five-field expressions plus
// descriptors such as @hourly and @every 30s.
var CronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds the application configuration.
type Config struct {
	Theme         string        `yaml:"theme"`
	Toasts        ToastConfig   `yaml:"toasts"`
	Schedules     []Schedule    `yaml:"schedules"`
	ScheduleFiles []string      `yaml:"schedule_files"`
	Metrics       MetricsConfig `yaml:"metrics"`
}

// ToastConfig controls how the dashboard presents notifications.
type ToastConfig struct {
	// Width is the rendered width of a toast in cells.
	Width int `yaml:"width"`
	// ExitAnimation is how long a dismissed toast stays on screen before
	// its slot is released.
	ExitAnimation time.Duration `yaml:"exit_animation"`
	// TickInterval is the redraw interval for progress bars and animations.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Schedule defines a notification produced on a cron schedule.
type Schedule struct {
	Name     string        `yaml:"name"`
	Spec     string        `yaml:"spec"`
	Type     string        `yaml:"type"`
	Message  string        `yaml:"message"`
	Duration time.Duration `yaml:"duration"`
	Persist  bool          `yaml:"persist"`
}

// Notification builds the toast this schedule produces when it fires.
func (s Schedule) Notification() toast.Notification {
	t, _ := toast.ParseType(s.Type)
	return toast.Notification{
		Type:     t,
		Message:  s.Message,
		Duration: s.Duration,
		Persist:  s.Persist,
	}
}

// MetricsConfig configures the prometheus endpoint. An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Theme: styles.DefaultTheme,
		Toasts: ToastConfig{
			Width:         50,
			ExitAnimation: 300 * time.Millisecond,
			TickInterval:  100 * time.Millisecond,
		},
		Schedules: []Schedule{},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := decodeStrict(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if len(cfg.ScheduleFiles) > 0 {
		extra, err := loadScheduleFiles(filepath.Dir(configPath), cfg.ScheduleFiles)
		if err != nil {
			return nil, err
		}
		cfg.Schedules = mergeSchedules(cfg.Schedules, extra)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// decodeStrict decodes YAML into v, rejecting keys v does not declare. An
// empty document leaves v untouched.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if c.Toasts.Width == 0 {
		c.Toasts.Width = defaults.Toasts.Width
	}
	if c.Toasts.ExitAnimation == 0 {
		c.Toasts.ExitAnimation = defaults.Toasts.ExitAnimation
	}
	if c.Toasts.TickInterval == 0 {
		c.Toasts.TickInterval = defaults.Toasts.TickInterval
	}
	for i := range c.Schedules {
		if c.Schedules[i].Type == "" {
			c.Schedules[i].Type = string(toast.TypeDefault)
		}
		if c.Schedules[i].Duration == 0 {
			c.Schedules[i].Duration = toast.DefaultDuration
		}
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if _, ok := styles.GetPalette(c.Theme); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", c.Theme, styles.ThemeNames())
	}

	if c.Toasts.Width < 20 {
		return fmt.Errorf("toasts.width must be at least 20")
	}
	if c.Toasts.ExitAnimation < 0 {
		return fmt.Errorf("toasts.exit_animation cannot be negative")
	}
	if c.Toasts.TickInterval <= 0 {
		return fmt.Errorf("toasts.tick_interval must be positive")
	}

	seen := make(map[string]bool, len(c.Schedules))
	for i, s := range c.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedules[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("schedules[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true

		if err := s.Validate(); err != nil {
			return fmt.Errorf("schedule %q: %w", s.Name, err)
		}
	}

	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}

	return nil
}

// Validate checks that a schedule definition is valid.
func (s *Schedule) Validate() error {
	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}
	if s.Message == "" {
		return fmt.Errorf("message is required")
	}
	if _, ok := toast.ParseType(s.Type); !ok {
		return fmt.Errorf("invalid type %q (available: %v)", s.Type, toast.Types())
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

// ScheduleNames returns the sorted names of all configured schedules.
func (c *Config) ScheduleNames() []string {
	names := make([]string, 0, len(c.Schedules))
	for _, s := range c.Schedules {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}
