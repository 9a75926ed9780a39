package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/robfig/cron/v3"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including cron spec parsing and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config
// file check). This calls Validate() first for basic structural validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validateScheduleFiles(configPath),
		c.validateScheduleSpecs(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for _, s := range c.Schedules {
		sched, err := CronParser.Parse(s.Spec)
		if err != nil {
			continue
		}

		interval := scheduleInterval(sched)
		if s.Persist && interval < time.Minute {
			warnings = append(warnings, ValidationWarning{
				Category: "Schedules",
				Item:     s.Name,
				Message:  fmt.Sprintf("fires every %s, so the persistent notification is raised again right after every dismissal", interval),
			})
		}
		if !s.Persist && s.Duration > interval {
			warnings = append(warnings, ValidationWarning{
				Category: "Schedules",
				Item:     s.Name,
				Message:  fmt.Sprintf("duration %s exceeds the firing interval %s", s.Duration, interval),
			})
		}
	}

	if c.Toasts.ExitAnimation > 2*time.Second {
		warnings = append(warnings, ValidationWarning{
			Category: "Toasts",
			Item:     "exit_animation",
			Message:  "exit animations longer than 2s hold slots and delay queued notifications",
		})
	}

	return warnings
}

// scheduleInterval estimates the gap between two consecutive firings.
func scheduleInterval(s cron.Schedule) time.Duration {
	ref := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	first := s.Next(ref)
	return s.Next(first).Sub(first)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validateScheduleFiles(configPath string) error {
	if len(c.ScheduleFiles) == 0 {
		return nil
	}

	configDir := filepath.Dir(configPath)
	var errs criterio.FieldErrorsBuilder

	for i, file := range c.ScheduleFiles {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			errs = errs.Append(fmt.Sprintf("schedule_files[%d]", i), fmt.Errorf("file not found: %s", file))
		}
	}

	return errs.ToError()
}

// validateScheduleSpecs checks that every schedule spec parses.
func (c *Config) validateScheduleSpecs() error {
	var errs criterio.FieldErrorsBuilder
	for i, s := range c.Schedules {
		if _, err := CronParser.Parse(s.Spec); err != nil {
			errs = errs.Append(fmt.Sprintf("schedules[%d].spec", i), fmt.Errorf("invalid cron spec %q: %w", s.Spec, err))
		}
	}
	return errs.ToError()
}
