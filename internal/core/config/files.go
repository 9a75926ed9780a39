package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// scheduleFile is the document format of a file listed in schedule_files.
type scheduleFile struct {
	Schedules []Schedule `yaml:"schedules"`
}

// loadScheduleFiles reads YAML schedule files and merges them in declaration
// order. Later files override earlier files for the same schedule name.
func loadScheduleFiles(configDir string, files []string) ([]Schedule, error) {
	var merged []Schedule

	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schedule file %q: %w", file, err)
		}

		var doc scheduleFile
		if err := decodeStrict(data, &doc); err != nil {
			return nil, fmt.Errorf("parse schedule file %q: %w", file, err)
		}

		merged = mergeSchedules(merged, doc.Schedules)
	}

	return merged, nil
}

// mergeSchedules appends src to dst. A schedule in src whose name already
// exists in dst replaces it in place.
func mergeSchedules(dst, src []Schedule) []Schedule {
	for _, s := range src {
		replaced := false
		for i := range dst {
			if dst[i].Name == s.Name {
				dst[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			dst = append(dst, s)
		}
	}
	return dst
}
