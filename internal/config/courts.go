package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"courtbook/internal/models"
)

// CourtConfig represents a single court entry of courts.yaml.
type CourtConfig struct {
	ID       string                     `yaml:"id"`
	Name     string                     `yaml:"name"`
	Sport    string                     `yaml:"sport"`
	Location string                     `yaml:"location"`
	Featured bool                       `yaml:"featured"`
	Rates    RatesConfig                `yaml:"rates"`
	Peak     *PeakConfig                `yaml:"peak,omitempty"`
	Hours    *HoursConfig               `yaml:"hours,omitempty"`
	Services []models.AdditionalService `yaml:"services"`
}

type RatesConfig struct {
	Weekday float64 `yaml:"weekday"`
	Weekend float64 `yaml:"weekend"`
}

// PeakConfig is a peak pricing window, e.g. 18:00-20:00.
type PeakConfig struct {
	Start string  `yaml:"start"`
	End   string  `yaml:"end"`
	Rate  float64 `yaml:"rate"`
}

type HoursConfig struct {
	Open  string `yaml:"open"`  // "06:00"
	Close string `yaml:"close"` // "22:00"
}

// CourtsDefaults is applied to courts that leave a field out.
type CourtsDefaults struct {
	Hours    *HoursConfig               `yaml:"hours"`
	Services []models.AdditionalService `yaml:"services"`
}

// CourtsConfig is the root of courts.yaml.
type CourtsConfig struct {
	Courts   []CourtConfig  `yaml:"courts"`
	Defaults CourtsDefaults `yaml:"defaults"`
}

// LoadCourtsConfig loads and validates the courts catalog from YAML.
func LoadCourtsConfig(path string) (*CourtsConfig, error) {
	if path == "" {
		path = "configs/courts.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read courts config: %w", err)
	}

	var cfg CourtsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse courts config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate courts config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the shape of the file. Pricing invariants are enforced by the catalog.
func (c *CourtsConfig) Validate() error {
	if len(c.Courts) == 0 {
		return fmt.Errorf("no courts defined")
	}

	ids := make(map[string]bool)
	for i, court := range c.Courts {
		if court.ID == "" {
			return fmt.Errorf("court[%d]: id is required", i)
		}
		if ids[court.ID] {
			return fmt.Errorf("court[%d]: duplicate id '%s'", i, court.ID)
		}
		ids[court.ID] = true

		if court.Name == "" {
			return fmt.Errorf("court[%d]: name is required", i)
		}
		if court.Hours == nil {
			return fmt.Errorf("court[%d]: hours are required", i)
		}
		if _, _, err := court.OpeningHours(); err != nil {
			return fmt.Errorf("court[%d].hours: %w", i, err)
		}
		if court.Peak != nil {
			if _, _, err := court.PeakHours(); err != nil {
				return fmt.Errorf("court[%d].peak: %w", i, err)
			}
		}
	}

	return nil
}

func (c *CourtsConfig) applyDefaults() {
	for i := range c.Courts {
		if c.Courts[i].Hours == nil && c.Defaults.Hours != nil {
			h := *c.Defaults.Hours
			c.Courts[i].Hours = &h
		}
		if len(c.Courts[i].Services) == 0 && len(c.Defaults.Services) > 0 {
			c.Courts[i].Services = append([]models.AdditionalService(nil), c.Defaults.Services...)
		}
	}
}

// OpeningHours returns the open and close hour.
func (c *CourtConfig) OpeningHours() (open, closing int, err error) {
	if c.Hours == nil {
		return 0, 0, fmt.Errorf("hours are not set")
	}
	if open, err = parseHour(c.Hours.Open); err != nil {
		return 0, 0, fmt.Errorf("open: %w", err)
	}
	if closing, err = parseHour(c.Hours.Close); err != nil {
		return 0, 0, fmt.Errorf("close: %w", err)
	}
	return open, closing, nil
}

// PeakHours returns the peak window bounds.
func (c *CourtConfig) PeakHours() (start, end int, err error) {
	if c.Peak == nil {
		return 0, 0, fmt.Errorf("peak is not set")
	}
	if start, err = parseHour(c.Peak.Start); err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	if end, err = parseHour(c.Peak.End); err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// parseHour accepts "HH:00" with HH in 00-24.
func parseHour(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || m != "00" || len(h) != 2 {
		return 0, fmt.Errorf("invalid time '%s', expected HH:00", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour '%s'", s)
	}
	return hour, nil
}

// String returns a summary of the configuration.
func (c *CourtsConfig) String() string {
	featured := 0
	for _, court := range c.Courts {
		if court.Featured {
			featured++
		}
	}
	return fmt.Sprintf("CourtsConfig: %d courts (%d featured)", len(c.Courts), featured)
}
