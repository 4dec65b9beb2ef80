// Package catalog holds court reference data and the pricing rules derived from it.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"courtbook/internal/models"
)

// PeakWindow is an hour range [Start, End) where Rate replaces the day rate.
type PeakWindow struct {
	Start int
	End   int
	Rate  float64
}

// Contains reports whether hour falls inside the window.
func (p PeakWindow) Contains(hour int) bool {
	return hour >= p.Start && hour < p.End
}

// Court is an immutable court record. Build it with NewCourt.
type Court struct {
	ID          string
	Name        string
	Sport       string
	Location    string
	WeekdayRate float64
	WeekendRate float64
	Peak        *PeakWindow
	OpenHour    int
	CloseHour   int
	Services    []models.AdditionalService
	Featured    bool
}

// CourtParams is the raw input to NewCourt.
type CourtParams struct {
	ID          string
	Name        string
	Sport       string
	Location    string
	WeekdayRate float64
	WeekendRate float64
	Peak        *PeakWindow
	OpenHour    int
	CloseHour   int
	Services    []models.AdditionalService
	Featured    bool
}

// NewCourt validates p and returns the court, or every invariant p breaks.
func NewCourt(p CourtParams) (Court, error) {
	var problems []string

	if strings.TrimSpace(p.ID) == "" {
		problems = append(problems, "id is required")
	}
	if p.WeekdayRate <= 0 || p.WeekendRate <= 0 {
		problems = append(problems, "rates must be greater than 0")
	}
	if p.OpenHour < 0 || p.CloseHour > 24 || p.OpenHour >= p.CloseHour {
		problems = append(problems, fmt.Sprintf("open hour %d must be before close hour %d", p.OpenHour, p.CloseHour))
	}
	if p.Peak != nil {
		if p.Peak.Rate <= 0 {
			problems = append(problems, "peak rate must be greater than 0")
		}
		if p.Peak.Start < p.OpenHour || p.Peak.Start >= p.Peak.End || p.Peak.End > p.CloseHour {
			problems = append(problems, fmt.Sprintf("peak window %d-%d must lie within opening hours %d-%d",
				p.Peak.Start, p.Peak.End, p.OpenHour, p.CloseHour))
		}
	}
	for _, s := range p.Services {
		if s.Price < 0 {
			problems = append(problems, fmt.Sprintf("service %q has a negative price", s.Name))
		}
	}

	if len(problems) > 0 {
		return Court{}, fmt.Errorf("court %q: %w", p.ID, errors.New(strings.Join(problems, "; ")))
	}

	c := Court(p)
	if p.Peak != nil {
		peak := *p.Peak
		c.Peak = &peak
	}
	c.Services = append([]models.AdditionalService(nil), p.Services...)
	return c, nil
}

// IsOpenAt reports whether a session may start at hour.
func (c Court) IsOpenAt(hour int) bool {
	return hour >= c.OpenHour && hour < c.CloseHour
}

// RateFor returns the hourly rate for a slot: peak beats weekend beats weekday.
func (c Court) RateFor(date models.Date, hour int) float64 {
	if c.Peak != nil && c.Peak.Contains(hour) {
		return c.Peak.Rate
	}
	if date.IsWeekend() {
		return c.WeekendRate
	}
	return c.WeekdayRate
}
