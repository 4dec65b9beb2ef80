package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"courtbook/internal/models"
)

// Catalog is the read-mostly set of courts. Replace swaps the whole set at once.
type Catalog struct {
	mu     sync.RWMutex
	courts map[string]Court
	order  []string
}

// New builds a catalog; court ids must be unique.
func New(courts []Court) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(courts); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps in a new court set, keeping the old one if the new one is invalid.
func (c *Catalog) Replace(courts []Court) error {
	byID := make(map[string]Court, len(courts))
	order := make([]string, 0, len(courts))
	for _, court := range courts {
		if _, dup := byID[court.ID]; dup {
			return fmt.Errorf("duplicate court id %q", court.ID)
		}
		byID[court.ID] = court
		order = append(order, court.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.courts = byID
	c.order = order
	return nil
}

// Get returns a court by id.
func (c *Catalog) Get(courtID string) (Court, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	court, ok := c.courts[courtID]
	if !ok {
		return Court{}, &models.NotFoundError{Kind: "court", ID: courtID}
	}
	return court, nil
}

// PriceForSlot returns the hourly rate for court at date and hour.
func (c *Catalog) PriceForSlot(court Court, date models.Date, hour int) float64 {
	return court.RateFor(date, hour)
}

// List returns courts in catalog order.
func (c *Catalog) List() []Court {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Court, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.courts[id])
	}
	return out
}

// BySport matches the sport case-insensitively.
func (c *Catalog) BySport(sport string) []Court {
	return c.filter(func(court Court) bool {
		return strings.EqualFold(court.Sport, sport)
	})
}

func (c *Catalog) Featured() []Court {
	return c.filter(func(court Court) bool { return court.Featured })
}

// PriceRange returns the lowest and highest weekday/weekend rate in the catalog.
func (c *Catalog) PriceRange() (low, high float64) {
	courts := c.List()
	if len(courts) == 0 {
		return 0, 0
	}
	low, high = math.Inf(1), math.Inf(-1)
	for _, court := range courts {
		low = math.Min(low, math.Min(court.WeekdayRate, court.WeekendRate))
		high = math.Max(high, math.Max(court.WeekdayRate, court.WeekendRate))
	}
	return low, high
}

// Sports returns the distinct sports offered, sorted.
func (c *Catalog) Sports() []string {
	seen := make(map[string]bool)
	var out []string
	for _, court := range c.List() {
		if !seen[court.Sport] {
			seen[court.Sport] = true
			out = append(out, court.Sport)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) filter(keep func(Court) bool) []Court {
	var out []Court
	for _, court := range c.List() {
		if keep(court) {
			out = append(out, court)
		}
	}
	return out
}
