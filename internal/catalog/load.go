package catalog

import (
	"fmt"

	"courtbook/internal/config"
)

// FromConfig builds validated courts from a loaded courts.yaml.
func FromConfig(cfg *config.CourtsConfig) ([]Court, error) {
	courts := make([]Court, 0, len(cfg.Courts))
	for i := range cfg.Courts {
		cc := &cfg.Courts[i]
		open, closing, err := cc.OpeningHours()
		if err != nil {
			return nil, fmt.Errorf("court %q: %w", cc.ID, err)
		}

		params := CourtParams{
			ID:          cc.ID,
			Name:        cc.Name,
			Sport:       cc.Sport,
			Location:    cc.Location,
			WeekdayRate: cc.Rates.Weekday,
			WeekendRate: cc.Rates.Weekend,
			OpenHour:    open,
			CloseHour:   closing,
			Services:    cc.Services,
			Featured:    cc.Featured,
		}
		if cc.Peak != nil {
			start, end, err := cc.PeakHours()
			if err != nil {
				return nil, fmt.Errorf("court %q: %w", cc.ID, err)
			}
			params.Peak = &PeakWindow{Start: start, End: end, Rate: cc.Peak.Rate}
		}

		court, err := NewCourt(params)
		if err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}
	return courts, nil
}
