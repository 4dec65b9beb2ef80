package booking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"courtbook/internal/models"
)

// Statistics summarizes the whole booking collection.
type Statistics struct {
	Total          int                   `json:"total"`
	Today          int                   `json:"today"`
	ThisMonth      int                   `json:"thisMonth"`
	ByStatus       map[models.Status]int `json:"byStatus"`
	TotalRevenue   float64               `json:"totalRevenue"`
	AverageRevenue float64               `json:"averageBookingValue"`
}

// SlotCount is how many bookings started at Time.
type SlotCount struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// CourtReport is the per-court summary shown to court administrators.
type CourtReport struct {
	CourtID       string      `json:"courtId"`
	CourtName     string      `json:"courtName"`
	ReportDate    models.Date `json:"reportDate"`
	TotalBookings int         `json:"totalBookings"`
	Revenue       float64     `json:"revenue"`
	BookedHours   int         `json:"bookedHours"`
	OccupancyRate float64     `json:"occupancyRate"`
}

// occupancyWindowDays is how far back CourtReport looks for occupancy.
const occupancyWindowDays = 30

func (e *Engine) filter(ctx context.Context, keep func(*models.Booking) bool) ([]models.Booking, error) {
	all, err := e.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	out := []models.Booking{}
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// ByCourt returns the court's bookings, limited to date when it is non-nil.
func (e *Engine) ByCourt(ctx context.Context, courtID string, date *models.Date) ([]models.Booking, error) {
	return e.filter(ctx, func(b *models.Booking) bool {
		return b.CourtID == courtID && (date == nil || b.Date.Equal(*date))
	})
}

func (e *Engine) ByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return e.filter(ctx, func(b *models.Booking) bool { return b.UserID == userID })
}

// ByDateRange returns bookings dated within [start, end].
func (e *Engine) ByDateRange(ctx context.Context, start, end models.Date) ([]models.Booking, error) {
	return e.filter(ctx, func(b *models.Booking) bool {
		return !b.Date.Before(start) && !b.Date.After(end)
	})
}

func (e *Engine) ByStatus(ctx context.Context, status models.Status) ([]models.Booking, error) {
	return e.filter(ctx, func(b *models.Booking) bool { return b.Status == status })
}

func earns(s models.Status) bool {
	return s == models.StatusConfirmed || s == models.StatusCompleted
}

// Statistics counts bookings and sums revenue over confirmed and completed ones.
func (e *Engine) Statistics(ctx context.Context) (Statistics, error) {
	all, err := e.repo.All(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("statistics: %w", err)
	}

	today := e.today()
	stats := Statistics{Total: len(all), ByStatus: make(map[models.Status]int, len(models.AllStatuses))}
	for _, s := range models.AllStatuses {
		stats.ByStatus[s] = 0
	}

	var revenue float64
	earning := 0
	for i := range all {
		b := &all[i]
		if b.Date.Equal(today) {
			stats.Today++
		}
		if b.Date.Month() == today.Month() {
			stats.ThisMonth++
		}
		stats.ByStatus[b.Status]++
		if earns(b.Status) {
			revenue += b.Pricing.Total
			earning++
		}
	}

	stats.TotalRevenue = models.Round2(revenue)
	if earning > 0 {
		stats.AverageRevenue = models.Round2(revenue / float64(earning))
	}
	return stats, nil
}

// PopularTimeSlots ranks start times by booking count, most booked first.
// Ties keep the order in which the times first appear.
func (e *Engine) PopularTimeSlots(ctx context.Context) ([]SlotCount, error) {
	all, err := e.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("popular time slots: %w", err)
	}

	index := make(map[string]int)
	counts := []SlotCount{}
	for i := range all {
		t := all[i].Time
		if j, ok := index[t]; ok {
			counts[j].Count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, SlotCount{Time: t, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts, nil
}

// CourtReport summarizes a court: bookings, revenue from confirmed and
// completed bookings, and occupancy over the last 30 days as a percentage of
// its opening hours.
func (e *Engine) CourtReport(ctx context.Context, courtID string) (CourtReport, error) {
	court, err := e.courts.Get(courtID)
	if err != nil {
		return CourtReport{}, err
	}
	bookings, err := e.ByCourt(ctx, courtID, nil)
	if err != nil {
		return CourtReport{}, err
	}

	today := e.today()
	from := today.AddDays(-occupancyWindowDays)
	report := CourtReport{
		CourtID:       court.ID,
		CourtName:     court.Name,
		ReportDate:    today,
		TotalBookings: len(bookings),
	}

	var revenue float64
	for i := range bookings {
		b := &bookings[i]
		if earns(b.Status) {
			revenue += b.Pricing.Total
		}
		if b.Status.IsActive() && !b.Date.Before(from) && !b.Date.After(today) {
			report.BookedHours += b.Duration
		}
	}
	report.Revenue = models.Round2(revenue)

	available := (court.CloseHour - court.OpenHour) * occupancyWindowDays
	if available > 0 {
		report.OccupancyRate = math.Round(float64(report.BookedHours)/float64(available)*1000) / 10
	}
	return report, nil
}
