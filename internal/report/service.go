// Package report exports court reports and booking listings to xlsx workbooks.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"courtbook/internal/booking"
	"courtbook/internal/catalog"
	"courtbook/internal/models"
)

// Source is the read side of the booking engine used for reports.
type Source interface {
	Statistics(ctx context.Context) (booking.Statistics, error)
	CourtReport(ctx context.Context, courtID string) (booking.CourtReport, error)
	ByDateRange(ctx context.Context, start, end models.Date) ([]models.Booking, error)
}

// Courts is the catalog view the report reads.
type Courts interface {
	List() []catalog.Court
	Sports() []string
	BySport(sport string) []catalog.Court
	Featured() []catalog.Court
	PriceRange() (low, high float64)
}

// Config controls where and how often workbooks are written.
type Config struct {
	Dir      string
	Interval time.Duration
	// BookingsWindowDays is how many days back the bookings sheet goes.
	BookingsWindowDays int
}

type Service struct {
	cfg    Config
	source Source
	courts Courts
	writer func() ExcelWriter
	now    func() time.Time
	logger *zerolog.Logger
}

func NewService(cfg Config, source Source, courts Courts, writerFactory func() ExcelWriter, logger *zerolog.Logger) *Service {
	if cfg.Dir == "" {
		cfg.Dir = "data/reports"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.BookingsWindowDays <= 0 {
		cfg.BookingsWindowDays = 30
	}
	if writerFactory == nil {
		writerFactory = NewExcelizeWriter
	}
	return &Service{
		cfg:    cfg,
		source: source,
		courts: courts,
		writer: writerFactory,
		now:    time.Now,
		logger: logger,
	}
}

// Start exports once, then on every interval until ctx is done.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.cfg.Interval).Str("dir", s.cfg.Dir).Msg("Report service started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if path, err := s.ExportNow(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Report export failed")
		} else {
			s.logger.Info().Str("path", path).Msg("Report exported")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Filename returns the workbook name for a report taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("courtbook_report_%s.xlsx", t.Format("2006-01-02"))
}

// ExportNow writes the workbook and returns its path.
func (s *Service) ExportNow(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	excel := s.writer()
	defer excel.Close()

	now := s.now()
	if err := s.writeSummary(ctx, excel); err != nil {
		return "", err
	}
	reports, err := s.writeCourts(ctx, excel)
	if err != nil {
		return "", err
	}
	if err := s.writeSports(excel, reports); err != nil {
		return "", err
	}
	if err := s.writeBookings(ctx, excel, models.DateOf(now)); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.Dir, Filename(now))
	if err := excel.SaveToFile(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func (s *Service) writeSummary(ctx context.Context, excel ExcelWriter) error {
	stats, err := s.source.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("statistics: %w", err)
	}

	if err := excel.AddSheet("Summary"); err != nil {
		return err
	}
	if err := excel.WriteHeader([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]any{
		{"Total bookings", stats.Total},
		{"Today", stats.Today},
		{"This month", stats.ThisMonth},
	}
	for _, st := range models.AllStatuses {
		rows = append(rows, []any{"Status " + st.String(), stats.ByStatus[st]})
	}
	low, high := s.courts.PriceRange()
	rows = append(rows,
		[]any{"Total revenue", stats.TotalRevenue},
		[]any{"Average booking value", stats.AverageRevenue},
		[]any{"Featured courts", len(s.courts.Featured())},
		[]any{"Lowest hourly rate", low},
		[]any{"Highest hourly rate", high},
	)
	for _, r := range rows {
		if err := excel.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeCourts(ctx context.Context, excel ExcelWriter) (map[string]booking.CourtReport, error) {
	if err := excel.AddSheet("Courts"); err != nil {
		return nil, err
	}
	if err := excel.WriteHeader([]string{"Court ID", "Name", "Bookings", "Revenue", "Booked hours (30d)", "Occupancy %"}); err != nil {
		return nil, err
	}
	reports := make(map[string]booking.CourtReport)
	for _, court := range s.courts.List() {
		r, err := s.source.CourtReport(ctx, court.ID)
		if err != nil {
			return nil, fmt.Errorf("court report %s: %w", court.ID, err)
		}
		reports[court.ID] = r
		if err := excel.WriteRow([]any{r.CourtID, r.CourtName, r.TotalBookings, r.Revenue, r.BookedHours, r.OccupancyRate}); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

// writeSports rolls the court reports up per sport.
func (s *Service) writeSports(excel ExcelWriter, reports map[string]booking.CourtReport) error {
	if err := excel.AddSheet("Sports"); err != nil {
		return err
	}
	if err := excel.WriteHeader([]string{"Sport", "Courts", "Featured", "Bookings", "Revenue"}); err != nil {
		return err
	}
	for _, sport := range s.courts.Sports() {
		var featured, total int
		var revenue float64
		courts := s.courts.BySport(sport)
		for _, court := range courts {
			if court.Featured {
				featured++
			}
			total += reports[court.ID].TotalBookings
			revenue += reports[court.ID].Revenue
		}
		if err := excel.WriteRow([]any{sport, len(courts), featured, total, models.Round2(revenue)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeBookings(ctx context.Context, excel ExcelWriter, today models.Date) error {
	bookings, err := s.source.ByDateRange(ctx, today.AddDays(-s.cfg.BookingsWindowDays), today.AddMonths(3))
	if err != nil {
		return fmt.Errorf("bookings: %w", err)
	}

	if err := excel.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := excel.WriteHeader([]string{"ID", "Court", "User", "Date", "Time", "Hours", "Status", "Total", "Payment"}); err != nil {
		return err
	}
	for _, b := range bookings {
		payment := ""
		if b.Payment != nil {
			payment = b.Payment.Method + " " + b.Payment.TransactionID
		}
		row := []any{b.ID, b.CourtID, b.UserID, b.Date.String(), b.Time, b.Duration, b.Status.String(), b.Pricing.Total, payment}
		if err := excel.WriteRow(row); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("rows", len(bookings)).Msg("Exported bookings sheet")
	return nil
}
