package report

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"courtbook/internal/booking"
	"courtbook/internal/catalog"
	"courtbook/internal/models"
	"courtbook/internal/repository"
	"courtbook/internal/storage"
)

type clock struct{ t time.Time }

func (c clock) Now() time.Time { return c.t }

func TestExportNow(t *testing.T) {
	logger := zerolog.New(io.Discard)
	court, err := catalog.NewCourt(catalog.CourtParams{
		ID: "la-del-pibe", Name: "La del Pibe", Sport: "Football", Featured: true,
		WeekdayRate: 25, WeekendRate: 35, OpenHour: 6, CloseHour: 22,
	})
	require.NoError(t, err)
	tennis, err := catalog.NewCourt(catalog.CourtParams{
		ID: "club-tenis", Name: "Club Tenis", Sport: "Tennis",
		WeekdayRate: 35, WeekendRate: 50, OpenHour: 7, CloseHour: 22,
	})
	require.NoError(t, err)
	cat, err := catalog.New([]catalog.Court{court, tennis})
	require.NoError(t, err)

	now := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	repo := repository.NewBookingRepository(storage.NewMemoryStore(), "", &logger)
	engine := booking.New(cat, repo, clock{now}, nil, booking.Options{Location: time.UTC}, &logger)

	ctx := context.Background()
	b, err := engine.CreateBooking(ctx, models.BookingRequest{
		CourtID: "la-del-pibe", UserID: "u1", Date: models.MustParseDate("2025-01-14"), Time: "10:00", Duration: 2,
	})
	require.NoError(t, err)
	_, err = engine.Confirm(ctx, b.ID, &models.PaymentInfo{Method: "nequi", TransactionID: "NEQ_1"})
	require.NoError(t, err)

	dir := t.TempDir()
	svc := NewService(Config{Dir: dir}, engine, cat, nil, &logger)
	svc.now = func() time.Time { return now }

	path, err := svc.ExportNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "courtbook_report_2025-01-13.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Courts", "Sports", "Bookings"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Total bookings", "1"}, summary[1])
	n := len(summary)
	require.Greater(t, n, 3)
	assert.Equal(t, []string{"Featured courts", "1"}, summary[n-3])
	assert.Equal(t, []string{"Lowest hourly rate", "25"}, summary[n-2])
	assert.Equal(t, []string{"Highest hourly rate", "50"}, summary[n-1])

	courts, err := f.GetRows("Courts")
	require.NoError(t, err)
	require.Len(t, courts, 3)
	// The booking is tomorrow, outside the trailing occupancy window.
	assert.Equal(t, []string{"la-del-pibe", "La del Pibe", "1", "55", "0", "0"}, courts[1])
	assert.Equal(t, []string{"club-tenis", "Club Tenis", "0", "0", "0", "0"}, courts[2])

	sports, err := f.GetRows("Sports")
	require.NoError(t, err)
	require.Len(t, sports, 3)
	assert.Equal(t, []string{"Football", "1", "1", "1", "55"}, sports[1])
	assert.Equal(t, []string{"Tennis", "1", "0", "0", "0"}, sports[2])

	bookings, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, b.ID, bookings[1][0])
	assert.Equal(t, "confirmed", bookings[1][6])
	assert.Equal(t, "nequi NEQ_1", bookings[1][8])
}

func TestStartStopsWithContext(t *testing.T) {
	logger := zerolog.New(io.Discard)
	cat, err := catalog.New(nil)
	require.NoError(t, err)
	repo := repository.NewBookingRepository(storage.NewMemoryStore(), "", &logger)
	engine := booking.New(cat, repo, nil, nil, booking.Options{}, &logger)

	dir := t.TempDir()
	svc := NewService(Config{Dir: dir, Interval: time.Hour}, engine, cat, nil, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.xlsx"))
		return len(matches) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("report service did not stop")
	}
}
