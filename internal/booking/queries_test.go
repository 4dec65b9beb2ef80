package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/models"
)

func TestQueries(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, request(monday, "18:00", 1))
	bReq := request(tuesday, "18:00", 2)
	bReq.UserID = "user-2"
	b := f.create(t, bReq)
	c := f.create(t, request(saturday, "10:00", 1))

	_, err := f.engine.Cancel(f.ctx, c.ID, "")
	require.NoError(t, err)

	byCourt, err := f.engine.ByCourt(f.ctx, "la-del-pibe", nil)
	require.NoError(t, err)
	assert.Len(t, byCourt, 3)

	byDay, err := f.engine.ByCourt(f.ctx, "la-del-pibe", &tuesday)
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.Equal(t, b.ID, byDay[0].ID)

	byUser, err := f.engine.ByUser(f.ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, b.ID, byUser[0].ID)

	inRange, err := f.engine.ByDateRange(f.ctx, monday, tuesday)
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, a.ID, inRange[0].ID)

	single, err := f.engine.ByDateRange(f.ctx, saturday, saturday)
	require.NoError(t, err)
	assert.Len(t, single, 1)

	cancelled, err := f.engine.ByStatus(f.ctx, models.StatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, c.ID, cancelled[0].ID)

	none, err := f.engine.ByUser(f.ctx, "ghost")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)

	empty, err := f.engine.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.AverageRevenue)
	assert.Equal(t, 0, empty.ByStatus[models.StatusPending])

	today := f.create(t, request(monday, "10:00", 1))
	peak := f.create(t, request(tuesday, "18:00", 2))
	f.create(t, request(monday.AddMonths(1), "10:00", 1))
	_, err = f.engine.Confirm(f.ctx, today.ID, nil)
	require.NoError(t, err)
	_, err = f.engine.Confirm(f.ctx, peak.ID, nil)
	require.NoError(t, err)

	stats, err := f.engine.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 2, stats.ThisMonth)
	assert.Equal(t, 2, stats.ByStatus[models.StatusConfirmed])
	assert.Equal(t, 1, stats.ByStatus[models.StatusPending])
	assert.Equal(t, 0, stats.ByStatus[models.StatusCancelled])
	assert.Equal(t, 115.5, stats.TotalRevenue) // 27.50 + 88.00
	assert.Equal(t, 57.75, stats.AverageRevenue)
}

func TestPopularTimeSlots(t *testing.T) {
	f := newFixture(t)
	f.create(t, request(tuesday, "10:00", 1))
	f.create(t, request(tuesday, "18:00", 1))
	f.create(t, request(saturday, "18:00", 1))
	f.create(t, request(tuesday, "07:00", 1))
	f.create(t, request(saturday, "07:00", 1))
	f.create(t, request(saturday, "10:00", 1))
	f.create(t, request(monday, "18:00", 1))

	got, err := f.engine.PopularTimeSlots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []SlotCount{
		{Time: "18:00", Count: 3},
		{Time: "10:00", Count: 2},
		{Time: "07:00", Count: 2},
	}, got)
}

func TestCourtReport(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2025, 1, 1, 8, 0, 0, 0, bogota))

	old := f.create(t, request(models.MustParseDate("2025-01-02"), "10:00", 2))
	recent := f.create(t, request(models.MustParseDate("2025-01-20"), "18:00", 2))
	dropped := f.create(t, request(models.MustParseDate("2025-01-21"), "18:00", 1))
	_, err := f.engine.Confirm(f.ctx, old.ID, nil)
	require.NoError(t, err)
	_, err = f.engine.Confirm(f.ctx, recent.ID, nil)
	require.NoError(t, err)
	_, err = f.engine.Cancel(f.ctx, dropped.ID, "")
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 2, 10, 8, 0, 0, 0, bogota))
	report, err := f.engine.CourtReport(f.ctx, "la-del-pibe")
	require.NoError(t, err)

	assert.Equal(t, "La del Pibe", report.CourtName)
	assert.Equal(t, "2025-02-10", report.ReportDate.String())
	assert.Equal(t, 3, report.TotalBookings)
	assert.Equal(t, 143.0, report.Revenue) // 55 + 88
	assert.Equal(t, 2, report.BookedHours)
	// 2 hours of 16 * 30
	assert.Equal(t, 0.4, report.OccupancyRate)

	_, err = f.engine.CourtReport(f.ctx, "nope")
	assert.Error(t, err)
}
