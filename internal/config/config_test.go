package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, "config.yaml", "storage:\n  sqlite_path: "+filepath.Join(dir, "db", "c.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "courtBookings", cfg.Storage.BookingsKey)
	assert.Equal(t, "payments", cfg.Storage.PaymentsKey)
	assert.Equal(t, "America/Bogota", cfg.Location().String())
	assert.Equal(t, 6, cfg.Booking.DefaultOpenHour)
	assert.Equal(t, 22, cfg.Booking.DefaultCloseHour)
	assert.Equal(t, 3, cfg.MaxAdvanceMonths())
	assert.Equal(t, 0.9, cfg.Payments.SuccessRate)
	assert.Equal(t, 5*time.Minute, cfg.CompletionInterval())
	assert.Equal(t, 30*time.Second, cfg.CatalogReloadInterval())
	assert.Equal(t, 7*24*time.Hour, cfg.BackupRetention())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestMaxAdvanceMonths(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 3},
		{"explicit", "max_advance_months: 6", 6},
		{"disabled", "max_advance_months: -1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			body := "storage:\n  sqlite_path: " + filepath.Join(dir, "c.db") + "\nbooking:\n  timezone: America/Bogota\n"
			if tt.value != "" {
				body += "  " + tt.value + "\n"
			}
			cfg, err := Load(writeFile(t, "config.yaml", body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MaxAdvanceMonths())
		})
	}
}

func TestLoadExpandsPlaceholdersAndEnvOverrides(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6380")
	t.Setenv("COURTBOOK_STORAGE_DRIVER", "redis")
	t.Setenv("COURTBOOK_PAYMENT_SUCCESS_RATE", "0.5")

	path := writeFile(t, "config.yaml", `
storage:
  driver: memory
redis:
  address: ${TEST_REDIS_ADDR}
payments:
  success_rate: 0.9
booking:
  completion_interval_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6380", cfg.Redis.Address)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, 0.5, cfg.Payments.SuccessRate)
	assert.Equal(t, time.Minute, cfg.CompletionInterval())
	assert.True(t, cfg.UsesRedis())
	assert.False(t, cfg.UsesSQLite())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "storage:\n  driver: postgres\n"},
		{"redis without address", "storage:\n  driver: failover\n"},
		{"bad timezone", "storage:\n  driver: memory\nbooking:\n  timezone: Mars/Olympus\n"},
		{"inverted hours", "storage:\n  driver: memory\nbooking:\n  default_open_hour: 22\n  default_close_hour: 6\n"},
		{"success rate above one", "storage:\n  driver: memory\npayments:\n  success_rate: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
