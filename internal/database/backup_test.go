package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/storage"
)

func TestPerformBackup(t *testing.T) {
	logger := zerolog.New(io.Discard)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "courtbook.db"), &logger)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "courtBookings", []byte(`[{"id":"BKG1"}]`)))

	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(store, BackupConfig{Enabled: true, Dir: dir}, &logger)
	svc.now = func() time.Time { return time.Date(2025, 1, 13, 9, 30, 0, 0, time.UTC) }

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20250113_093000.db"), path)

	restored, err := storage.NewSQLiteStore(path, &logger)
	require.NoError(t, err)
	defer restored.Close()
	v, ok, err := restored.Get(ctx, "courtBookings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"BKG1"}]`, string(v))
}

func TestCleanupOldBackups(t *testing.T) {
	logger := zerolog.New(io.Discard)
	dir := t.TempDir()

	old := filepath.Join(dir, "backup_old.db")
	fresh := filepath.Join(dir, "backup_fresh.db")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	svc := NewBackupService(nil, BackupConfig{Dir: dir, Retention: 7 * 24 * time.Hour}, &logger)
	svc.CleanupOldBackups()

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestStartDisabled(t *testing.T) {
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(nil, BackupConfig{Enabled: false}, &logger)
	svc.Start(context.Background())
}
