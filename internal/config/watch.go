package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchCourts loads courts.yaml, hands it to onUpdate, then polls the file's
// mtime and calls onUpdate again with every valid new version.
func WatchCourts(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*CourtsConfig) error) error {
	if path == "" {
		path = "configs/courts.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadCourtsConfig(path)
	if err != nil {
		return err
	}
	if err = onUpdate(cfg); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadCourtsConfig(path)
				if err == nil {
					err = onUpdate(cfg)
				}
				if err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("courts reload rejected, keeping previous catalog")
					continue
				}
				logger.Info().Str("courts", cfg.String()).Msg("courts catalog reloaded")
			}
		}
	}()

	return nil
}
