package linkmeta

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
)

// StartSweeper schedules periodic removal of expired cache entries.
// The caller must Stop the returned scheduler on shutdown.
func StartSweeper(schedule string, cache *TitleCache, m *metrics.Metrics, log *logger.Logger) (*cron.Cron, error) {
	log = log.WithComponent("link_metadata_sweeper")

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { sweep(cache, m, log) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()

	log.Info("link title cache sweeper started", slog.String("schedule", schedule))
	return c, nil
}

func sweep(cache *TitleCache, m *metrics.Metrics, log *logger.Logger) {
	removed := cache.SweepExpired()
	size := cache.Size()
	m.TitleCacheSize.Set(float64(size))
	if removed > 0 {
		log.Debug("swept expired link titles", slog.Int("removed", removed), slog.Int("remaining", size))
	}
}
