package jobs

import (
	"context"
	"time"

	"cnpjsaneador/cmd/internal/utils"

	"github.com/labstack/gommon/log"
)

type RunRepository interface {
	DeleteExpired(before int64) error
}

// RunHistoryCleaner periodically sweeps finished run records older than
// the retention window out of SQLite. It never touches the JSON lookup
// cache, whose stale entries must stay in place.
type RunHistoryCleaner struct {
	runRepo   RunRepository
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
}

func NewRunHistoryCleaner(repo RunRepository, retention, interval time.Duration, logger *log.Logger) *RunHistoryCleaner {
	return &RunHistoryCleaner{
		runRepo:   repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (c *RunHistoryCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("run history cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping run history cleaner...")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *RunHistoryCleaner) cleanup() {
	cutoff := utils.NowUTC() - c.retention.Milliseconds()

	err := c.runRepo.DeleteExpired(cutoff)
	if err != nil {
		c.logger.Errorf("cleaner: failed to delete expired run history: %v", err)
		return
	}

	c.logger.Debugf("cleaner: successfully swept run history older than %d", cutoff)
}
