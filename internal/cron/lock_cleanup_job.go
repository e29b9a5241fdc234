package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type expiredLockPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewLockCleanupJob removes inventory lock records left by crashed holders.
func NewLockCleanupJob(logg *logger.Logger, purger expiredLockPurger) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if purger == nil {
		return nil, fmt.Errorf("lock purger required")
	}
	return &lockCleanupJob{logg: logg, purger: purger, now: time.Now}, nil
}

type lockCleanupJob struct {
	logg   *logger.Logger
	purger expiredLockPurger
	now    func() time.Time
}

func (j *lockCleanupJob) Name() string { return "lock-cleanup" }

func (j *lockCleanupJob) Run(ctx context.Context) error {
	purged, err := j.purger.PurgeExpired(ctx, j.now().UTC())
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "purged", purged), "expired inventory locks purged")
	return nil
}
