package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/models"
)

// ErrSyncInProgress is returned when a full sync is requested while one is
// already running. The request is dropped, not queued.
var ErrSyncInProgress = errors.New("sync already in progress")

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

func nowUTC(c Clock) time.Time {
	if c == nil {
		c = systemClock{}
	}
	// microseconds survive every supported database unchanged
	return c.Now().UTC().Truncate(time.Microsecond)
}

// PhaseResult is what one sync phase reports back. Errors is keyed by the
// item or sub-step that failed.
type PhaseResult struct {
	Synced int
	Failed int
	Errors map[string]string
}

func (r *PhaseResult) fail(key string, err error) {
	r.Failed++
	r.addError(key, err)
}

func (r *PhaseResult) addError(key string, err error) {
	if err == nil {
		return
	}
	if r.Errors == nil {
		r.Errors = map[string]string{}
	}
	r.Errors[key] = err.Error()
}

func (r PhaseResult) OK() bool {
	return r.Failed == 0
}

// DeriveStatus maps run totals onto a terminal status.
func DeriveStatus(synced, failed int) models.SyncStatus {
	switch {
	case failed == 0:
		return models.SyncStatusCompleted
	case synced > 0:
		return models.SyncStatusPartial
	default:
		return models.SyncStatusFailed
	}
}

func recordActivity(ctx context.Context, store activity.Store, logger *zap.Logger, kind models.ActivityType, dir models.ActivityDirection, success bool) {
	if store == nil {
		return
	}
	if err := store.Append(ctx, activity.NewActivity(kind, dir, success)); err != nil && logger != nil {
		logger.Warn("sync activity append failed", zap.String("type", string(kind)), zap.Error(err))
	}
}

func timePtr(v time.Time) *time.Time {
	return &v
}
