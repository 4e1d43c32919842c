package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	cronrunner "github.com/viefmoon/bite-sub001/internal/cron"
	"github.com/viefmoon/bite-sub001/internal/models"
)

type FullSyncer interface {
	RunFullSync(ctx context.Context) (*models.SyncLog, error)
}

// SyncScheduler owns the periodic full-sync timer and the manual trigger.
// Each instance has its own cron runner, so several can coexist.
type SyncScheduler struct {
	Sync       FullSyncer
	Interval   time.Duration
	RunOnStart bool
	Logger     *zap.Logger

	mu     sync.Mutex
	runner *cronrunner.Runner
	entry  cron.EntryID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *SyncScheduler) Start(ctx context.Context) error {
	if s == nil || s.Sync == nil {
		return errors.New("sync scheduler is not configured")
	}
	if s.Interval < time.Second {
		return fmt.Errorf("sync interval too short: %s", s.Interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	runner := cronrunner.New(s.Logger, runCtx)
	entry, err := runner.Add(fmt.Sprintf("@every %s", s.Interval), s.tick)
	if err != nil {
		cancel()
		return fmt.Errorf("schedule full sync: %w", err)
	}
	runner.Start()
	s.runner, s.entry, s.cancel = runner, entry, cancel

	if s.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick(runCtx)
		}()
	}
	if s.Logger != nil {
		s.Logger.Info("sync scheduler started", zap.Duration("interval", s.Interval))
	}
	return nil
}

func (s *SyncScheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	runner, cancel := s.runner, s.cancel
	s.runner, s.cancel = nil, nil
	s.mu.Unlock()
	if runner == nil {
		return
	}
	// cancel first so an in-flight sync sees it before we wait on cron
	cancel()
	runner.Stop()
	s.wg.Wait()
	if s.Logger != nil {
		s.Logger.Info("sync scheduler stopped")
	}
}

// TriggerSync runs a full sync now on the caller's goroutine. It returns
// ErrSyncInProgress when a run is already active and passes fatal run
// errors through.
func (s *SyncScheduler) TriggerSync(ctx context.Context) (*models.SyncLog, error) {
	if s == nil || s.Sync == nil {
		return nil, errors.New("sync scheduler is not configured")
	}
	return s.Sync.RunFullSync(ctx)
}

// NextRun is zero when the scheduler is not running.
func (s *SyncScheduler) NextRun() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	runner, entry := s.runner, s.entry
	s.mu.Unlock()
	if runner == nil {
		return time.Time{}
	}
	return runner.Entry(entry).Next
}

func (s *SyncScheduler) tick(ctx context.Context) {
	_, err := s.Sync.RunFullSync(ctx)
	if err == nil || s.Logger == nil {
		return
	}
	if errors.Is(err, ErrSyncInProgress) {
		s.Logger.Debug("scheduled sync skipped", zap.Error(err))
		return
	}
	s.Logger.Warn("scheduled sync failed", zap.Error(err))
}
