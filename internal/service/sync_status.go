package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/viefmoon/bite-sub001/internal/config"
	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

type SyncStats struct {
	PullCount       int        `json:"pullCount"`
	SuccessfulPulls int        `json:"successfulPulls"`
	FailedPulls     int        `json:"failedPulls"`
	LastPullTime    *time.Time `json:"lastPullTime"`
	NextPullTime    *time.Time `json:"nextPullTime"`
}

// StatusTracker counts pulls. All methods are safe on a nil receiver.
type StatusTracker struct {
	mu       sync.Mutex
	count    int
	success  int
	failed   int
	lastPull *time.Time
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

func (t *StatusTracker) RecordPull(success bool, at time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	if success {
		t.success++
	} else {
		t.failed++
	}
	at = at.UTC()
	t.lastPull = &at
}

func (t *StatusTracker) Snapshot() SyncStats {
	if t == nil {
		return SyncStats{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := SyncStats{PullCount: t.count, SuccessfulPulls: t.success, FailedPulls: t.failed}
	if t.lastPull != nil {
		last := *t.lastPull
		out.LastPullTime = &last
	}
	return out
}

type SyncStatus struct {
	Enabled            bool            `json:"enabled"`
	WebSocketEnabled   bool            `json:"webSocketEnabled"`
	WebSocketConnected bool            `json:"webSocketConnected"`
	WebSocketFailed    bool            `json:"webSocketFailed"`
	RemoteURL          string          `json:"remoteUrl"`
	Mode               string          `json:"mode"`
	IntervalMinutes    int             `json:"intervalMinutes"`
	Stats              SyncStats       `json:"stats"`
	Syncing            bool            `json:"syncing"`
	LastRun            *models.SyncLog `json:"lastRun,omitempty"`
}

type socketState interface {
	Connected() bool
	Failed() bool
}

type nextRunner interface {
	NextRun() time.Time
}

type syncingFlag interface {
	Syncing() bool
}

// StatusService assembles the operator status view. Every collaborator is
// optional so the view still renders when sync is disabled; the concrete
// engine types answer zero values on nil receivers.
type StatusService struct {
	Config    config.SyncConfig
	Tracker   *StatusTracker
	Socket    socketState
	Scheduler nextRunner
	Runner    syncingFlag
	Runs      repository.SyncLogRepository
}

func NewStatusService(cfg config.SyncConfig, tracker *StatusTracker, socket socketState, scheduler nextRunner, runner syncingFlag, runs repository.SyncLogRepository) *StatusService {
	return &StatusService{
		Config:    cfg,
		Tracker:   tracker,
		Socket:    socket,
		Scheduler: scheduler,
		Runner:    runner,
		Runs:      runs,
	}
}

func (s *StatusService) Status(ctx context.Context) SyncStatus {
	out := SyncStatus{
		Enabled:          s.Config.Enabled,
		WebSocketEnabled: s.Config.WebSocketEnabled,
		RemoteURL:        strings.TrimRight(s.Config.RemoteURL, "/"),
		Mode:             "pull",
		IntervalMinutes:  s.Config.IntervalMinutes,
		Stats:            s.Tracker.Snapshot(),
	}
	if s.Socket != nil {
		out.WebSocketConnected = s.Socket.Connected()
		out.WebSocketFailed = s.Socket.Failed()
	}
	if s.Scheduler != nil {
		if next := s.Scheduler.NextRun(); !next.IsZero() {
			n := next.UTC()
			out.Stats.NextPullTime = &n
		}
	}
	if s.Runner != nil {
		out.Syncing = s.Runner.Syncing()
	}
	if s.Runs != nil {
		if last, err := s.Runs.GetLatestSyncLog(ctx, models.SyncTypeFull); err == nil {
			out.LastRun = last
		}
	}
	return out
}
