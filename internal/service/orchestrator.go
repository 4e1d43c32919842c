package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

type OrderPuller interface {
	PullPendingOrders(ctx context.Context) PhaseResult
}

type CustomerSyncer interface {
	PullCustomers(ctx context.Context) PhaseResult
	PushCustomerUpdates(ctx context.Context) PhaseResult
}

type MenuConfigPusher interface {
	PushMenuAndConfig(ctx context.Context) PhaseResult
}

const (
	PhaseOrders        = "orders"
	PhaseCustomersPull = "customersPull"
	PhaseMenuConfig    = "menuConfig"
	PhaseCustomersPush = "customersPush"
	phaseRun           = "run"
)

// SyncOrchestrator runs the four phases of a full sync and records the run.
// Only one run is active at a time; overlapping calls return
// ErrSyncInProgress without touching anything.
type SyncOrchestrator struct {
	Runs       repository.SyncLogRepository
	Orders     OrderPuller
	Customers  CustomerSyncer
	MenuConfig MenuConfigPusher
	Stats      *StatusTracker
	Clock      Clock
	Logger     *zap.Logger

	mu        sync.Mutex
	isSyncing bool
}

func (o *SyncOrchestrator) Syncing() bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isSyncing
}

func (o *SyncOrchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isSyncing {
		return false
	}
	o.isSyncing = true
	return true
}

func (o *SyncOrchestrator) end() {
	o.mu.Lock()
	o.isSyncing = false
	o.mu.Unlock()
}

// RunFullSync returns the finished run. A non-nil error with a non-nil run
// means the run was recorded as FAILED for a fatal reason.
func (o *SyncOrchestrator) RunFullSync(ctx context.Context) (*models.SyncLog, error) {
	if o == nil || o.Runs == nil {
		return nil, errors.New("sync orchestrator is not configured")
	}
	if !o.begin() {
		if o.Logger != nil {
			o.Logger.Info("full sync skipped: already in progress")
		}
		return nil, ErrSyncInProgress
	}
	defer o.end()

	run := &models.SyncLog{
		ID:        uuid.NewString(),
		SyncType:  models.SyncTypeFull,
		Status:    models.SyncStatusInProgress,
		StartedAt: nowUTC(o.Clock),
	}
	if err := o.Runs.InsertSyncLog(ctx, run); err != nil {
		o.Stats.RecordPull(false, run.StartedAt)
		return nil, fmt.Errorf("create sync run: %w", err)
	}
	if o.Logger != nil {
		o.Logger.Info("full sync started", zap.String("run_id", run.ID))
	}

	synced, failed, phaseErrors, fatal := o.runPhases(ctx)

	completed := nowUTC(o.Clock)
	duration := int(completed.Sub(run.StartedAt) / time.Second)
	run.ItemsSynced = synced
	run.ItemsFailed = failed
	run.CompletedAt = &completed
	run.Duration = &duration
	if fatal != nil {
		run.Status = models.SyncStatusFailed
		phaseErrors[phaseRun] = map[string]string{"error": fatal.Error()}
	} else {
		run.Status = DeriveStatus(synced, failed)
	}
	if len(phaseErrors) > 0 {
		b, _ := json.Marshal(phaseErrors)
		run.Errors = datatypes.JSON(b)
	}

	// the run record must reach a terminal state even if ctx is gone
	if err := o.Runs.UpdateSyncLog(context.WithoutCancel(ctx), run); err != nil {
		if o.Logger != nil {
			o.Logger.Error("sync run update failed", zap.String("run_id", run.ID), zap.Error(err))
		}
		if fatal == nil {
			fatal = fmt.Errorf("update sync run: %w", err)
		}
	}
	o.Stats.RecordPull(run.Status == models.SyncStatusCompleted, completed)

	if o.Logger != nil {
		o.Logger.Info("full sync finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
			zap.Int("items_synced", synced),
			zap.Int("items_failed", failed),
			zap.Int("duration_s", duration),
		)
	}
	if fatal != nil {
		return run, fatal
	}
	return run, nil
}

// runPhases turns a panic or cancellation into a fatal error; phase-local
// failures stay in the returned counts and map.
func (o *SyncOrchestrator) runPhases(ctx context.Context) (synced, failed int, errs map[string]map[string]string, fatal error) {
	errs = map[string]map[string]string{}
	defer func() {
		if r := recover(); r != nil {
			fatal = fmt.Errorf("full sync aborted: %v", r)
			if o.Logger != nil {
				o.Logger.Error("full sync panicked", zap.Any("panic", r), zap.Stack("stack"))
			}
		}
	}()

	phases := []struct {
		name string
		run  func(context.Context) PhaseResult
	}{
		{PhaseOrders, o.pullOrders},
		{PhaseCustomersPull, o.pullCustomers},
		{PhaseMenuConfig, o.pushMenuConfig},
		{PhaseCustomersPush, o.pushCustomers},
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return synced, failed, errs, err
		}
		res := phase.run(ctx)
		synced += res.Synced
		failed += res.Failed
		if len(res.Errors) > 0 {
			errs[phase.name] = res.Errors
		}
	}
	return synced, failed, errs, nil
}

func (o *SyncOrchestrator) pullOrders(ctx context.Context) PhaseResult {
	if o.Orders == nil {
		return PhaseResult{}
	}
	return o.Orders.PullPendingOrders(ctx)
}

func (o *SyncOrchestrator) pullCustomers(ctx context.Context) PhaseResult {
	if o.Customers == nil {
		return PhaseResult{}
	}
	return o.Customers.PullCustomers(ctx)
}

func (o *SyncOrchestrator) pushMenuConfig(ctx context.Context) PhaseResult {
	if o.MenuConfig == nil {
		return PhaseResult{}
	}
	return o.MenuConfig.PushMenuAndConfig(ctx)
}

func (o *SyncOrchestrator) pushCustomers(ctx context.Context) PhaseResult {
	if o.Customers == nil {
		return PhaseResult{}
	}
	return o.Customers.PushCustomerUpdates(ctx)
}
