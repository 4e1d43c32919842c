package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
	gormrepository "github.com/viefmoon/bite-sub001/internal/repository/gorm"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubRuns is an in-memory SyncLogRepository.
type stubRuns struct {
	mu        sync.Mutex
	items     map[string]models.SyncLog
	order     []string
	insertErr error
}

func newStubRuns() *stubRuns { return &stubRuns{items: map[string]models.SyncLog{}} }

func (s *stubRuns) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.items[item.ID] = *item
	s.order = append(s.order, item.ID)
	return nil
}

func (s *stubRuns) UpdateSyncLog(ctx context.Context, item *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.items[item.ID] = *item
	return nil
}

func (s *stubRuns) GetSyncLog(ctx context.Context, id string) (*models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *stubRuns) GetLatestSyncLog(ctx context.Context, syncType models.SyncType, statuses ...models.SyncStatus) (*models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.SyncLog
	for _, id := range s.order {
		item := s.items[id]
		if item.SyncType != syncType || item.CompletedAt == nil {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, item.Status) {
			continue
		}
		if best == nil || item.CompletedAt.After(*best.CompletedAt) {
			found := item
			best = &found
		}
	}
	return best, nil
}

func (s *stubRuns) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SyncLog, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *stubRuns) CountSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.order)), nil
}

func (s *stubRuns) all() []models.SyncLog {
	items, _ := s.ListSyncLogs(context.Background(), repository.ListSyncLogsParams{})
	return items
}

func containsStatus(list []models.SyncStatus, v models.SyncStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// stubPhase returns a fixed result and counts calls.
type stubPhase struct {
	mu      sync.Mutex
	calls   int
	result  PhaseResult
	block   chan struct{}
	entered chan struct{}
	panicV  any
}

func (p *stubPhase) run(ctx context.Context) PhaseResult {
	p.mu.Lock()
	p.calls++
	entered := p.entered
	p.entered = nil
	p.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if p.block != nil {
		<-p.block
	}
	if p.panicV != nil {
		panic(p.panicV)
	}
	return p.result
}

func (p *stubPhase) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *stubPhase) PullPendingOrders(ctx context.Context) PhaseResult { return p.run(ctx) }
func (p *stubPhase) PushMenuAndConfig(ctx context.Context) PhaseResult { return p.run(ctx) }

type stubCustomers struct {
	pull stubPhase
	push stubPhase
}

func (s *stubCustomers) PullCustomers(ctx context.Context) PhaseResult       { return s.pull.run(ctx) }
func (s *stubCustomers) PushCustomerUpdates(ctx context.Context) PhaseResult { return s.push.run(ctx) }

var errStub = errors.New("stub failure")

func newSQLiteStore(t *testing.T) *gormrepository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:svc_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := gdb.AutoMigrate(
		&models.SyncLog{},
		&models.DailyOrderCounter{},
		&models.Customer{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryInfo{},
		&models.Category{},
		&models.Subcategory{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ModifierGroup{},
		&models.ProductModifier{},
		&models.RestaurantConfig{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormrepository.New(gdb)
}
