package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/models"
	gormrepository "github.com/viefmoon/bite-sub001/internal/repository/gorm"
)

type stubCustomersAPI struct {
	mu      sync.Mutex
	changes []cloud.RemoteCustomer
	pullErr error
	pushErr error
	since   []time.Time
	pushed  [][]cloud.RemoteCustomer
}

func (s *stubCustomersAPI) GetCustomerChanges(ctx context.Context, since time.Time) ([]cloud.RemoteCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.since = append(s.since, since)
	if s.pullErr != nil {
		return nil, s.pullErr
	}
	return s.changes, nil
}

func (s *stubCustomersAPI) PushCustomers(ctx context.Context, customers []cloud.RemoteCustomer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, customers)
	return s.pushErr
}

func newTestReconciler(store *gormrepository.Store, api *stubCustomersAPI, clock Clock) (*CustomerReconciler, *stubRuns) {
	runs := newStubRuns()
	return &CustomerReconciler{
		Repo:     store,
		Runs:     runs,
		Cloud:    api,
		Activity: activity.NewMemoryStore(10),
		Clock:    clock,
	}, runs
}

func seedCustomer(t *testing.T, store *gormrepository.Store, c *models.Customer) {
	t.Helper()
	if err := store.InsertCustomerTx(context.Background(), nil, c); err != nil {
		t.Fatalf("seed customer %s: %v", c.ID, err)
	}
}

func TestPullCustomersAdvancesCursorOnCompletedRun(t *testing.T) {
	store := newSQLiteStore(t)
	remoteAt := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	api := &stubCustomersAPI{changes: []cloud.RemoteCustomer{
		{ID: "c1", FirstName: "Ana", LastName: "Ruiz", UpdatedAt: &remoteAt},
	}}
	clock := newFakeClock(time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC))
	rec, runs := newTestReconciler(store, api, clock)
	ctx := context.Background()

	res := rec.PullCustomers(ctx)
	if res.Synced != 1 || res.Failed != 0 {
		t.Fatalf("pull = %+v", res)
	}
	if !api.since[0].Equal(time.Unix(0, 0)) {
		t.Fatalf("first cursor=%s want epoch", api.since[0])
	}
	items := runs.all()
	if len(items) != 1 || items[0].SyncType != models.SyncTypeCustomers || items[0].Status != models.SyncStatusCompleted {
		t.Fatalf("unexpected runs: %+v", items)
	}

	got, err := store.GetCustomerTx(ctx, nil, "c1")
	if err != nil || got == nil {
		t.Fatalf("get customer: %+v %v", got, err)
	}
	if got.FirstName != "Ana" || !got.UpdatedAt.Equal(remoteAt) {
		t.Fatalf("unexpected customer: %+v", got)
	}
	if got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(remoteAt) {
		t.Fatalf("pulled customer should be marked in sync, got %v", got.LastSyncedAt)
	}

	clock.Advance(time.Hour)
	rec.PullCustomers(ctx)
	if len(api.since) != 2 || !api.since[1].Equal(*items[0].CompletedAt) {
		t.Fatalf("second cursor=%v want %s", api.since, items[0].CompletedAt)
	}
}

func TestPullCustomersFailedRunKeepsCursor(t *testing.T) {
	store := newSQLiteStore(t)
	api := &stubCustomersAPI{pullErr: errStub}
	clock := newFakeClock(time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC))
	rec, runs := newTestReconciler(store, api, clock)
	ctx := context.Background()

	res := rec.PullCustomers(ctx)
	if res.Failed != 1 || res.Errors["fetch"] == "" {
		t.Fatalf("pull = %+v, want fetch failure", res)
	}
	if items := runs.all(); len(items) != 1 || items[0].Status != models.SyncStatusFailed {
		t.Fatalf("unexpected runs: %+v", items)
	}

	clock.Advance(time.Hour)
	rec.PullCustomers(ctx)
	if !api.since[1].Equal(time.Unix(0, 0)) {
		t.Fatalf("cursor moved after failed run: %s", api.since[1])
	}
}

func TestPullCustomersLastWriteWins(t *testing.T) {
	store := newSQLiteStore(t)
	synced := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	edited := time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC)
	for _, id := range []string{"keep", "override"} {
		seedCustomer(t, store, &models.Customer{
			ID:           id,
			FirstName:    "Local",
			IsActive:     true,
			UpdatedAt:    edited,
			LastSyncedAt: timePtr(synced),
		})
	}

	older := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	api := &stubCustomersAPI{changes: []cloud.RemoteCustomer{
		{ID: "keep", FirstName: "Remote", UpdatedAt: &older},
		{ID: "override", FirstName: "Remote", UpdatedAt: &newer},
		{FirstName: "NoID"},
	}}
	rec, _ := newTestReconciler(store, api, newFakeClock(newer.Add(time.Hour)))
	ctx := context.Background()

	res := rec.PullCustomers(ctx)
	if res.Synced != 1 || res.Failed != 1 {
		t.Fatalf("pull = %+v, want synced=1 failed=1", res)
	}

	kept, _ := store.GetCustomerTx(ctx, nil, "keep")
	if kept == nil || kept.FirstName != "Local" {
		t.Fatalf("newer local edit was overwritten: %+v", kept)
	}
	overridden, _ := store.GetCustomerTx(ctx, nil, "override")
	if overridden == nil || overridden.FirstName != "Remote" || !overridden.UpdatedAt.Equal(newer) {
		t.Fatalf("newer remote row not applied: %+v", overridden)
	}

	pending, err := store.ListCustomersPendingPush(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "keep" {
		t.Fatalf("expected only the kept edit pending, got %+v", pending)
	}
}

func TestPushCustomerUpdatesMarksSynced(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		seedCustomer(t, store, &models.Customer{
			ID:        id,
			FirstName: id,
			IsActive:  true,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	seedCustomer(t, store, &models.Customer{
		ID:           "clean",
		IsActive:     true,
		UpdatedAt:    base,
		LastSyncedAt: timePtr(base),
	})

	api := &stubCustomersAPI{}
	rec, _ := newTestReconciler(store, api, newFakeClock(base))
	rec.PushBatch = 2
	ctx := context.Background()

	res := rec.PushCustomerUpdates(ctx)
	if res.Synced != 3 || res.Failed != 0 {
		t.Fatalf("push = %+v, want synced=3", res)
	}
	if len(api.pushed) != 2 || len(api.pushed[0]) != 2 || len(api.pushed[1]) != 1 {
		t.Fatalf("unexpected batches: %+v", api.pushed)
	}
	if api.pushed[0][0].ID != "a" {
		t.Fatalf("expected oldest edit first, got %s", api.pushed[0][0].ID)
	}
	pending, _ := store.ListCustomersPendingPush(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(pending))
	}

	res = rec.PushCustomerUpdates(ctx)
	if res.Synced != 0 || len(api.pushed) != 2 {
		t.Fatalf("second push should be a no-op, got %+v", res)
	}
}

func TestPushCustomerUpdatesFailureKeepsPending(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	seedCustomer(t, store, &models.Customer{ID: "a", IsActive: true, UpdatedAt: base})
	seedCustomer(t, store, &models.Customer{ID: "b", IsActive: true, UpdatedAt: base.Add(time.Second)})

	api := &stubCustomersAPI{pushErr: errStub}
	rec, _ := newTestReconciler(store, api, newFakeClock(base))
	ctx := context.Background()

	res := rec.PushCustomerUpdates(ctx)
	if res.Synced != 0 || res.Failed != 2 || res.Errors["batch-1"] == "" {
		t.Fatalf("push = %+v, want failed=2 under batch-1", res)
	}
	pending, _ := store.ListCustomersPendingPush(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected both customers still pending, got %d", len(pending))
	}
	events, _ := rec.Activity.Recent(ctx, 1)
	if len(events) != 1 || events[0].Success || events[0].Direction != models.DirectionOut {
		t.Fatalf("expected failed outbound activity, got %+v", events)
	}
}
