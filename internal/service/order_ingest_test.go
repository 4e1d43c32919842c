package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/models"
	gormrepository "github.com/viefmoon/bite-sub001/internal/repository/gorm"
)

const scenarioOrders = `{"data":[{
	"id":"o1",
	"orderType":"DELIVERY",
	"customer":{"firstName":"Ana","lastName":"Ruiz","email":"a@b.com"},
	"orderItems":[{"productId":"p1","quantity":2,"unitPrice":10,"subtotal":20}],
	"deliveryInfo":{"street":"Av. Juarez","number":"10","recipientName":"Ana"},
	"subtotal":20
}]}`

// fakeCloud serves the pending-orders and confirm endpoints.
type fakeCloud struct {
	mu          sync.Mutex
	pending     string
	confirmCode int
	confirms    [][]cloud.OrderConfirmation
}

func (f *fakeCloud) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync/orders/pending", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := f.pending
		f.mu.Unlock()
		if body == "" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/api/sync/orders/confirm", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderUpdates []cloud.OrderConfirmation `json:"orderUpdates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode confirm: %v", err)
		}
		f.mu.Lock()
		f.confirms = append(f.confirms, req.OrderUpdates)
		code := f.confirmCode
		f.mu.Unlock()
		if code != 0 {
			http.Error(w, "confirm failed", code)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newTestIngestor(t *testing.T, fc *fakeCloud, store *gormrepository.Store) (*OrderIngestor, *activity.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(fc.handler(t))
	t.Cleanup(srv.Close)
	feed := activity.NewMemoryStore(20)
	clock := newFakeClock(time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC))
	return &OrderIngestor{
		Repo:     store,
		Cloud:    cloud.NewClient(srv.Client(), srv.URL, "key"),
		Counter:  &DailyCounterAllocator{Repo: store, Location: time.UTC},
		Activity: feed,
		Clock:    clock,
	}, feed
}

func TestPullPendingOrdersScenario(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: scenarioOrders}
	ingestor, feed := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 1 || res.Failed != 0 {
		t.Fatalf("first pull = %+v, want synced=1 failed=0", res)
	}

	order, err := store.GetOrder(ctx, "o1")
	if err != nil || order == nil {
		t.Fatalf("get order: %+v %v", order, err)
	}
	if order.DailyNumber != 1 {
		t.Fatalf("dailyNumber=%d want 1", order.DailyNumber)
	}
	if order.OrderStatus != models.OrderStatusPending || !order.IsFromWhatsApp {
		t.Fatalf("unexpected order flags: %+v", order)
	}
	if !order.Total.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total=%s want 20", order.Total)
	}
	if order.OrderDate != "2026-10-15" {
		t.Fatalf("orderDate=%s", order.OrderDate)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || !order.Items[0].FinalPrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if order.DeliveryInfo == nil || order.DeliveryInfo.Street == nil || *order.DeliveryInfo.Street != "Av. Juarez" {
		t.Fatalf("unexpected delivery info: %+v", order.DeliveryInfo)
	}
	if order.CustomerID == nil {
		t.Fatalf("expected customer link")
	}

	res = ingestor.PullPendingOrders(ctx)
	if res.Synced != 0 || res.Failed != 0 {
		t.Fatalf("repeat pull = %+v, want synced=0 failed=0", res)
	}
	total, err := store.CountOrders(ctx)
	if err != nil || total != 1 {
		t.Fatalf("orders=%d err=%v, want exactly one", total, err)
	}

	fc.mu.Lock()
	confirms := fc.confirms
	fc.mu.Unlock()
	if len(confirms) != 2 {
		t.Fatalf("expected a confirm per pull, got %d", len(confirms))
	}
	for _, batch := range confirms {
		if len(batch) != 1 || batch[0].OrderID != "o1" || batch[0].DailyNumber != 1 {
			t.Fatalf("unexpected confirm batch: %+v", batch)
		}
	}

	events, _ := feed.Recent(ctx, 0)
	if len(events) == 0 || events[0].Type != models.ActivityOrderStatus || !events[0].Success {
		t.Fatalf("expected confirm activity first, got %+v", events)
	}
}

func TestConfirmFailureDoesNotDuplicateOrders(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: scenarioOrders, confirmCode: http.StatusBadGateway}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 1 || res.Failed != 1 {
		t.Fatalf("first pull = %+v, want synced=1 failed=1", res)
	}
	if _, ok := res.Errors["confirm"]; !ok {
		t.Fatalf("expected confirm error, got %+v", res.Errors)
	}

	res = ingestor.PullPendingOrders(ctx)
	if res.Synced != 0 {
		t.Fatalf("second pull ingested %d orders, want 0", res.Synced)
	}
	total, err := store.CountOrders(ctx)
	if err != nil || total != 1 {
		t.Fatalf("orders=%d err=%v, want exactly one", total, err)
	}
	counter, err := store.GetDailyCounter(ctx, "2026-10-15")
	if err != nil || counter == nil || counter.CurrentNumber != 1 {
		t.Fatalf("counter=%+v err=%v, want 1", counter, err)
	}
}

func TestBadOrderKeepsNumbersGapless(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: `{"data":[
		{"id":"a","orderType":"TAKE_AWAY","orderItems":[{"productId":"p1","quantity":1,"unitPrice":5,"subtotal":5}],"subtotal":5},
		{"id":"b","orderType":"TAKE_AWAY","orderItems":[],"subtotal":0},
		{"id":"c","orderType":"TAKE_AWAY","orderItems":[{"productId":"p2","quantity":1,"unitPrice":7,"subtotal":7}],"subtotal":7}
	]}`}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 2 || res.Failed != 1 {
		t.Fatalf("pull = %+v, want synced=2 failed=1", res)
	}
	if _, ok := res.Errors["b"]; !ok {
		t.Fatalf("expected error keyed by order id, got %+v", res.Errors)
	}
	for id, want := range map[string]int{"a": 1, "c": 2} {
		order, err := store.GetOrder(ctx, id)
		if err != nil || order == nil {
			t.Fatalf("get %s: %+v %v", id, order, err)
		}
		if order.DailyNumber != want {
			t.Fatalf("order %s dailyNumber=%d want %d", id, order.DailyNumber, want)
		}
	}
}

func TestOrdersShareCustomerByEmail(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: `{"data":[
		{"id":"x1","customer":{"firstName":"Ana","email":"A@B.com"},"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"subtotal":1},
		{"id":"x2","customer":{"firstName":"Ana","email":"a@b.com"},"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"subtotal":1}
	]}`}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	if res := ingestor.PullPendingOrders(ctx); res.Synced != 2 {
		t.Fatalf("pull = %+v", res)
	}
	o1, _ := store.GetOrder(ctx, "x1")
	o2, _ := store.GetOrder(ctx, "x2")
	if o1 == nil || o2 == nil || o1.CustomerID == nil || o2.CustomerID == nil {
		t.Fatalf("expected both orders linked to a customer")
	}
	if *o1.CustomerID != *o2.CustomerID {
		t.Fatalf("expected one shared customer, got %s and %s", *o1.CustomerID, *o2.CustomerID)
	}
	if o1.OrderType != models.OrderTypeTakeAway {
		t.Fatalf("orderType=%s want TAKE_AWAY for an order without delivery info", o1.OrderType)
	}
}

func TestOrderReusesCustomerByIDWhenEmailChanged(t *testing.T) {
	store := newSQLiteStore(t)
	old := "old@x.com"
	seedCustomer(t, store, &models.Customer{ID: "c1", FirstName: "Ana", Email: &old})
	fc := &fakeCloud{pending: `{"data":[
		{"id":"o1","customer":{"id":"c1","firstName":"Ana","email":"new@x.com"},"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"subtotal":1}
	]}`}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 1 || res.Failed != 0 {
		t.Fatalf("pull = %+v, want synced=1", res)
	}
	order, _ := store.GetOrder(ctx, "o1")
	if order == nil || order.CustomerID == nil || *order.CustomerID != "c1" {
		t.Fatalf("expected order linked to c1, got %+v", order)
	}
	if n := countRows(t, store, &models.Customer{}); n != 1 {
		t.Fatalf("customers=%d want 1", n)
	}
}

func TestRepeatCustomerGetsNewDeliveryAddress(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: `{"data":[
		{"id":"d1","orderType":"DELIVERY","customer":{"firstName":"Ana","email":"a@b.com","address":{"street":"Av. Juarez","number":"10"}},
			"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"deliveryInfo":{"street":"Av. Juarez","number":"10"},"subtotal":1},
		{"id":"d2","orderType":"DELIVERY","customer":{"firstName":"Ana","email":"a@b.com","address":{"street":"Calle 5","number":"22"}},
			"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"deliveryInfo":{"street":"Calle 5","number":"22"},"subtotal":1},
		{"id":"d3","orderType":"DELIVERY","customer":{"firstName":"Ana","email":"a@b.com","address":{"street":"av. juarez","number":"10"}},
			"orderItems":[{"productId":"p","quantity":1,"unitPrice":1,"subtotal":1}],"deliveryInfo":{"street":"Av. Juarez","number":"10"},"subtotal":1}
	]}`}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	if res := ingestor.PullPendingOrders(ctx); res.Synced != 3 {
		t.Fatalf("pull = %+v", res)
	}
	if n := countRows(t, store, &models.Address{}); n != 2 {
		t.Fatalf("addresses=%d want 2", n)
	}
	links := map[string]string{}
	for _, id := range []string{"d1", "d2", "d3"} {
		order, _ := store.GetOrder(ctx, id)
		if order == nil || order.DeliveryInfo == nil || order.DeliveryInfo.AddressID == nil {
			t.Fatalf("order %s has no linked address: %+v", id, order)
		}
		links[id] = *order.DeliveryInfo.AddressID
	}
	if links["d1"] == links["d2"] {
		t.Fatalf("expected a new address for d2, got %s", links["d2"])
	}
	if links["d1"] != links["d3"] {
		t.Fatalf("expected d3 to reuse d1's address, got %s and %s", links["d1"], links["d3"])
	}
}

func TestOrderWithZeroQuantityFails(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: `{"data":[
		{"id":"q0","orderItems":[{"productId":"p","quantity":0,"unitPrice":3,"subtotal":0}],"subtotal":0},
		{"id":"q1","orderItems":[{"productId":"p","quantity":2,"unitPrice":3,"subtotal":6}],"subtotal":6}
	]}`}
	ingestor, _ := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 1 || res.Failed != 1 {
		t.Fatalf("pull = %+v, want synced=1 failed=1", res)
	}
	if _, ok := res.Errors["q0"]; !ok {
		t.Fatalf("expected error keyed by q0, got %+v", res.Errors)
	}
	if order, _ := store.GetOrder(ctx, "q0"); order != nil {
		t.Fatalf("q0 should not be stored")
	}
	order, _ := store.GetOrder(ctx, "q1")
	if order == nil || order.DailyNumber != 1 {
		t.Fatalf("q1 should take number 1, got %+v", order)
	}
}

func countRows(t *testing.T, store *gormrepository.Store, model any) int64 {
	t.Helper()
	var n int64
	err := store.InTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Model(model).Count(&n).Error
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestPullPendingOrdersFetchFailure(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{}
	ingestor, feed := newTestIngestor(t, fc, store)
	ctx := context.Background()

	res := ingestor.PullPendingOrders(ctx)
	if res.Synced != 0 || res.Failed != 1 {
		t.Fatalf("pull = %+v, want failed=1", res)
	}
	if _, ok := res.Errors["fetch"]; !ok {
		t.Fatalf("expected fetch error, got %+v", res.Errors)
	}
	events, _ := feed.Recent(ctx, 1)
	if len(events) != 1 || events[0].Success || events[0].Type != models.ActivityPullChanges {
		t.Fatalf("expected failed pull activity, got %+v", events)
	}
}

func TestPullPendingOrdersEmpty(t *testing.T) {
	store := newSQLiteStore(t)
	fc := &fakeCloud{pending: `{"data":[]}`}
	ingestor, _ := newTestIngestor(t, fc, store)

	res := ingestor.PullPendingOrders(context.Background())
	if res.Synced != 0 || res.Failed != 0 || len(res.Errors) != 0 {
		t.Fatalf("pull = %+v, want no-op", res)
	}
	if len(fc.confirms) != 0 {
		t.Fatalf("expected no confirm call")
	}
}

func TestDailyCounterDateKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	alloc := &DailyCounterAllocator{Location: loc}
	at := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	if got := alloc.DateKey(at); got != "2026-10-15" {
		t.Fatalf("DateKey=%s want 2026-10-15", got)
	}
	if _, err := (&DailyCounterAllocator{}).NextNumber(context.Background(), nil, at); err == nil {
		t.Fatalf("expected error without repository")
	}
}
