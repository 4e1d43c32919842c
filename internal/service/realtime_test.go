package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/viefmoon/bite-sub001/internal/client/cloud"
)

// fakeSource hands its handler to the test and blocks until cancelled, or
// returns err straight away when set.
type fakeSource struct {
	err     error
	mu      sync.Mutex
	handler *cloud.StreamHandler
	ready   chan struct{}
}

func (s *fakeSource) Run(ctx context.Context, h cloud.StreamHandler) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.handler = &h
	s.mu.Unlock()
	if h.OnConnected != nil {
		h.OnConnected()
	}
	close(s.ready)
	<-ctx.Done()
	if h.OnDisconnected != nil {
		h.OnDisconnected(ctx.Err())
	}
	return ctx.Err()
}

func (s *fakeSource) emit(event string, data any) {
	raw, _ := json.Marshal(data)
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h.OnEvent(cloud.Event{Event: event, Data: raw})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRealtimeNotifierCoalescesHints(t *testing.T) {
	src := &fakeSource{ready: make(chan struct{})}
	orders := &stubPhase{
		result:  PhaseResult{Synced: 1},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	entered := orders.entered
	stats := NewStatusTracker()
	n := &RealtimeNotifier{Source: src, Orders: orders, Stats: stats}

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer n.Stop()
	<-src.ready
	if !n.Connected() {
		t.Fatalf("expected connected after handshake")
	}

	src.emit(cloud.EventOrderNew, cloud.OrderNewPayload{OrderID: "o1"})
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("hint did not trigger a pull")
	}
	src.emit("menu:updated", map[string]string{})
	for _, id := range []string{"o2", "o3", "o4"} {
		src.emit(cloud.EventOrderNew, cloud.OrderNewPayload{OrderID: id})
	}
	close(orders.block)

	waitFor(t, "second pull", func() bool { return orders.count() == 2 })
	time.Sleep(50 * time.Millisecond)
	if got := orders.count(); got != 2 {
		t.Fatalf("pulls=%d want 2", got)
	}
	waitFor(t, "stats", func() bool { return stats.Snapshot().PullCount == 2 })
	if s := stats.Snapshot(); s.SuccessfulPulls != 2 || s.LastPullTime == nil {
		t.Fatalf("stats=%+v", s)
	}
}

func TestRealtimeNotifierReportsExhaustedReconnect(t *testing.T) {
	src := &fakeSource{err: cloud.ErrReconnectExhausted}
	n := &RealtimeNotifier{Source: src, Orders: &stubPhase{}}

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer n.Stop()
	waitFor(t, "failed flag", n.Failed)
	if n.Connected() {
		t.Fatalf("should not report connected")
	}
}

func TestRealtimeNotifierStopClearsConnected(t *testing.T) {
	src := &fakeSource{ready: make(chan struct{})}
	n := &RealtimeNotifier{Source: src, Orders: &stubPhase{}}
	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-src.ready
	n.Stop()
	if n.Connected() || n.Failed() {
		t.Fatalf("stopped notifier should be idle, connected=%v failed=%v", n.Connected(), n.Failed())
	}
	n.Stop()

	var nilNotifier *RealtimeNotifier
	if nilNotifier.Connected() || nilNotifier.Failed() {
		t.Fatalf("nil notifier must report idle")
	}
	if err := nilNotifier.Start(context.Background()); err == nil {
		t.Fatalf("expected error starting a nil notifier")
	}
}
