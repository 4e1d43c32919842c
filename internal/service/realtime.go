package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/viefmoon/bite-sub001/internal/client/cloud"
)

type EventSource interface {
	Run(ctx context.Context, h cloud.StreamHandler) error
}

// RealtimeNotifier listens for order:new hints and answers each with a pull.
// The hint payload is never trusted as order data. Hints that arrive while a
// pull is queued are folded into it.
type RealtimeNotifier struct {
	Source EventSource
	Orders OrderPuller
	Stats  *StatusTracker
	Clock  Clock
	Logger *zap.Logger

	connected atomic.Bool
	failed    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	hints  chan string
}

func (n *RealtimeNotifier) Connected() bool {
	return n != nil && n.connected.Load()
}

// Failed reports that reconnection gave up; it clears on the next connect.
func (n *RealtimeNotifier) Failed() bool {
	return n != nil && n.failed.Load()
}

func (n *RealtimeNotifier) Start(ctx context.Context) error {
	if n == nil || n.Source == nil || n.Orders == nil {
		return errors.New("realtime notifier is not configured")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.hints = make(chan string, 1)
	n.failed.Store(false)

	n.wg.Add(2)
	go func() {
		defer n.wg.Done()
		n.listen(runCtx)
	}()
	go func() {
		defer n.wg.Done()
		n.drain(runCtx)
	}()
	return nil
}

func (n *RealtimeNotifier) Stop() {
	if n == nil {
		return
	}
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	n.wg.Wait()
	n.connected.Store(false)
}

func (n *RealtimeNotifier) listen(ctx context.Context) {
	err := n.Source.Run(ctx, cloud.StreamHandler{
		OnConnected: func() {
			n.connected.Store(true)
			n.failed.Store(false)
		},
		OnDisconnected: func(err error) {
			n.connected.Store(false)
			if err != nil && ctx.Err() == nil && n.Logger != nil {
				n.Logger.Warn("realtime socket disconnected", zap.Error(err))
			}
		},
		OnEvent: n.handleEvent,
	})
	n.connected.Store(false)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	n.failed.Store(true)
	if n.Logger != nil {
		n.Logger.Error("realtime socket stopped", zap.Error(err))
	}
}

func (n *RealtimeNotifier) handleEvent(ev cloud.Event) {
	if ev.Event != cloud.EventOrderNew {
		return
	}
	var payload cloud.OrderNewPayload
	_ = json.Unmarshal(ev.Data, &payload)
	if n.Logger != nil {
		n.Logger.Info("order hint received", zap.String("order_id", payload.OrderID))
	}
	select {
	case n.hints <- payload.OrderID:
	default:
		// a pull is already queued and will see this order too
	}
}

func (n *RealtimeNotifier) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.hints:
			res := n.Orders.PullPendingOrders(ctx)
			n.Stats.RecordPull(res.OK(), nowUTC(n.Clock))
			if n.Logger != nil {
				n.Logger.Info("realtime pull finished",
					zap.Int("synced", res.Synced),
					zap.Int("failed", res.Failed),
				)
			}
		}
	}
}
