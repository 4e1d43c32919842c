package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

type OrdersAPI interface {
	GetPendingOrders(ctx context.Context) ([]cloud.RemoteOrder, error)
	ConfirmOrders(ctx context.Context, updates []cloud.OrderConfirmation) error
}

// OrderOutcome is the result of ingesting one remote order. Skipped means
// the id was already present locally.
type OrderOutcome struct {
	OrderID     string
	DailyNumber int
	Skipped     bool
	Err         error
}

// OrderIngestor turns pending cloud orders into local orders. Each order is
// written in its own transaction, so a bad order never takes earlier ones
// down with it and never burns a daily number.
type OrderIngestor struct {
	Repo     repository.OrderRepository
	Cloud    OrdersAPI
	Counter  *DailyCounterAllocator
	Activity activity.Store
	Clock    Clock
	Logger   *zap.Logger

	mu sync.Mutex
}

// PullPendingOrders fetches, ingests and confirms. Concurrent callers are
// serialised.
func (s *OrderIngestor) PullPendingOrders(ctx context.Context) PhaseResult {
	var res PhaseResult
	if s == nil || s.Repo == nil || s.Cloud == nil {
		return res
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, err := s.Cloud.GetPendingOrders(ctx)
	if err != nil {
		s.logWarn("pending orders fetch failed", err)
		res.fail("fetch", err)
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityPullChanges, models.DirectionIn, false)
		return res
	}
	if len(remote) == 0 {
		return res
	}

	outcomes := s.IngestOrders(ctx, remote)
	confirms := make([]cloud.OrderConfirmation, 0, len(outcomes))
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			key := out.OrderID
			if key == "" {
				key = "unknown"
			}
			res.fail(key, out.Err)
		case out.Skipped:
			// re-confirm so the cloud stops resending it
			if out.DailyNumber > 0 {
				confirms = append(confirms, cloud.OrderConfirmation{OrderID: out.OrderID, DailyNumber: out.DailyNumber})
			}
		default:
			res.Synced++
			confirms = append(confirms, cloud.OrderConfirmation{OrderID: out.OrderID, DailyNumber: out.DailyNumber})
		}
	}
	recordActivity(ctx, s.Activity, s.Logger, models.ActivityPullChanges, models.DirectionIn, res.Failed == 0)

	if len(confirms) > 0 {
		if err := s.Cloud.ConfirmOrders(ctx, confirms); err != nil {
			// local rows are committed; the id check absorbs the resend
			s.logWarn("order confirmation failed", err, zap.Int("orders", len(confirms)))
			res.fail("confirm", err)
			recordActivity(ctx, s.Activity, s.Logger, models.ActivityOrderStatus, models.DirectionOut, false)
		} else {
			recordActivity(ctx, s.Activity, s.Logger, models.ActivityOrderStatus, models.DirectionOut, true)
		}
	}

	if s.Logger != nil {
		s.Logger.Info("pending orders pulled",
			zap.Int("received", len(remote)),
			zap.Int("ingested", res.Synced),
			zap.Int("failed", res.Failed),
		)
	}
	return res
}

// IngestOrders processes each order independently and reports one outcome
// per input, in order.
func (s *OrderIngestor) IngestOrders(ctx context.Context, orders []cloud.RemoteOrder) []OrderOutcome {
	out := make([]OrderOutcome, 0, len(orders))
	for _, remote := range orders {
		outcome := s.ingestOne(ctx, remote)
		if outcome.Err != nil {
			s.logWarn("order ingest failed", outcome.Err, zap.String("order_id", outcome.OrderID))
		}
		out = append(out, outcome)
	}
	return out
}

func (s *OrderIngestor) ingestOne(ctx context.Context, remote cloud.RemoteOrder) OrderOutcome {
	outcome := OrderOutcome{OrderID: strings.TrimSpace(remote.ID)}
	if outcome.OrderID == "" {
		outcome.Err = errors.New("remote order has no id")
		return outcome
	}
	if len(remote.OrderItems) == 0 {
		outcome.Err = errors.New("remote order has no items")
		return outcome
	}
	for i, item := range remote.OrderItems {
		if item.Quantity <= 0 {
			outcome.Err = fmt.Errorf("remote order item %d has quantity %d", i, item.Quantity)
			return outcome
		}
	}
	now := nowUTC(s.Clock)

	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.Repo.OrderExistsTx(ctx, tx, outcome.OrderID)
		if err != nil {
			return fmt.Errorf("check order: %w", err)
		}
		if exists {
			outcome.Skipped = true
			return nil
		}

		number, err := s.Counter.NextNumber(ctx, tx, now)
		if err != nil {
			return fmt.Errorf("allocate daily number: %w", err)
		}

		var customerID, addressID *string
		if remote.Customer != nil {
			customer, address, err := s.resolveCustomer(ctx, tx, remote.Customer, now)
			if err != nil {
				return err
			}
			customerID = &customer.ID
			if address != nil {
				addressID = &address.ID
			}
		}

		order := buildOrder(remote, now)
		order.DailyNumber = number
		order.OrderDate = s.Counter.DateKey(now)
		order.CustomerID = customerID
		if order.DeliveryInfo != nil {
			order.DeliveryInfo.AddressID = addressID
		}
		if err := s.Repo.InsertOrderTx(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		outcome.DailyNumber = number
		return nil
	})
	if err != nil {
		outcome.Err = err
		outcome.DailyNumber = 0
		return outcome
	}
	if outcome.Skipped {
		if existing, err := s.Repo.GetOrder(ctx, outcome.OrderID); err == nil && existing != nil {
			outcome.DailyNumber = existing.DailyNumber
		}
	}
	return outcome
}

// resolveCustomer finds the customer by id, then email, then phone, creating
// it when all three miss. The delivery address is matched against the
// customer's saved addresses or added to them.
func (s *OrderIngestor) resolveCustomer(ctx context.Context, tx *gorm.DB, rc *cloud.RemoteCustomer, now time.Time) (*models.Customer, *models.Address, error) {
	var found *models.Customer
	if id := strings.TrimSpace(rc.ID); id != "" {
		item, err := s.Repo.GetCustomerTx(ctx, tx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("get customer: %w", err)
		}
		found = item
	}
	if found == nil {
		item, err := s.Repo.FindCustomerByContactTx(ctx, tx, rc.Email, rc.WhatsappPhoneNumber)
		if err != nil {
			return nil, nil, fmt.Errorf("find customer: %w", err)
		}
		found = item
	}
	if found != nil {
		address, err := s.resolveAddress(ctx, tx, found.ID, rc.Address, false)
		if err != nil {
			return nil, nil, err
		}
		return found, address, nil
	}

	customer := customerFromRemote(rc, now)
	if customer.ID == "" {
		customer.ID = uuid.NewString()
		// unknown to the cloud under this id; leave it pending push
		customer.LastSyncedAt = nil
	}
	if err := s.Repo.InsertCustomerTx(ctx, tx, customer); err != nil {
		return nil, nil, fmt.Errorf("insert customer: %w", err)
	}
	address, err := s.resolveAddress(ctx, tx, customer.ID, rc.Address, true)
	if err != nil {
		return nil, nil, err
	}
	return customer, address, nil
}

func (s *OrderIngestor) resolveAddress(ctx context.Context, tx *gorm.DB, customerID string, ra *cloud.RemoteAddress, isDefault bool) (*models.Address, error) {
	if ra == nil {
		return nil, nil
	}
	if !isDefault {
		found, err := s.Repo.FindAddressTx(ctx, tx, customerID, ra.ID, ra.Street, ra.Number)
		if err != nil {
			return nil, fmt.Errorf("find address: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	address := addressFromRemote(*ra, customerID)
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	address.IsDefault = isDefault
	if err := s.Repo.InsertAddressTx(ctx, tx, address); err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}
	return address, nil
}

func buildOrder(remote cloud.RemoteOrder, now time.Time) *models.Order {
	total := remote.Subtotal
	if remote.Total != nil {
		total = *remote.Total
	}
	order := &models.Order{
		ID:                    strings.TrimSpace(remote.ID),
		DailyOrderCounterID:   remote.DailyOrderCounterID,
		OrderType:             orderTypeOf(remote),
		OrderStatus:           models.OrderStatusPending,
		IsFromWhatsApp:        true,
		Subtotal:              remote.Subtotal,
		Total:                 total,
		Notes:                 remote.Notes,
		ScheduledAt:           utcPtr(remote.ScheduledAt),
		EstimatedDeliveryTime: utcPtr(remote.EstimatedDeliveryTime),
		CreatedAt:             now,
	}
	for _, item := range remote.OrderItems {
		order.Items = append(order.Items, buildOrderItem(item))
	}
	if remote.DeliveryInfo != nil {
		order.DeliveryInfo = buildDeliveryInfo(*remote.DeliveryInfo)
	}
	return order
}

func buildOrderItem(item cloud.RemoteOrderItem) models.OrderItem {
	qty := item.Quantity
	final := item.Subtotal
	if final.IsZero() {
		final = item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	}
	out := models.OrderItem{
		ID:               uuid.NewString(),
		ProductID:        item.ProductID,
		ProductVariantID: item.ProductVariantID,
		Quantity:         qty,
		BasePrice:        item.UnitPrice,
		FinalPrice:       final,
		PreparationNotes: item.PreparationNotes,
	}
	if len(item.Modifiers) > 0 && string(item.Modifiers) != "null" {
		out.Modifiers = datatypes.JSON(item.Modifiers)
	}
	return out
}

func buildDeliveryInfo(d cloud.RemoteDeliveryInfo) *models.DeliveryInfo {
	return &models.DeliveryInfo{
		ID:                   uuid.NewString(),
		FullAddress:          d.FullAddress,
		Street:               d.Street,
		Number:               d.Number,
		InteriorNumber:       d.InteriorNumber,
		Neighborhood:         d.Neighborhood,
		City:                 d.City,
		State:                d.State,
		ZipCode:              d.ZipCode,
		Country:              d.Country,
		RecipientName:        d.RecipientName,
		RecipientPhone:       d.RecipientPhone,
		DeliveryInstructions: d.DeliveryInstructions,
		Latitude:             d.Latitude,
		Longitude:            d.Longitude,
	}
}

func orderTypeOf(remote cloud.RemoteOrder) models.OrderType {
	switch models.OrderType(strings.ToUpper(strings.TrimSpace(remote.OrderType))) {
	case models.OrderTypeDineIn:
		return models.OrderTypeDineIn
	case models.OrderTypeTakeAway:
		return models.OrderTypeTakeAway
	case models.OrderTypeDelivery:
		return models.OrderTypeDelivery
	}
	if remote.DeliveryInfo != nil {
		return models.OrderTypeDelivery
	}
	return models.OrderTypeTakeAway
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return timePtr(t.UTC())
}

func (s *OrderIngestor) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
