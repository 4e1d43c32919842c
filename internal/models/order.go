package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeAway OrderType = "TAKE_AWAY"
	OrderTypeDelivery OrderType = "DELIVERY"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusInPrep     OrderStatus = "IN_PREPARATION"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusInDelivery OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order keeps the cloud id as primary key; that key is what makes
// ingestion idempotent.
type Order struct {
	ID                    string          `gorm:"primaryKey;type:varchar(64)"`
	DailyNumber           int             `gorm:"not null;uniqueIndex:idx_orders_date_number,priority:2"`
	OrderDate             string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_orders_date_number,priority:1"`
	DailyOrderCounterID   *string         `gorm:"type:varchar(64)"`
	OrderType             OrderType       `gorm:"type:varchar(20);not null"`
	OrderStatus           OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IsFromWhatsApp        bool            `gorm:"not null;default:false"`
	Subtotal              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Total                 decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Notes                 *string         `gorm:"type:text"`
	ScheduledAt           *time.Time
	EstimatedDeliveryTime *time.Time
	CustomerID            *string   `gorm:"type:varchar(36);index"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`

	Items        []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveryInfo *DeliveryInfo `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)"`
	OrderID          string          `gorm:"type:varchar(64);not null;index"`
	ProductID        string          `gorm:"type:varchar(64);not null"`
	ProductVariantID *string         `gorm:"type:varchar(64)"`
	Quantity         int             `gorm:"not null;default:1"`
	BasePrice        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	FinalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PreparationNotes *string         `gorm:"type:text"`
	Modifiers        datatypes.JSON
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// DeliveryInfo is a snapshot of where the order goes, copied from the
// remote payload so later address edits do not rewrite history.
type DeliveryInfo struct {
	ID                   string  `gorm:"primaryKey;type:varchar(36)"`
	OrderID              string  `gorm:"type:varchar(64);not null;uniqueIndex"`
	AddressID            *string `gorm:"type:varchar(36)"`
	FullAddress          *string `gorm:"type:text"`
	Street               *string `gorm:"type:varchar(200)"`
	Number               *string `gorm:"type:varchar(20)"`
	InteriorNumber       *string `gorm:"type:varchar(20)"`
	Neighborhood         *string `gorm:"type:varchar(150)"`
	City                 *string `gorm:"type:varchar(100)"`
	State                *string `gorm:"type:varchar(100)"`
	ZipCode              *string `gorm:"type:varchar(10)"`
	Country              *string `gorm:"type:varchar(100)"`
	RecipientName        *string `gorm:"type:varchar(200)"`
	RecipientPhone       *string `gorm:"type:varchar(32)"`
	DeliveryInstructions *string `gorm:"type:text"`
	Latitude             *float64
	Longitude            *float64
	CreatedAt            time.Time `gorm:"autoCreateTime"`
}

func (DeliveryInfo) TableName() string {
	return "delivery_info"
}
