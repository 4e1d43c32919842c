package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/models"
)

// UnitOfWork runs fn inside one database transaction.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type SyncLogRepository interface {
	InsertSyncLog(ctx context.Context, item *models.SyncLog) error
	UpdateSyncLog(ctx context.Context, item *models.SyncLog) error
	GetSyncLog(ctx context.Context, id string) (*models.SyncLog, error)
	GetLatestSyncLog(ctx context.Context, syncType models.SyncType, statuses ...models.SyncStatus) (*models.SyncLog, error)
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)
	CountSyncLogs(ctx context.Context, params ListSyncLogsParams) (int64, error)
}

type CounterRepository interface {
	// IncrementDailyCounterTx creates the row for date on first use and
	// returns the incremented value. The row stays locked until tx ends.
	IncrementDailyCounterTx(ctx context.Context, tx *gorm.DB, date string) (int, error)
	GetDailyCounter(ctx context.Context, date string) (*models.DailyOrderCounter, error)
}

// OrderRepository is the order-aggregate writer used by ingestion.
type OrderRepository interface {
	UnitOfWork
	OrderExistsTx(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	InsertOrderTx(ctx context.Context, tx *gorm.DB, item *models.Order) error
	GetCustomerTx(ctx context.Context, tx *gorm.DB, id string) (*models.Customer, error)
	FindCustomerByContactTx(ctx context.Context, tx *gorm.DB, email, phone *string) (*models.Customer, error)
	FindAddressTx(ctx context.Context, tx *gorm.DB, customerID, id, street, number string) (*models.Address, error)
	InsertCustomerTx(ctx context.Context, tx *gorm.DB, item *models.Customer) error
	InsertAddressTx(ctx context.Context, tx *gorm.DB, item *models.Address) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CountOrders(ctx context.Context) (int64, error)
}

type CustomerRepository interface {
	UnitOfWork
	GetCustomerTx(ctx context.Context, tx *gorm.DB, id string) (*models.Customer, error)
	UpsertCustomerTx(ctx context.Context, tx *gorm.DB, item *models.Customer) error
	ListCustomersPendingPush(ctx context.Context, limit int) ([]models.Customer, error)
	// MarkCustomersSynced stamps last_synced_at for rows whose updated_at is
	// still the pushed value; it returns how many rows were stamped.
	MarkCustomersSynced(ctx context.Context, pushed []CustomerVersion) (int, error)
}

type CustomerVersion struct {
	ID        string
	UpdatedAt time.Time
}

// MenuRepository is the menu-tree reader.
type MenuRepository interface {
	LoadMenuTree(ctx context.Context) ([]models.Category, error)
}

// ConfigRepository is the restaurant-config reader.
type ConfigRepository interface {
	GetRestaurantConfig(ctx context.Context) (*models.RestaurantConfig, error)
}

// Repository is everything the sync engine persists through.
type Repository interface {
	SyncLogRepository
	CounterRepository
	OrderRepository
	CustomerRepository
	MenuRepository
	ConfigRepository
}

type ListSyncLogsParams struct {
	Limit    int
	Offset   int
	SyncType *string
	Status   *string
	OrderBy  string
	Asc      *bool
}
