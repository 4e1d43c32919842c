package models

import (
	"time"

	"gorm.io/datatypes"
)

type SyncType string

const (
	SyncTypeMenu      SyncType = "MENU"
	SyncTypeConfig    SyncType = "CONFIG"
	SyncTypeOrders    SyncType = "ORDERS"
	SyncTypeCustomers SyncType = "CUSTOMERS"
	SyncTypeFull      SyncType = "FULL"
)

type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "PENDING"
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	SyncStatusCompleted  SyncStatus = "COMPLETED"
	SyncStatusFailed     SyncStatus = "FAILED"
	SyncStatusPartial    SyncStatus = "PARTIAL"
)

// Terminal reports whether no further transition is allowed.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed || s == SyncStatusPartial
}

// SyncLog is one persisted sync run. Errors maps phase name to detail.
type SyncLog struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SyncType    SyncType       `gorm:"type:varchar(20);not null;index:idx_sync_logs_type_started,priority:1" json:"syncType"`
	Status      SyncStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ItemsSynced int            `gorm:"not null;default:0" json:"itemsSynced"`
	ItemsFailed int            `gorm:"not null;default:0" json:"itemsFailed"`
	Errors      datatypes.JSON `json:"errors,omitempty" swaggertype:"object"`
	StartedAt   time.Time      `gorm:"not null;index:idx_sync_logs_type_started,priority:2" json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Duration    *int           `json:"duration,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
