package models

import "time"

// DailyOrderCounter holds the last number handed out for a calendar date
// (YYYY-MM-DD in the restaurant zone).
type DailyOrderCounter struct {
	CounterDate   string    `gorm:"primaryKey;type:varchar(10)"`
	CurrentNumber int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (DailyOrderCounter) TableName() string {
	return "daily_order_counters"
}
