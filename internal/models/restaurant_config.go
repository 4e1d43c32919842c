package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RestaurantConfig is a singleton row.
type RestaurantConfig struct {
	ID                    string  `gorm:"primaryKey;type:varchar(36)"`
	RestaurantName        string  `gorm:"type:varchar(150)"`
	PhoneMain             *string `gorm:"type:varchar(32)"`
	PhoneSecondary        *string `gorm:"type:varchar(32)"`
	Address               *string `gorm:"type:text"`
	City                  *string `gorm:"type:varchar(100)"`
	State                 *string `gorm:"type:varchar(100)"`
	PostalCode            *string `gorm:"type:varchar(10)"`
	Timezone              string  `gorm:"type:varchar(64);not null;default:'America/Mexico_City'"`
	AcceptingOrders       bool    `gorm:"not null;default:true"`
	EstimatedPickupTime   int     `gorm:"not null;default:20"`
	EstimatedDeliveryTime int     `gorm:"not null;default:40"`
	OpeningGracePeriod    int     `gorm:"not null;default:30"`
	ClosingGracePeriod    int     `gorm:"not null;default:30"`
	DeliveryCoverageArea  datatypes.JSON
	MinimumOrderValue     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	BusinessHours         datatypes.JSON
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (RestaurantConfig) TableName() string {
	return "restaurant_config"
}
