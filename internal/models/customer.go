package models

import "time"

// Customer.UpdatedAt is managed by the sync layer so remote timestamps
// survive an upsert. LastSyncedAt is the UpdatedAt value last accepted by
// the cloud; a newer UpdatedAt marks an unpushed local edit.
type Customer struct {
	ID                  string  `gorm:"primaryKey;type:varchar(36)"`
	FirstName           string  `gorm:"type:varchar(100)"`
	LastName            string  `gorm:"type:varchar(100)"`
	Email               *string `gorm:"type:varchar(255);index"`
	WhatsappPhoneNumber *string `gorm:"type:varchar(32);index"`
	BirthDate           *time.Time
	IsActive            bool       `gorm:"not null;default:true"`
	IsBanned            bool       `gorm:"not null;default:false"`
	BanReason           *string    `gorm:"type:text"`
	CreatedAt           time.Time  `gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime:false;index"`
	LastSyncedAt        *time.Time `gorm:"index"`

	Addresses []Address `gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string {
	return "customers"
}

type Address struct {
	ID                   string  `gorm:"primaryKey;type:varchar(36)"`
	CustomerID           string  `gorm:"type:varchar(36);not null;index"`
	Name                 string  `gorm:"type:varchar(100)"`
	Street               string  `gorm:"type:varchar(200)"`
	Number               string  `gorm:"type:varchar(20)"`
	InteriorNumber       *string `gorm:"type:varchar(20)"`
	Neighborhood         *string `gorm:"type:varchar(150)"`
	City                 *string `gorm:"type:varchar(100)"`
	State                *string `gorm:"type:varchar(100)"`
	ZipCode              *string `gorm:"type:varchar(10)"`
	Country              *string `gorm:"type:varchar(100)"`
	DeliveryInstructions *string `gorm:"type:text"`
	Latitude             *float64
	Longitude            *float64
	IsDefault            bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Address) TableName() string {
	return "addresses"
}
