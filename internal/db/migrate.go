package db

import (
	"github.com/viefmoon/bite-sub001/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.SyncLog{},
		&models.DailyOrderCounter{},
		&models.Customer{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryInfo{},
		&models.Category{},
		&models.Subcategory{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ModifierGroup{},
		&models.ProductModifier{},
		&models.RestaurantConfig{},
	)
}
