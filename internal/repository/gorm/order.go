package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viefmoon/bite-sub001/internal/models"
)

func (s *Store) OrderExistsTx(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return false, nil
	}
	var count int64
	if err := s.conn(ctx, tx).
		Model(&models.Order{}).
		Where("id = ?", strings.TrimSpace(id)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertOrderTx persists the order with its items and delivery info.
func (s *Store) InsertOrderTx(ctx context.Context, tx *gorm.DB, item *models.Order) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	db := s.conn(ctx, tx)
	if err := db.Omit(clause.Associations).Create(item).Error; err != nil {
		return err
	}
	for i := range item.Items {
		item.Items[i].OrderID = item.ID
	}
	if len(item.Items) > 0 {
		if err := db.Create(&item.Items).Error; err != nil {
			return err
		}
	}
	if item.DeliveryInfo != nil {
		item.DeliveryInfo.OrderID = item.ID
		if err := db.Create(item.DeliveryInfo).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindCustomerByContactTx matches on email first, then on phone.
func (s *Store) FindCustomerByContactTx(ctx context.Context, tx *gorm.DB, email, phone *string) (*models.Customer, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	db := s.conn(ctx, tx)
	if v := strings.ToLower(trimmed(email)); v != "" {
		item, err := takeCustomer(db.Where("LOWER(email) = ?", v))
		if err != nil || item != nil {
			return item, err
		}
	}
	if v := trimmed(phone); v != "" {
		return takeCustomer(db.Where("whatsapp_phone_number = ?", v))
	}
	return nil, nil
}

func takeCustomer(query *gorm.DB) (*models.Customer, error) {
	var item models.Customer
	err := query.Order("created_at asc").Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertCustomerTx(ctx context.Context, tx *gorm.DB, item *models.Customer) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Omit(clause.Associations).Create(item).Error
}

func (s *Store) InsertAddressTx(ctx context.Context, tx *gorm.DB, item *models.Address) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Create(item).Error
}

// FindAddressTx matches on id first, then on the customer's street and
// number.
func (s *Store) FindAddressTx(ctx context.Context, tx *gorm.DB, customerID, id, street, number string) (*models.Address, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	db := s.conn(ctx, tx)
	if v := strings.TrimSpace(id); v != "" {
		item, err := takeAddress(db.Where("id = ?", v))
		if err != nil || item != nil {
			return item, err
		}
	}
	street, number = strings.TrimSpace(street), strings.TrimSpace(number)
	if street == "" {
		return nil, nil
	}
	return takeAddress(db.Where("customer_id = ? AND LOWER(street) = ? AND number = ?",
		customerID, strings.ToLower(street), number))
}

func takeAddress(query *gorm.DB) (*models.Address, error) {
	var item models.Address
	err := query.Order("created_at asc").Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("DeliveryInfo").
		Where("id = ?", strings.TrimSpace(id)).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
