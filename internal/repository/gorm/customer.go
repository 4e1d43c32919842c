package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

func (s *Store) GetCustomerTx(ctx context.Context, tx *gorm.DB, id string) (*models.Customer, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	var item models.Customer
	err := s.conn(ctx, tx).Where("id = ?", strings.TrimSpace(id)).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertCustomerTx writes the customer row and its addresses by id.
// updated_at and last_synced_at are taken from item as-is.
func (s *Store) UpsertCustomerTx(ctx context.Context, tx *gorm.DB, item *models.Customer) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	db := s.conn(ctx, tx)
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name",
			"last_name",
			"email",
			"whatsapp_phone_number",
			"birth_date",
			"is_active",
			"is_banned",
			"ban_reason",
			"updated_at",
			"last_synced_at",
		}),
	}).Create(item).Error; err != nil {
		return err
	}
	for i := range item.Addresses {
		addr := &item.Addresses[i]
		addr.CustomerID = item.ID
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"street",
				"number",
				"interior_number",
				"neighborhood",
				"city",
				"state",
				"zip_code",
				"country",
				"delivery_instructions",
				"latitude",
				"longitude",
				"is_default",
				"updated_at",
			}),
		}).Create(addr).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListCustomersPendingPush returns customers edited since their last
// accepted push, oldest edit first.
func (s *Store) ListCustomersPendingPush(ctx context.Context, limit int) ([]models.Customer, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Customer
	if err := s.db.WithContext(ctx).
		Model(&models.Customer{}).
		Preload("Addresses").
		Where("last_synced_at IS NULL OR updated_at > last_synced_at").
		Order("updated_at asc").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkCustomersSynced(ctx context.Context, pushed []repository.CustomerVersion) (int, error) {
	if s == nil || s.db == nil || len(pushed) == 0 {
		return 0, nil
	}
	marked := 0
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		for _, version := range pushed {
			current, err := s.GetCustomerTx(ctx, tx, version.ID)
			if err != nil {
				return err
			}
			// edited again while the push was in flight
			if current == nil || !current.UpdatedAt.Equal(version.UpdatedAt) {
				continue
			}
			stamp := current.UpdatedAt
			if err := tx.Model(&models.Customer{}).
				Where("id = ?", current.ID).
				UpdateColumn("last_synced_at", stamp).Error; err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}
