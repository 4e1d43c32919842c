package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/models"
)

// LoadMenuTree loads every category with its subcategories, products,
// variants and attached modifier groups.
func (s *Store) LoadMenuTree(ctx context.Context) ([]models.Category, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	bySort := func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }
	var items []models.Category
	if err := s.db.WithContext(ctx).
		Preload("Subcategories", bySort).
		Preload("Subcategories.Products", bySort).
		Preload("Subcategories.Products.Variants", bySort).
		Preload("Subcategories.Products.ModifierGroups", bySort).
		Preload("Subcategories.Products.ModifierGroups.Modifiers", bySort).
		Order("sort_order asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetRestaurantConfig(ctx context.Context) (*models.RestaurantConfig, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.RestaurantConfig
	err := s.db.WithContext(ctx).Order("updated_at desc").Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
