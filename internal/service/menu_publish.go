package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

type MenuAPI interface {
	PushMenu(ctx context.Context, categories []cloud.MenuCategory) error
	PushConfig(ctx context.Context, cfg cloud.RestaurantConfig) error
}

var ErrNoRestaurantConfig = errors.New("restaurant config not found")

const (
	publishKeyMenu   = "menu"
	publishKeyConfig = "config"
)

// MenuConfigPublisher pushes full snapshots of the menu and the restaurant
// config. The two pushes are independent.
type MenuConfigPublisher struct {
	Menu     repository.MenuRepository
	Config   repository.ConfigRepository
	Cloud    MenuAPI
	Activity activity.Store
	Logger   *zap.Logger
}

func (s *MenuConfigPublisher) PushMenuAndConfig(ctx context.Context) PhaseResult {
	var res PhaseResult
	if s == nil || s.Cloud == nil {
		return res
	}
	for _, step := range []struct {
		key string
		run func(context.Context) error
	}{
		{publishKeyMenu, s.PushMenu},
		{publishKeyConfig, s.PushConfig},
	} {
		if err := step.run(ctx); err != nil {
			s.logWarn("restaurant data push failed", err, zap.String("step", step.key))
			res.fail(step.key, err)
			continue
		}
		res.Synced++
	}
	return res
}

func (s *MenuConfigPublisher) PushMenu(ctx context.Context) (err error) {
	defer func() {
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityRestaurantData, models.DirectionOut, err == nil)
	}()
	if s.Menu == nil {
		return errors.New("menu reader is not configured")
	}
	tree, err := s.Menu.LoadMenuTree(ctx)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	categories := MenuPayload(tree)
	if err := s.Cloud.PushMenu(ctx, categories); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("menu pushed", zap.Int("categories", len(categories)))
	}
	return nil
}

func (s *MenuConfigPublisher) PushConfig(ctx context.Context) (err error) {
	defer func() {
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityRestaurantData, models.DirectionOut, err == nil)
	}()
	if s.Config == nil {
		return errors.New("config reader is not configured")
	}
	cfg, err := s.Config.GetRestaurantConfig(ctx)
	if err != nil {
		return fmt.Errorf("load restaurant config: %w", err)
	}
	if cfg == nil {
		return ErrNoRestaurantConfig
	}
	if err := s.Cloud.PushConfig(ctx, ConfigPayload(cfg)); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("restaurant config pushed")
	}
	return nil
}

// MenuPayload converts the local menu tree to its wire shape.
func MenuPayload(tree []models.Category) []cloud.MenuCategory {
	out := make([]cloud.MenuCategory, 0, len(tree))
	for _, c := range tree {
		cat := cloud.MenuCategory{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			IsActive:      c.IsActive,
			SortOrder:     c.SortOrder,
			PhotoURL:      c.PhotoURL,
			Subcategories: make([]cloud.MenuSubcategory, 0, len(c.Subcategories)),
		}
		for _, sc := range c.Subcategories {
			sub := cloud.MenuSubcategory{
				ID:          sc.ID,
				Name:        sc.Name,
				Description: sc.Description,
				IsActive:    sc.IsActive,
				SortOrder:   sc.SortOrder,
				Products:    make([]cloud.MenuProduct, 0, len(sc.Products)),
			}
			for _, p := range sc.Products {
				sub.Products = append(sub.Products, menuProduct(p))
			}
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		out = append(out, cat)
	}
	return out
}

func menuProduct(p models.Product) cloud.MenuProduct {
	out := cloud.MenuProduct{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		HasVariants:       p.HasVariants,
		IsActive:          p.IsActive,
		IsPizza:           p.IsPizza,
		PhotoURL:          p.PhotoURL,
		EstimatedPrepTime: p.EstimatedPrepTime,
		SortOrder:         p.SortOrder,
		Variants:          make([]cloud.MenuVariant, 0, len(p.Variants)),
		ModifierGroups:    make([]cloud.MenuModifierGroup, 0, len(p.ModifierGroups)),
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, cloud.MenuVariant{
			ID:        v.ID,
			Name:      v.Name,
			Price:     v.Price,
			IsActive:  v.IsActive,
			SortOrder: v.SortOrder,
		})
	}
	for _, g := range p.ModifierGroups {
		group := cloud.MenuModifierGroup{
			ID:            g.ID,
			Name:          g.Name,
			MinSelections: g.MinSelections,
			MaxSelections: g.MaxSelections,
			IsRequired:    g.IsRequired,
			AllowMultiple: g.AllowMultiple,
			Modifiers:     make([]cloud.MenuModifier, 0, len(g.Modifiers)),
		}
		for _, m := range g.Modifiers {
			group.Modifiers = append(group.Modifiers, cloud.MenuModifier{
				ID:        m.ID,
				Name:      m.Name,
				Price:     m.Price,
				IsDefault: m.IsDefault,
				IsActive:  m.IsActive,
				SortOrder: m.SortOrder,
			})
		}
		out.ModifierGroups = append(out.ModifierGroups, group)
	}
	return out
}

func ConfigPayload(cfg *models.RestaurantConfig) cloud.RestaurantConfig {
	return cloud.RestaurantConfig{
		RestaurantName:        cfg.RestaurantName,
		PhoneMain:             cfg.PhoneMain,
		PhoneSecondary:        cfg.PhoneSecondary,
		Address:               cfg.Address,
		City:                  cfg.City,
		State:                 cfg.State,
		PostalCode:            cfg.PostalCode,
		Timezone:              cfg.Timezone,
		AcceptingOrders:       cfg.AcceptingOrders,
		EstimatedPickupTime:   cfg.EstimatedPickupTime,
		EstimatedDeliveryTime: cfg.EstimatedDeliveryTime,
		OpeningGracePeriod:    cfg.OpeningGracePeriod,
		ClosingGracePeriod:    cfg.ClosingGracePeriod,
		MinimumOrderValue:     cfg.MinimumOrderValue,
		DeliveryCoverageArea:  rawJSON(cfg.DeliveryCoverageArea),
		BusinessHours:         rawJSON(cfg.BusinessHours),
		UpdatedAt:             cfg.UpdatedAt,
	}
}

func rawJSON(v []byte) json.RawMessage {
	if len(v) == 0 {
		return nil
	}
	return json.RawMessage(v)
}

func (s *MenuConfigPublisher) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
