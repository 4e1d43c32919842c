package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description *string   `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true"`
	SortOrder   int       `gorm:"not null;default:0"`
	PhotoURL    *string   `gorm:"type:text"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string { return "categories" }

type Subcategory struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	CategoryID  string    `gorm:"type:varchar(64);not null;index"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description *string   `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true"`
	SortOrder   int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Products []Product `gorm:"foreignKey:SubcategoryID"`
}

func (Subcategory) TableName() string { return "subcategories" }

type Product struct {
	ID                string           `gorm:"primaryKey;type:varchar(64)"`
	SubcategoryID     string           `gorm:"type:varchar(64);not null;index"`
	Name              string           `gorm:"type:varchar(150);not null"`
	Description       *string          `gorm:"type:text"`
	Price             *decimal.Decimal `gorm:"type:numeric(12,2)"`
	HasVariants       bool             `gorm:"not null;default:false"`
	IsActive          bool             `gorm:"not null;default:true"`
	IsPizza           bool             `gorm:"not null;default:false"`
	PhotoURL          *string          `gorm:"type:text"`
	EstimatedPrepTime int              `gorm:"not null;default:0"`
	SortOrder         int              `gorm:"not null;default:0"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime"`

	Variants       []ProductVariant `gorm:"foreignKey:ProductID"`
	ModifierGroups []ModifierGroup  `gorm:"many2many:product_modifier_groups"`
}

func (Product) TableName() string { return "products" }

type ProductVariant struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)"`
	ProductID string          `gorm:"type:varchar(64);not null;index"`
	Name      string          `gorm:"type:varchar(100);not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	IsActive  bool            `gorm:"not null;default:true"`
	SortOrder int             `gorm:"not null;default:0"`
}

func (ProductVariant) TableName() string { return "product_variants" }

type ModifierGroup struct {
	ID            string  `gorm:"primaryKey;type:varchar(64)"`
	Name          string  `gorm:"type:varchar(100);not null"`
	Description   *string `gorm:"type:text"`
	MinSelections int     `gorm:"not null;default:0"`
	MaxSelections int     `gorm:"not null;default:1"`
	IsRequired    bool    `gorm:"not null;default:false"`
	AllowMultiple bool    `gorm:"not null;default:false"`
	IsActive      bool    `gorm:"not null;default:true"`
	SortOrder     int     `gorm:"not null;default:0"`

	Modifiers []ProductModifier `gorm:"foreignKey:ModifierGroupID"`
}

func (ModifierGroup) TableName() string { return "modifier_groups" }

type ProductModifier struct {
	ID              string           `gorm:"primaryKey;type:varchar(64)"`
	ModifierGroupID string           `gorm:"type:varchar(64);not null;index"`
	Name            string           `gorm:"type:varchar(100);not null"`
	Price           *decimal.Decimal `gorm:"type:numeric(12,2)"`
	IsDefault       bool             `gorm:"not null;default:false"`
	IsActive        bool             `gorm:"not null;default:true"`
	SortOrder       int              `gorm:"not null;default:0"`
}

func (ProductModifier) TableName() string { return "product_modifiers" }
