package cloud

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts use decimal.Decimal, which accepts both JSON numbers and the
// quoted strings the cloud emits for numeric columns.

type RemoteOrder struct {
	ID                    string              `json:"id"`
	Customer              *RemoteCustomer     `json:"customer,omitempty"`
	OrderItems            []RemoteOrderItem   `json:"orderItems"`
	DeliveryInfo          *RemoteDeliveryInfo `json:"deliveryInfo,omitempty"`
	OrderType             string              `json:"orderType"`
	Subtotal              decimal.Decimal     `json:"subtotal"`
	Total                 *decimal.Decimal    `json:"total,omitempty"`
	Notes                 *string             `json:"notes,omitempty"`
	ScheduledAt           *time.Time          `json:"scheduledAt,omitempty"`
	EstimatedDeliveryTime *time.Time          `json:"estimatedDeliveryTime,omitempty"`
	DailyOrderCounterID   *string             `json:"dailyOrderCounterId,omitempty"`
	CreatedAt             *time.Time          `json:"createdAt,omitempty"`
}

type RemoteOrderItem struct {
	ProductID        string          `json:"productId"`
	ProductVariantID *string         `json:"productVariantId,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	PreparationNotes *string         `json:"preparationNotes,omitempty"`
	Modifiers        json.RawMessage `json:"modifiers,omitempty" swaggertype:"object"`
}

type RemoteDeliveryInfo struct {
	FullAddress          *string  `json:"fullAddress,omitempty"`
	Street               *string  `json:"street,omitempty"`
	Number               *string  `json:"number,omitempty"`
	InteriorNumber       *string  `json:"interiorNumber,omitempty"`
	Neighborhood         *string  `json:"neighborhood,omitempty"`
	City                 *string  `json:"city,omitempty"`
	State                *string  `json:"state,omitempty"`
	ZipCode              *string  `json:"zipCode,omitempty"`
	Country              *string  `json:"country,omitempty"`
	RecipientName        *string  `json:"recipientName,omitempty"`
	RecipientPhone       *string  `json:"recipientPhone,omitempty"`
	DeliveryInstructions *string  `json:"deliveryInstructions,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
}

type RemoteCustomer struct {
	ID                  string          `json:"id,omitempty"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Email               *string         `json:"email,omitempty"`
	WhatsappPhoneNumber *string         `json:"whatsappPhoneNumber,omitempty"`
	BirthDate           *time.Time      `json:"birthDate,omitempty"`
	IsActive            *bool           `json:"isActive,omitempty"`
	IsBanned            *bool           `json:"isBanned,omitempty"`
	BanReason           *string         `json:"banReason,omitempty"`
	Address             *RemoteAddress  `json:"address,omitempty"`
	Addresses           []RemoteAddress `json:"addresses,omitempty"`
	UpdatedAt           *time.Time      `json:"updatedAt,omitempty"`
}

type RemoteAddress struct {
	ID                   string   `json:"id,omitempty"`
	Name                 string   `json:"name,omitempty"`
	Street               string   `json:"street"`
	Number               string   `json:"number"`
	InteriorNumber       *string  `json:"interiorNumber,omitempty"`
	Neighborhood         *string  `json:"neighborhood,omitempty"`
	City                 *string  `json:"city,omitempty"`
	State                *string  `json:"state,omitempty"`
	ZipCode              *string  `json:"zipCode,omitempty"`
	Country              *string  `json:"country,omitempty"`
	DeliveryInstructions *string  `json:"deliveryInstructions,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	IsDefault            bool     `json:"isDefault"`
}

type OrderConfirmation struct {
	OrderID     string `json:"orderId"`
	DailyNumber int    `json:"dailyNumber"`
}

type MenuCategory struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	IsActive      bool              `json:"isActive"`
	SortOrder     int               `json:"sortOrder"`
	PhotoURL      *string           `json:"photoUrl,omitempty"`
	Subcategories []MenuSubcategory `json:"subcategories"`
}

type MenuSubcategory struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	IsActive    bool          `json:"isActive"`
	SortOrder   int           `json:"sortOrder"`
	Products    []MenuProduct `json:"products"`
}

type MenuProduct struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Description       *string             `json:"description,omitempty"`
	Price             *decimal.Decimal    `json:"price,omitempty"`
	HasVariants       bool                `json:"hasVariants"`
	IsActive          bool                `json:"isActive"`
	IsPizza           bool                `json:"isPizza"`
	PhotoURL          *string             `json:"photoUrl,omitempty"`
	EstimatedPrepTime int                 `json:"estimatedPrepTime"`
	SortOrder         int                 `json:"sortOrder"`
	Variants          []MenuVariant       `json:"variants"`
	ModifierGroups    []MenuModifierGroup `json:"modifierGroups"`
}

type MenuVariant struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"isActive"`
	SortOrder int             `json:"sortOrder"`
}

type MenuModifierGroup struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	MinSelections int            `json:"minSelections"`
	MaxSelections int            `json:"maxSelections"`
	IsRequired    bool           `json:"isRequired"`
	AllowMultiple bool           `json:"allowMultipleSelections"`
	Modifiers     []MenuModifier `json:"productModifiers"`
}

type MenuModifier struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	IsDefault bool             `json:"isDefault"`
	IsActive  bool             `json:"isActive"`
	SortOrder int              `json:"sortOrder"`
}

type RestaurantConfig struct {
	RestaurantName        string          `json:"restaurantName"`
	PhoneMain             *string         `json:"phoneMain,omitempty"`
	PhoneSecondary        *string         `json:"phoneSecondary,omitempty"`
	Address               *string         `json:"address,omitempty"`
	City                  *string         `json:"city,omitempty"`
	State                 *string         `json:"state,omitempty"`
	PostalCode            *string         `json:"postalCode,omitempty"`
	Timezone              string          `json:"timeZone"`
	AcceptingOrders       bool            `json:"acceptingOrders"`
	EstimatedPickupTime   int             `json:"estimatedPickupTime"`
	EstimatedDeliveryTime int             `json:"estimatedDeliveryTime"`
	OpeningGracePeriod    int             `json:"openingGracePeriod"`
	ClosingGracePeriod    int             `json:"closingGracePeriod"`
	MinimumOrderValue     decimal.Decimal `json:"minimumOrderValue"`
	DeliveryCoverageArea  json.RawMessage `json:"deliveryCoverageArea,omitempty" swaggertype:"object"`
	BusinessHours         json.RawMessage `json:"businessHours,omitempty" swaggertype:"object"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}
