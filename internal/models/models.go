package models

import "time"

type ProductUnit string

const (
	UnitKg  ProductUnit = "kg"
	UnitG   ProductUnit = "g"
	UnitPcs ProductUnit = "pcs"
	UnitL   ProductUnit = "l"
)

func (u ProductUnit) Valid() bool {
	switch u {
	case UnitKg, UnitG, UnitPcs, UnitL:
		return true
	}
	return false
}

type Portion string

const (
	PortionWhole   Portion = "whole"
	PortionHalf    Portion = "half"
	PortionQuarter Portion = "quarter"
)

func (p Portion) Valid() bool {
	switch p {
	case PortionWhole, PortionHalf, PortionQuarter:
		return true
	}
	return false
}

type ProductStatus string

const (
	StatusAvailable  ProductStatus = "available"
	StatusOutOfStock ProductStatus = "out_of_stock"
	StatusHidden     ProductStatus = "hidden"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CustomerType selects which wholesale price tier applies to a user.
type CustomerType string

const (
	CustomerRetail         CustomerType = "retail"
	CustomerRegular        CustomerType = "regular"
	CustomerWholesale      CustomerType = "wholesale"
	CustomerMidWholesale   CustomerType = "mid_wholesale"
	CustomerLargeWholesale CustomerType = "large_wholesale"
)

func (c CustomerType) Valid() bool {
	switch c {
	case CustomerRetail, CustomerRegular, CustomerWholesale, CustomerMidWholesale, CustomerLargeWholesale:
		return true
	}
	return false
}

// MarkupMode controls whether a tier price comes from the bulk markup
// operation or is entered by hand. Manual prices are never overwritten by
// bulk markup runs.
type MarkupMode string

const (
	MarkupGlobal MarkupMode = "global"
	MarkupManual MarkupMode = "manual"
)

// PriceOverrides holds optional per-unit prices for fractional portions of a
// kg product. A nil field means no override; the resolver also treats an
// explicit zero as "no override".
type PriceOverrides struct {
	Half    *float64 `json:"half,omitempty"`
	Quarter *float64 `json:"quarter,omitempty"`
}

type Product struct {
	ID              uint                        `json:"id"`
	Name            string                      `json:"name"`
	Description     string                      `json:"description"`
	PricePerUnit    float64                     `json:"price_per_unit"`
	Unit            ProductUnit                 `json:"unit"`
	Packaging       string                      `json:"packaging"`
	UnitValue       float64                     `json:"unit_value"`
	Categories      []string                    `json:"categories"`
	ImageURLs       []string                    `json:"image_urls"`
	AllowedPortions []Portion                   `json:"allowed_portions"`
	Status          ProductStatus               `json:"status"`
	PriceOverrides  PriceOverrides              `json:"price_overrides"`
	CostPrice       *float64                    `json:"cost_price,omitempty"`
	PriceTiers      map[CustomerType]float64    `json:"price_tiers,omitempty"`
	MarkupModes     map[CustomerType]MarkupMode `json:"markup_modes,omitempty"`
}

// AllowsPortion reports whether portion is enabled for the product.
// Whole is always allowed.
func (p Product) AllowsPortion(portion Portion) bool {
	if portion == PortionWhole {
		return true
	}
	for _, allowed := range p.AllowedPortions {
		if allowed == portion {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is immutable after creation except for Status.
type Order struct {
	ID          string      `json:"id"`
	UserID      uint        `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	TotalWeight float64     `json:"total_weight"`
	Status      OrderStatus `json:"status"`
}

type User struct {
	ID           uint         `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
	IsAdmin      bool         `json:"is_admin"`
	Name         string       `json:"name,omitempty"`
	City         string       `json:"city,omitempty"`
	Address      string       `json:"address,omitempty"`
	CustomerType CustomerType `json:"customer_type"`
}

// RefreshToken backs the JWT rotation scheme. Unlike the catalog, order and
// user collections it lives in its own relational table, not in a KV blob.
type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
