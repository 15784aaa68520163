package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item and its current stock.
type Product struct {
	ID              uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string          `json:"name" gorm:"size:255;not null;index"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity        int             `json:"quantity" gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0"`
	QuantityInitial int             `json:"quantity_initial" gorm:"not null;default:0"` // stock at creation, never updated
	Brand           string          `json:"brand" gorm:"size:100;index"`
	Style           string          `json:"style" gorm:"size:100;index"`
	Type            string          `json:"type" gorm:"size:100;index"`
	Photo           *string         `json:"photo,omitempty" gorm:"size:255"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Sold            bool            `json:"sold" gorm:"not null;default:false"`
	LastSaleAt      *time.Time      `json:"last_sale_at,omitempty" gorm:"index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UnitsSold returns how many units left the stock since creation.
func (p *Product) UnitsSold() int {
	if sold := p.QuantityInitial - p.Quantity; sold > 0 {
		return sold
	}
	return 0
}

// StockValue returns price times current quantity.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// ProductFilter narrows product listings. Zero values do not filter.
type ProductFilter struct {
	InStockOnly  bool
	SoldOnly     bool // only products with a recorded sale
	Brand        string
	Style        string
	Type         string
	MinQuantity  int
	NameContains string
}
