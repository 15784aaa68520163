package report

import (
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/model"
)

// SoldUnit selects what a sold-products report adds up.
type SoldUnit string

const (
	// UnitCount sums units sold.
	UnitCount SoldUnit = "count"
	// UnitRevenue sums units sold times price.
	UnitRevenue SoldUnit = "revenue"
	// UnitPrice sums the unit price of every product with a sale.
	UnitPrice SoldUnit = "unit_price"
)

// ParseSoldUnit maps a query value to a unit. Empty means UnitPrice.
func ParseSoldUnit(s string) (SoldUnit, bool) {
	switch SoldUnit(s) {
	case "":
		return UnitPrice, true
	case UnitCount, UnitRevenue, UnitPrice:
		return SoldUnit(s), true
	}
	return "", false
}

// SoldLine is one product of a sold-products report.
type SoldLine struct {
	ProductID  uint            `json:"product_id"`
	Name       string          `json:"name"`
	Brand      string          `json:"brand"`
	UnitsSold  int             `json:"units_sold"`
	Price      decimal.Decimal `json:"price"`
	Value      decimal.Decimal `json:"value"`
	LastSaleAt *time.Time      `json:"last_sale_at,omitempty"`
}

// SoldReport aggregates products that had at least one sale.
type SoldReport struct {
	Unit  SoldUnit        `json:"unit"`
	Lines []SoldLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Sold builds the report in the order products are given.
func Sold(products []model.Product, unit SoldUnit) SoldReport {
	rep := SoldReport{Unit: unit, Lines: make([]SoldLine, 0, len(products)), Total: decimal.Zero}
	for i := range products {
		p := &products[i]
		units := p.UnitsSold()

		var value decimal.Decimal
		switch unit {
		case UnitCount:
			value = decimal.NewFromInt(int64(units))
		case UnitRevenue:
			value = p.Price.Mul(decimal.NewFromInt(int64(units)))
		default:
			value = p.Price
		}

		rep.Lines = append(rep.Lines, SoldLine{
			ProductID:  p.ID,
			Name:       p.Name,
			Brand:      p.Brand,
			UnitsSold:  units,
			Price:      p.Price,
			Value:      value,
			LastSaleAt: p.LastSaleAt,
		})
		rep.Total = rep.Total.Add(value)
	}
	return rep
}
