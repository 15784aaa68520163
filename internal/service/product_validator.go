package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/errors"
	"stockroom/internal/model"
)

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	Quantity   int
	Brand      string
	Style      string
	Type       string
	Photo      *string
	ExpiryDate *time.Time
}

// ProductValidator validates product fields.
type ProductValidator struct {
	// StrictCatalog requires brand, style and type to come from the fixed lists.
	StrictCatalog bool
}

// NewProductValidator creates a new product validator.
func NewProductValidator() *ProductValidator {
	return &ProductValidator{}
}

// ValidateProduct checks name, price and quantity.
func (v *ProductValidator) ValidateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", errors.ErrValidation)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", errors.ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", errors.ErrValidation)
	}
	if in.Photo != nil && strings.ContainsAny(*in.Photo, `/\`) {
		return fmt.Errorf("%w: photo must be a file name inside the photo directory", errors.ErrValidation)
	}
	if v.StrictCatalog {
		if err := v.ValidateCatalog(in.Brand, in.Style, in.Type); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCatalog checks brand, style and type against the fixed lists.
func (v *ProductValidator) ValidateCatalog(brand, style, typ string) error {
	if !model.Contains(model.Brands, brand) {
		return fmt.Errorf("%w: unknown brand %q", errors.ErrValidation, brand)
	}
	if !model.Contains(model.Styles, style) {
		return fmt.Errorf("%w: unknown style %q", errors.ErrValidation, style)
	}
	if !model.Contains(model.Types, typ) {
		return fmt.Errorf("%w: unknown type %q", errors.ErrValidation, typ)
	}
	return nil
}

func (in ProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price.Round(2)
	p.Quantity = in.Quantity
	p.Brand = in.Brand
	p.Style = in.Style
	p.Type = in.Type
	p.Photo = in.Photo
	p.ExpiryDate = in.ExpiryDate
}
