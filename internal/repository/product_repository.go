package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"stockroom/internal/errors"
	"stockroom/internal/model"
)

// updatableColumns are replaced by Update. Creation-time and sale columns are
// left alone.
var updatableColumns = []string{
	"name", "price", "quantity", "brand", "style", "type", "photo", "expiry_date",
}

// facetColumns are the columns Distinct may be asked for.
var facetColumns = map[string]bool{"brand": true, "style": true, "type": true}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	ListSold(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	Sell(ctx context.Context, id uint, quantity int, at time.Time) (*model.Product, error)
	Distinct(ctx context.Context, column string) ([]string, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product. The id is assigned by the store.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: name is required", errors.ErrValidation)
	}
	if product.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", errors.ErrValidation)
	}
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, errors.ErrNotFound)
		}
		return nil, storageError(err)
	}
	return &product, nil
}

// List returns products matching filter ordered by name.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := applyFilter(r.db.WithContext(ctx).Model(&model.Product{}), filter)
	if err := q.Order("name ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, storageError(err)
	}
	return products, nil
}

// ListSold returns products with a recorded sale, most recent sale first.
func (r *productRepository) ListSold(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Where("last_sale_at IS NOT NULL").
		Order("last_sale_at DESC").Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, storageError(err)
	}
	return products, nil
}

// Update replaces the editable fields of an existing product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: name is required", errors.ErrValidation)
	}
	if product.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", errors.ErrValidation)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Select("id").Where("id = ?", product.ID).First(&existing).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", product.ID, errors.ErrNotFound)
			}
			return storageError(err)
		}
		if err := tx.Model(&model.Product{ID: product.ID}).
			Select(updatableColumns).
			Updates(product).Error; err != nil {
			return storageError(err)
		}
		return nil
	})
}

// Delete removes a product. Deleting a missing id is not an error.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// Sell decrements stock with a single conditional update so two sellers can
// never drive quantity below zero.
func (r *productRepository) Sell(ctx context.Context, id uint, quantity int, at time.Time) (*model.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", errors.ErrValidation)
	}

	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":     gorm.Expr("quantity - ?", quantity),
			"sold":         true,
			"last_sale_at": at,
		})
	if res.Error != nil {
		return nil, storageError(res.Error)
	}

	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: product %d has %d, requested %d",
			errors.ErrInsufficientStock, id, product.Quantity, quantity)
	}
	return product, nil
}

// Distinct lists the non-empty values of a facet column in ascending order.
func (r *productRepository) Distinct(ctx context.Context, column string) ([]string, error) {
	if !facetColumns[column] {
		return nil, fmt.Errorf("%w: unknown facet %q", errors.ErrValidation, column)
	}
	var values []string
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error; err != nil {
		return nil, storageError(err)
	}
	return values, nil
}

// WithTransaction executes a function within a database transaction.
func (r *productRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &productRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func applyFilter(q *gorm.DB, f model.ProductFilter) *gorm.DB {
	if f.InStockOnly {
		q = q.Where("quantity > 0")
	}
	if f.SoldOnly {
		q = q.Where("last_sale_at IS NOT NULL")
	}
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.Style != "" {
		q = q.Where("style = ?", f.Style)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.MinQuantity > 0 {
		q = q.Where("quantity >= ?", f.MinQuantity)
	}
	if s := strings.TrimSpace(f.NameContains); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}

// storageError wraps a driver failure so callers can match ErrIOFailure.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, errors.ErrValidation) || stderrors.Is(err, errors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrIOFailure, err)
}
