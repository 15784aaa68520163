package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stockroom/internal/cache"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

const productCacheTTL = 5 * time.Minute

// SearchResult is a filtered listing with its stock value.
type SearchResult struct {
	Products   []model.Product `json:"products"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// Facets lists the values the search filters can take.
type Facets struct {
	Brands []string `json:"brands"`
	Styles []string `json:"styles"`
	Types  []string `json:"types"`
}

// ProductService handles product operations.
type ProductService interface {
	Add(ctx context.Context, in ProductInput) (*model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, includeSold bool) ([]model.Product, error)
	Update(ctx context.Context, id uint, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, filter model.ProductFilter) (*SearchResult, error)
	Facets(ctx context.Context) (*Facets, error)
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Store
	validator *ProductValidator
}

// NewProductService creates a new product service. Reads are cached only
// when store is non-nil; pass a store every writer of the database shares.
func NewProductService(repo repository.ProductRepository, store cache.Store) ProductService {
	return &productService{
		repo:      repo,
		cache:     store,
		validator: NewProductValidator(),
	}
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// Add validates and inserts a new product. The created quantity is recorded
// as the initial stock.
func (s *productService) Add(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := s.validator.ValidateProduct(in); err != nil {
		return nil, err
	}

	product := &model.Product{}
	in.apply(product)
	product.QuantityInitial = product.Quantity

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	log.Info().
		Uint("product_id", product.ID).
		Str("name", product.Name).
		Int("quantity", product.Quantity).
		Msg("product created")
	return product, nil
}

// Get retrieves a product by ID with caching.
func (s *productService) Get(ctx context.Context, id uint) (*model.Product, error) {
	if s.cache == nil {
		return s.repo.FindByID(ctx, id)
	}

	var cached model.Product
	if cache.GetJSON(ctx, s.cache, productCacheKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = cache.SetJSON(ctx, s.cache, productCacheKey(id), product, productCacheTTL)
	return product, nil
}

// List returns products ordered by name; sold-out ones only when includeSold.
func (s *productService) List(ctx context.Context, includeSold bool) ([]model.Product, error) {
	return s.repo.List(ctx, model.ProductFilter{InStockOnly: !includeSold})
}

// Update replaces the editable fields of a product.
func (s *productService) Update(ctx context.Context, id uint, in ProductInput) (*model.Product, error) {
	if err := s.validator.ValidateProduct(in); err != nil {
		return nil, err
	}

	product := &model.Product{ID: id}
	in.apply(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	invalidateProduct(ctx, s.cache, id)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Uint("product_id", id).Msg("product updated")
	return updated, nil
}

// Delete removes a product; missing ids are ignored.
func (s *productService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateProduct(ctx, s.cache, id)
	log.Info().Uint("product_id", id).Msg("product deleted")
	return nil
}

// Search filters the full inventory and totals price times quantity.
func (s *productService) Search(ctx context.Context, filter model.ProductFilter) (*SearchResult, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range products {
		total = total.Add(products[i].StockValue())
	}
	return &SearchResult{Products: products, TotalValue: total}, nil
}

// Facets returns the distinct brand, style and type values in stock, or the
// fixed lists when the store has none.
func (s *productService) Facets(ctx context.Context) (*Facets, error) {
	brands, err := s.repo.Distinct(ctx, "brand")
	if err != nil {
		return nil, err
	}
	styles, err := s.repo.Distinct(ctx, "style")
	if err != nil {
		return nil, err
	}
	types, err := s.repo.Distinct(ctx, "type")
	if err != nil {
		return nil, err
	}
	return &Facets{
		Brands: orDefault(brands, model.Brands),
		Styles: orDefault(styles, model.Styles),
		Types:  orDefault(types, model.Types),
	}, nil
}

func orDefault(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	out := make([]string, len(fallback))
	copy(out, fallback)
	return out
}

func invalidateProduct(ctx context.Context, store cache.Store, id uint) {
	if store != nil {
		_ = store.Delete(ctx, productCacheKey(id))
	}
}
