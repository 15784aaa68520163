package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"stockroom/internal/cache"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

// SaleService records sales against product stock.
type SaleService interface {
	Sell(ctx context.Context, productID uint, quantity int) (*model.Product, error)
}

type saleService struct {
	repo  repository.ProductRepository
	cache cache.Store
	now   func() time.Time
}

// NewSaleService creates a new sale service. store may be nil.
func NewSaleService(repo repository.ProductRepository, store cache.Store) SaleService {
	return &saleService{
		repo:  repo,
		cache: store,
		now:   time.Now,
	}
}

// Sell decrements stock, flags the product as sold and stamps the sale time.
// Stock is never allowed below zero, even under concurrent sales.
func (s *saleService) Sell(ctx context.Context, productID uint, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", errors.ErrValidation)
	}

	product, err := s.repo.Sell(ctx, productID, quantity, s.now())
	if err != nil {
		log.Warn().Err(err).
			Uint("product_id", productID).
			Int("quantity", quantity).
			Msg("sale rejected")
		return nil, err
	}

	invalidateProduct(ctx, s.cache, productID)

	log.Info().
		Uint("product_id", productID).
		Int("quantity", quantity).
		Int("remaining", product.Quantity).
		Msg("sale recorded")
	return product, nil
}
