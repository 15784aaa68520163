package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"stockroom/internal/csvio"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

// CSVService moves the product table to and from the CSV sheet.
type CSVService interface {
	Export(ctx context.Context, w io.Writer) error
	Import(ctx context.Context, r io.Reader) (int, error)
}

type csvService struct {
	repo repository.ProductRepository
}

// NewCSVService creates a new CSV service.
func NewCSVService(repo repository.ProductRepository) CSVService {
	return &csvService{repo: repo}
}

// Export writes every product, sold-out ones included, ordered by name.
func (s *csvService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.repo.List(ctx, model.ProductFilter{})
	if err != nil {
		return err
	}
	if err := csvio.Encode(w, products); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrIOFailure, err)
	}
	return nil
}

// Import inserts every named row as a new product. Either all rows are
// stored or none are.
func (s *csvService) Import(ctx context.Context, r io.Reader) (int, error) {
	products, err := csvio.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed csv: %v", errors.ErrValidation, err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.ProductRepository) error {
		for i := range products {
			if err := tx.Create(ctx, &products[i]); err != nil {
				return fmt.Errorf("row %d (%s): %w", i+1, products[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("rows", len(products)).Msg("csv import rolled back")
		return 0, err
	}

	log.Info().Int("inserted", len(products)).Msg("csv import finished")
	return len(products), nil
}
