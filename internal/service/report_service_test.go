package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/errors"
	"stockroom/internal/report"
	"stockroom/internal/repository"
)

func TestReportService_StockPDFEmpty(t *testing.T) {
	svc := NewReportService(repository.NewProductRepository(openServiceDB(t)), report.WithoutCompression())

	doc, err := svc.StockPDF(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Pages)
	assert.Contains(t, string(doc.Data), "TOTAL: R$ 0,00")
}

func TestReportService_StockPDFSkipsSoldOut(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProductRepository(openServiceDB(t))
	products := NewProductService(repo, nil)

	_, err := products.Add(ctx, perfumeX())
	require.NoError(t, err)
	gone := perfumeX()
	gone.Name = "Esgotado"
	gone.Quantity = 0
	_, err = products.Add(ctx, gone)
	require.NoError(t, err)

	doc, err := NewReportService(repo, report.WithoutCompression()).StockPDF(ctx)
	require.NoError(t, err)

	content := string(doc.Data)
	assert.Contains(t, content, "Perfume X | Qtd: 10 | R$ 59,90")
	assert.NotContains(t, content, "Esgotado")
	assert.Contains(t, content, "TOTAL: R$ 599,00")
}

func TestReportService_Sold(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProductRepository(openServiceDB(t))
	products := NewProductService(repo, nil)
	sales := NewSaleService(repo, nil)

	x, err := products.Add(ctx, perfumeX())
	require.NoError(t, err)
	batom := ProductInput{Name: "Batom", Price: decimal.RequireFromString("25.00"), Quantity: 4}
	b, err := products.Add(ctx, batom)
	require.NoError(t, err)
	never := ProductInput{Name: "Parado", Price: decimal.RequireFromString("5.00"), Quantity: 4}
	_, err = products.Add(ctx, never)
	require.NoError(t, err)

	_, err = sales.Sell(ctx, x.ID, 3)
	require.NoError(t, err)
	_, err = sales.Sell(ctx, b.ID, 1)
	require.NoError(t, err)

	svc := NewReportService(repo)

	byPrice, err := svc.Sold(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, report.UnitPrice, byPrice.Unit)
	require.Len(t, byPrice.Lines, 2)
	assert.True(t, byPrice.Total.Equal(decimal.RequireFromString("84.90")), byPrice.Total.String())

	byCount, err := svc.Sold(ctx, report.UnitCount)
	require.NoError(t, err)
	assert.True(t, byCount.Total.Equal(decimal.NewFromInt(4)))

	byRevenue, err := svc.Sold(ctx, report.UnitRevenue)
	require.NoError(t, err)
	assert.True(t, byRevenue.Total.Equal(decimal.RequireFromString("204.70")), byRevenue.Total.String())

	_, err = svc.Sold(ctx, "litros")
	assert.ErrorIs(t, err, errors.ErrValidation)
}
