package report

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/model"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"59.9", "59,90"},
		{"1234.56", "1.234,56"},
		{"1000000", "1.000.000,00"},
		{"999.999", "1.000,00"},
		{"-1234.5", "-1.234,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBRL(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestStockLine(t *testing.T) {
	p := &model.Product{Name: "Perfume X", Quantity: 7, Price: decimal.RequireFromString("59.90")}

	assert.Equal(t, "Perfume X | Qtd: 7 | R$ 59,90", StockLine(p))
}

func TestStockPDF_Empty(t *testing.T) {
	doc, err := StockPDF(nil, WithoutCompression())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Equal(t, 1, doc.Pages)
	assert.Contains(t, string(doc.Data), "Relat")
	assert.Contains(t, string(doc.Data), "TOTAL: R$ 0,00")
}

func TestStockPDF_LinesAndTotal(t *testing.T) {
	products := []model.Product{
		{Name: "Perfume X", Quantity: 7, Price: decimal.RequireFromString("59.90")},
		{Name: "Batom", Quantity: 2, Price: decimal.RequireFromString("25.00")},
	}

	doc, err := StockPDF(products, WithoutCompression())
	require.NoError(t, err)

	content := string(doc.Data)
	assert.Contains(t, content, "Perfume X | Qtd: 7 | R$ 59,90")
	assert.Contains(t, content, "Batom | Qtd: 2 | R$ 25,00")
	assert.Contains(t, content, "TOTAL: R$ 469,30")
}

func TestStockPDF_Paginates(t *testing.T) {
	products := make([]model.Product, 120)
	for i := range products {
		products[i] = model.Product{Name: fmt.Sprintf("Item %03d", i), Quantity: 1, Price: decimal.NewFromInt(1)}
	}

	doc, err := StockPDF(products, WithoutCompression())
	require.NoError(t, err)

	// 49 lines fit under the title, 51 on each following page
	assert.Equal(t, 3, doc.Pages)
	assert.Contains(t, string(doc.Data), "Item 119")
	assert.Contains(t, string(doc.Data), "TOTAL: R$ 120,00")
}

func TestStockPDF_CompressedIsSmaller(t *testing.T) {
	products := make([]model.Product, 60)
	for i := range products {
		products[i] = model.Product{Name: "Hidratante Corporal", Quantity: 3, Price: decimal.NewFromInt(10)}
	}

	plain, err := StockPDF(products, WithoutCompression())
	require.NoError(t, err)
	packed, err := StockPDF(products)
	require.NoError(t, err)

	assert.Less(t, len(packed.Data), len(plain.Data))
}

func TestParseSoldUnit(t *testing.T) {
	u, ok := ParseSoldUnit("")
	assert.True(t, ok)
	assert.Equal(t, UnitPrice, u)

	u, ok = ParseSoldUnit("revenue")
	assert.True(t, ok)
	assert.Equal(t, UnitRevenue, u)

	_, ok = ParseSoldUnit("kg")
	assert.False(t, ok)
}

func TestSold(t *testing.T) {
	products := []model.Product{
		{ID: 1, Name: "Perfume X", Price: decimal.RequireFromString("59.90"), Quantity: 7, QuantityInitial: 10},
		{ID: 2, Name: "Batom", Price: decimal.RequireFromString("25.00"), Quantity: 0, QuantityInitial: 1},
	}

	tests := []struct {
		unit  SoldUnit
		total string
	}{
		{UnitCount, "4"},
		{UnitRevenue, "204.70"},
		{UnitPrice, "84.90"},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			rep := Sold(products, tt.unit)
			require.Len(t, rep.Lines, 2)
			assert.Equal(t, 3, rep.Lines[0].UnitsSold)
			assert.True(t, rep.Total.Equal(decimal.RequireFromString(tt.total)), rep.Total.String())
		})
	}
}
