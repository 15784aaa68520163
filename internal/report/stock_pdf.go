// Package report renders stock summaries.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"stockroom/internal/model"
)

// StockTitle heads every stock report.
const StockTitle = "Relatório de Estoque - Cores e Fragrâncias"

// Layout in points, measured from the top edge of an A4 page.
const (
	marginLeft   = 28.35 // 1 cm
	titleY       = 50
	firstLineY   = 80
	lineStep     = 15
	bottomMargin = 40
	totalGap     = 20
)

// Document is a rendered PDF.
type Document struct {
	Data  []byte
	Pages int
}

type options struct {
	compress bool
}

// Option adjusts rendering.
type Option func(*options)

// WithoutCompression leaves content streams as plain text.
func WithoutCompression() Option {
	return func(o *options) { o.compress = false }
}

// StockPDF lists products one per line and closes with the total stock value.
// Callers pass only the products that should appear.
func StockPDF(products []model.Product, opts ...Option) (*Document, error) {
	o := options{compress: true}
	for _, opt := range opts {
		opt(&o)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(o.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(StockTitle, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()
	limit := pageHeight - bottomMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(marginLeft, titleY, tr(StockTitle))

	total := decimal.Zero
	y := float64(firstLineY)
	pdf.SetFont("Helvetica", "", 10)
	for i := range products {
		p := &products[i]
		if y > limit {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 10)
			y = titleY
		}
		total = total.Add(p.StockValue())
		pdf.Text(marginLeft, y, tr(StockLine(p)))
		y += lineStep
	}

	y += totalGap
	if y > limit {
		pdf.AddPage()
		y = titleY
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, y, tr("TOTAL: R$ "+FormatBRL(total)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render stock pdf: %w", err)
	}
	return &Document{Data: buf.Bytes(), Pages: pdf.PageNo()}, nil
}

// StockLine formats one product the way the report prints it.
func StockLine(p *model.Product) string {
	return fmt.Sprintf("%s | Qtd: %d | R$ %s", p.Name, p.Quantity, FormatBRL(p.Price))
}

// FormatBRL renders d as Brazilian currency digits: 1234.5 becomes "1.234,50".
func FormatBRL(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
