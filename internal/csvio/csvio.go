// Package csvio reads and writes the semicolon-separated product sheet.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/model"
)

// Delimiter separates fields in both directions.
const Delimiter = ';'

const dateLayout = "2006-01-02"

// Header is the exported column order.
var Header = []string{
	"id", "name", "price", "quantity", "quantity_initial", "brand", "style",
	"type", "photo", "expiry_date", "sold", "last_sale_at",
}

// aliases maps every accepted column name to its canonical header name.
var aliases = map[string]string{
	"nome":               "name",
	"preco":              "price",
	"preço":              "price",
	"quantidade":         "quantity",
	"quantidade_inicial": "quantity_initial",
	"marca":              "brand",
	"estilo":             "style",
	"tipo":               "type",
	"foto":               "photo",
	"data_validade":      "expiry_date",
	"vendido":            "sold",
	"data_ultima_venda":  "last_sale_at",
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

// Encode writes products as a header plus one row each. No products means no
// output at all, not even the header.
func Encode(w io.Writer, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range products {
		if err := cw.Write(encodeRow(&products[i])); err != nil {
			return fmt.Errorf("write product %d: %w", products[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRow(p *model.Product) []string {
	photo := ""
	if p.Photo != nil {
		photo = *p.Photo
	}
	expiry := ""
	if p.ExpiryDate != nil {
		expiry = p.ExpiryDate.Format(dateLayout)
	}
	lastSale := ""
	if p.LastSaleAt != nil {
		lastSale = p.LastSaleAt.Format(time.RFC3339)
	}
	sold := "0"
	if p.Sold {
		sold = "1"
	}
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.Name,
		p.Price.StringFixed(2),
		strconv.Itoa(p.Quantity),
		strconv.Itoa(p.QuantityInitial),
		p.Brand,
		p.Style,
		p.Type,
		photo,
		expiry,
		sold,
		lastSale,
	}
}

// Decode parses a sheet into products ready to insert. Rows with an empty
// name are skipped; ids are ignored; malformed numbers fall back to zero.
func Decode(r io.Reader) ([]model.Product, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := indexColumns(header)

	var products []model.Product
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p, ok := decodeRow(field)
		if !ok {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func decodeRow(field func(string) string) (model.Product, bool) {
	name := field("name")
	if name == "" {
		return model.Product{}, false
	}

	quantity := ParseQuantity(field("quantity"))
	initial := quantity
	if raw := field("quantity_initial"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			initial = n
		}
	}

	p := model.Product{
		Name:            name,
		Price:           ParsePrice(field("price")),
		Quantity:        quantity,
		QuantityInitial: initial,
		Brand:           field("brand"),
		Style:           field("style"),
		Type:            field("type"),
		Sold:            parseBool(field("sold")),
	}
	if photo := field("photo"); photo != "" {
		p.Photo = &photo
	}
	if t, ok := parseTimestamp(field("expiry_date")); ok {
		p.ExpiryDate = &t
	}
	if t, ok := parseTimestamp(field("last_sale_at")); ok {
		p.LastSaleAt = &t
	}
	return p, true
}

// ParsePrice accepts "59.90", "59,90" and "R$ 59,90"; anything else,
// negatives included, is zero.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		// "1.234,56": dots are thousand separators when a comma is present
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseQuantity parses an integer count; malformed or negative input is zero.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		// spreadsheets often write counts as "3.0"
		f, ferr := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "sim", "s", "yes", "y":
		return true
	}
	return false
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}
