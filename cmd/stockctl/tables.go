package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"stockroom/internal/model"
	"stockroom/internal/report"
)

const dateLayout = "02/01/2006 15:04"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderStock(w io.Writer, products []model.Product, total decimal.Decimal) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Produto", "Marca", "Tipo", "Qtd", "Preço"})
	for i := range products {
		p := &products[i]
		t.AppendRow(table.Row{p.ID, p.Name, p.Brand, p.Type, p.Quantity, report.FormatBRL(p.Price)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "TOTAL", report.FormatBRL(total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func renderSold(w io.Writer, rep *report.SoldReport) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Produto", "Vendidos", "Última venda", string(rep.Unit)})
	for _, l := range rep.Lines {
		last := ""
		if l.LastSaleAt != nil {
			last = l.LastSaleAt.Local().Format(dateLayout)
		}
		t.AppendRow(table.Row{l.ProductID, l.Name, l.UnitsSold, last, soldValue(rep.Unit, l.Value)})
	}
	t.AppendFooter(table.Row{"", "", "", "TOTAL", soldValue(rep.Unit, rep.Total)})
	t.Render()
}

func soldValue(unit report.SoldUnit, v decimal.Decimal) string {
	if unit == report.UnitCount {
		return v.String()
	}
	return report.FormatBRL(v)
}

func renderUsers(w io.Writer, users []model.User) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Usuário", "Perfil"})
	for _, u := range users {
		t.AppendRow(table.Row{u.ID, u.Username, u.Role})
	}
	t.Render()
}
