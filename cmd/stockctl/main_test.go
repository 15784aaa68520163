package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/chat"
	"stockroom/internal/db"
	"stockroom/internal/report"
	"stockroom/internal/repository"
	"stockroom/internal/service"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "estoque.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RESET_DB", "false")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const sheet = "nome;preco;quantidade;marca;estilo;tipo\n" +
	"Perfume X;59,90;10;Eudora;Perfumaria;Perfumaria feminina\n" +
	"Batom;25.00;0;Avon;Maquiagem;Batom\n"

func TestStockctl_ImportSellAndReport(t *testing.T) {
	dir := setupEnv(t)
	src := filepath.Join(dir, "planilha.csv")
	require.NoError(t, os.WriteFile(src, []byte(sheet), 0o644))

	out, err := execute(t, "import", src)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 products\n", out)

	out, err = execute(t, "stock")
	require.NoError(t, err)
	assert.Contains(t, out, "Perfume X")
	assert.NotContains(t, out, "Batom")
	assert.Contains(t, out, "R$ 599,00")

	out, err = execute(t, "stock", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Batom")

	out, err = execute(t, "sell", "1", "3")
	require.NoError(t, err)
	assert.Equal(t, "sold 3 x Perfume X, 7 left\n", out)

	_, err = execute(t, "sell", "1", "8")
	require.Error(t, err)

	out, err = execute(t, "sold", "--unit", "count")
	require.NoError(t, err)
	assert.Contains(t, out, "Perfume X")

	pdf := filepath.Join(dir, "estoque.pdf")
	out, err = execute(t, "report", pdf)
	require.NoError(t, err)
	assert.Contains(t, out, "1 page(s)")
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	csvOut := filepath.Join(dir, "export.csv")
	_, err = execute(t, "export", csvOut)
	require.NoError(t, err)
	exported, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(exported), "id;name;price;quantity;"))
}

func TestStockctl_IgnoresResetDB(t *testing.T) {
	dir := setupEnv(t)
	src := filepath.Join(dir, "planilha.csv")
	require.NoError(t, os.WriteFile(src, []byte(sheet), 0o644))
	_, err := execute(t, "import", src)
	require.NoError(t, err)

	t.Setenv("RESET_DB", "true")
	out, err := execute(t, "stock")
	require.NoError(t, err)
	assert.Contains(t, out, "Perfume X")
}

func TestStockctl_Users(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "adduser", "joana", "senha", "staff")
	require.NoError(t, err)
	assert.Equal(t, "user joana created as staff\n", out)

	_, err = execute(t, "adduser", "joana", "outra")
	require.Error(t, err)

	_, err = execute(t, "adduser", "rui", "x", "dono")
	require.Error(t, err)

	out, err = execute(t, "users")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "admin"), strings.Index(out, "joana"))
}

func TestRenderSold(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rep := &report.SoldReport{
		Unit: report.UnitCount,
		Lines: []report.SoldLine{
			{ProductID: 7, Name: "Kaiak", UnitsSold: 2, Value: decimal.NewFromInt(2), LastSaleAt: &at},
		},
		Total: decimal.NewFromInt(2),
	}

	var buf bytes.Buffer
	renderSold(&buf, rep)

	assert.Contains(t, buf.String(), "Kaiak")
	assert.NotContains(t, buf.String(), "R$")
}

type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func newBot(t *testing.T) (*chat.Bot, service.ProductService) {
	t.Helper()
	gormDB, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	require.NoError(t, db.CreateTables(context.Background(), gormDB, db.AdminSeed{}))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewProductRepository(gormDB)
	products := service.NewProductService(repo, nil)
	return chat.NewBot(products, service.NewSaleService(repo, nil)), products
}

func TestRunChat(t *testing.T) {
	bot, products := newBot(t)
	in := &scriptedReader{lines: []string{
		"", "adicionar produto", "Kaiak", "120", "2", "Natura", "Perfumaria", "Perfumaria masculina", "ok",
		"vender 1", "sair", "estoque",
	}}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), bot, in, &out, false))

	assert.True(t, strings.HasPrefix(out.String(), chat.Greeting+"\n"))
	assert.Contains(t, out.String(), "Produto 'Kaiak' cadastrado com sucesso.")
	assert.Contains(t, out.String(), "Venda registrada para ID 1.")
	assert.Len(t, in.lines, 1, "input after sair is not read")

	p, err := products.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Quantity)
	assert.Equal(t, "Natura", p.Brand)
}

func TestRunChat_ReadOnlyAndErrors(t *testing.T) {
	bot, _ := newBot(t)
	var out bytes.Buffer

	in := &scriptedReader{lines: []string{"adicionar produto"}}
	require.NoError(t, runChat(context.Background(), bot, in, &out, true))
	assert.NotContains(t, out.String(), "Qual o nome")

	boom := errors.New("terminal closed")
	err := runChat(context.Background(), bot, failingReader{err: boom}, io.Discard, false)
	assert.ErrorIs(t, err, boom)
}

type failingReader struct{ err error }

func (r failingReader) Readline() (string, error) { return "", r.err }
