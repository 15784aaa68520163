package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/auth"
	"stockroom/internal/cache"
	"stockroom/internal/chat"
	"stockroom/internal/db"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/report"
	"stockroom/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type stack struct {
	e        *echo.Echo
	products *ProductHandler
	sales    *SaleHandler
	csv      *CSVHandler
	reports  *ReportHandler
	users    *UserHandler
	chat     *ChatHandler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gormDB, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "estoque.db"))
	require.NoError(t, err)
	hash, err := auth.HashPassword("123")
	require.NoError(t, err)
	require.NoError(t, db.CreateTables(context.Background(), gormDB, db.AdminSeed{Username: "admin", PasswordHash: hash}))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := cache.NewMemory()
	repo := repository.NewProductRepository(gormDB)
	products := service.NewProductService(repo, store)
	sales := service.NewSaleService(repo, store)

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	return &stack{
		e:        e,
		products: NewProductHandler(products),
		sales:    NewSaleHandler(sales),
		csv:      NewCSVHandler(service.NewCSVService(repo)),
		reports:  NewReportHandler(service.NewReportService(repo, report.WithoutCompression())),
		users:    NewUserHandler(service.NewUserService(repository.NewUserRepository(gormDB))),
		chat:     NewChatHandler(chat.NewBot(products, sales), chat.NewSessionStore(store)),
	}
}

func (s *stack) call(method, target, body string, params map[string]string, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}
	return rec, h(c)
}

func assertHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, status, he.Code)
	if code != "" {
		resp, ok := he.Message.(errors.ErrorResponse)
		require.True(t, ok, "message is %T", he.Message)
		assert.Equal(t, code, resp.Code)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

const perfumeJSON = `{"name":"Perfume X","price":"59.90","quantity":10,"brand":"Eudora","style":"Perfumaria","type":"Perfumaria feminina","expiry_date":"2027-01-31"}`

func TestProductHandler_CRUD(t *testing.T) {
	s := newStack(t)

	rec, err := s.call(http.MethodPost, "/api/products", perfumeJSON, nil, s.products.CreateProduct)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created model.Product
	decode(t, rec, &created)
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, 10, created.QuantityInitial)
	require.NotNil(t, created.ExpiryDate)
	assert.Equal(t, "2027-01-31", created.ExpiryDate.Format(expiryLayout))

	rec, err = s.call(http.MethodGet, "/api/products/1", "", map[string]string{"id": "1"}, s.products.GetProduct)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	update := strings.Replace(perfumeJSON, `"quantity":10`, `"quantity":4`, 1)
	rec, err = s.call(http.MethodPut, "/api/products/1", update, map[string]string{"id": "1"}, s.products.UpdateProduct)
	require.NoError(t, err)
	var updated model.Product
	decode(t, rec, &updated)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, 10, updated.QuantityInitial)

	rec, err = s.call(http.MethodDelete, "/api/products/1", "", map[string]string{"id": "1"}, s.products.DeleteProduct)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = s.call(http.MethodGet, "/api/products/1", "", map[string]string{"id": "1"}, s.products.GetProduct)
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND")

	_, err = s.call(http.MethodPut, "/api/products/1", update, map[string]string{"id": "1"}, s.products.UpdateProduct)
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestProductHandler_CreateRejects(t *testing.T) {
	s := newStack(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"name":`, "INVALID_REQUEST"},
		{"missing name", `{"price":"1.00","quantity":1}`, "VALIDATION_ERROR"},
		{"negative quantity", `{"name":"x","price":"1.00","quantity":-1}`, "VALIDATION_ERROR"},
		{"price not a number", `{"name":"x","price":"abc","quantity":1}`, "INVALID_PRICE"},
		{"zero price", `{"name":"x","price":"0","quantity":1}`, "VALIDATION_ERROR"},
		{"bad expiry", `{"name":"x","price":"1","quantity":1,"expiry_date":"31/01/2027"}`, "INVALID_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.call(http.MethodPost, "/api/products", tt.body, nil, s.products.CreateProduct)
			assertHTTPError(t, err, http.StatusBadRequest, tt.code)
		})
	}

	_, err := s.call(http.MethodGet, "/api/products/x", "", map[string]string{"id": "x"}, s.products.GetProduct)
	assertHTTPError(t, err, http.StatusBadRequest, "INVALID_ID")
}

func TestProductHandler_ListAndSearch(t *testing.T) {
	s := newStack(t)
	_, err := s.call(http.MethodPost, "/api/products", perfumeJSON, nil, s.products.CreateProduct)
	require.NoError(t, err)
	_, err = s.call(http.MethodPost, "/api/products", `{"name":"Batom","price":"25.00","quantity":0,"brand":"Avon"}`, nil, s.products.CreateProduct)
	require.NoError(t, err)

	rec, err := s.call(http.MethodGet, "/api/products", "", nil, s.products.ListProducts)
	require.NoError(t, err)
	var list []model.Product
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Perfume X", list[0].Name)

	rec, err = s.call(http.MethodGet, "/api/products?include_sold=true", "", nil, s.products.ListProducts)
	require.NoError(t, err)
	decode(t, rec, &list)
	assert.Len(t, list, 2)

	rec, err = s.call(http.MethodGet, "/api/products/search?brand=Eudora&q=perf", "", nil, s.products.SearchProducts)
	require.NoError(t, err)
	var result service.SearchResult
	decode(t, rec, &result)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "599", result.TotalValue.String())

	_, err = s.call(http.MethodGet, "/api/products/search?min_quantity=-2", "", nil, s.products.SearchProducts)
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err = s.call(http.MethodGet, "/api/products/facets", "", nil, s.products.Facets)
	require.NoError(t, err)
	var facets service.Facets
	decode(t, rec, &facets)
	assert.Equal(t, []string{"Avon", "Eudora"}, facets.Brands)
}

func TestSaleHandler_Sell(t *testing.T) {
	s := newStack(t)
	_, err := s.call(http.MethodPost, "/api/products", perfumeJSON, nil, s.products.CreateProduct)
	require.NoError(t, err)
	id := map[string]string{"id": "1"}

	rec, err := s.call(http.MethodPost, "/api/products/1/sell", `{"quantity":3}`, id, s.sales.Sell)
	require.NoError(t, err)
	var resp SellResponse
	decode(t, rec, &resp)
	assert.Equal(t, 7, resp.Product.Quantity)
	assert.True(t, resp.Product.Sold)
	assert.NotNil(t, resp.Product.LastSaleAt)

	rec, err = s.call(http.MethodPost, "/api/products/1/sell", "", id, s.sales.Sell)
	require.NoError(t, err)
	decode(t, rec, &resp)
	assert.Equal(t, 6, resp.Product.Quantity)

	_, err = s.call(http.MethodPost, "/api/products/1/sell", `{"quantity":7}`, id, s.sales.Sell)
	assertHTTPError(t, err, http.StatusConflict, "INSUFFICIENT_STOCK")

	_, err = s.call(http.MethodPost, "/api/products/9/sell", "", map[string]string{"id": "9"}, s.sales.Sell)
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND")

	_, err = s.call(http.MethodPost, "/api/products/1/sell", `{"quantity":-1}`, id, s.sales.Sell)
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCSVHandler_ExportImport(t *testing.T) {
	s := newStack(t)

	rec, err := s.call(http.MethodGet, "/api/products/export.csv", "", nil, s.csv.Export)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	_, err = s.call(http.MethodPost, "/api/products", perfumeJSON, nil, s.products.CreateProduct)
	require.NoError(t, err)

	rec, err = s.call(http.MethodGet, "/api/products/export.csv", "", nil, s.csv.Export)
	require.NoError(t, err)
	exported := rec.Body.String()
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.True(t, strings.HasPrefix(exported, "id;name;price;"))

	// multipart upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "estoque.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(exported))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec = httptest.NewRecorder()
	require.NoError(t, s.csv.Import(s.e.NewContext(req, rec)))
	var imported ImportResponse
	decode(t, rec, &imported)
	assert.Equal(t, 1, imported.Count)

	// raw body
	req = httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader(exported))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec = httptest.NewRecorder()
	require.NoError(t, s.csv.Import(s.e.NewContext(req, rec)))
	decode(t, rec, &imported)
	assert.Equal(t, 1, imported.Count)

	rec, err = s.call(http.MethodGet, "/api/products?include_sold=true", "", nil, s.products.ListProducts)
	require.NoError(t, err)
	var list []model.Product
	decode(t, rec, &list)
	assert.Len(t, list, 3)

	req = httptest.NewRequest(http.MethodPost, "/api/products/import", nil)
	err = s.csv.Import(s.e.NewContext(req, httptest.NewRecorder()))
	assertHTTPError(t, err, http.StatusBadRequest, "INVALID_FILE")

	req = httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader("name;price\nKai\"ak;1\n"))
	err = s.csv.Import(s.e.NewContext(req, httptest.NewRecorder()))
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCSVHandler_ImportRejectsOversizedFile(t *testing.T) {
	s := newStack(t)
	var sheet strings.Builder
	sheet.WriteString("nome;preco;quantidade\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sheet, "Produto %d;10,00;1\n", i)
	}
	s.csv.maxBytes = int64(sheet.Len() - 10)

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader(sheet.String()))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	err := s.csv.Import(s.e.NewContext(req, httptest.NewRecorder()))
	assertHTTPError(t, err, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE")

	rec, err := s.call(http.MethodGet, "/api/products?include_sold=true", "", nil, s.products.ListProducts)
	require.NoError(t, err)
	var list []model.Product
	decode(t, rec, &list)
	assert.Empty(t, list)

	s.csv.maxBytes = int64(sheet.Len())
	req = httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader(sheet.String()))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec = httptest.NewRecorder()
	require.NoError(t, s.csv.Import(s.e.NewContext(req, rec)))
	var imported ImportResponse
	decode(t, rec, &imported)
	assert.Equal(t, 200, imported.Count)
}

func TestReportHandler(t *testing.T) {
	s := newStack(t)
	_, err := s.call(http.MethodPost, "/api/products", perfumeJSON, nil, s.products.CreateProduct)
	require.NoError(t, err)
	_, err = s.call(http.MethodPost, "/api/products/1/sell", `{"quantity":2}`, map[string]string{"id": "1"}, s.sales.Sell)
	require.NoError(t, err)

	rec, err := s.call(http.MethodGet, "/api/reports/stock.pdf", "", nil, s.reports.StockPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "1", rec.Header().Get("X-Report-Pages"))
	assert.Contains(t, rec.Body.String(), "TOTAL: R$ 479,20")

	rec, err = s.call(http.MethodGet, "/api/reports/sold?unit=revenue", "", nil, s.reports.Sold)
	require.NoError(t, err)
	var sold report.SoldReport
	decode(t, rec, &sold)
	assert.Equal(t, report.UnitRevenue, sold.Unit)
	require.Len(t, sold.Lines, 1)
	assert.Equal(t, "119.8", sold.Total.String())

	_, err = s.call(http.MethodGet, "/api/reports/sold?unit=kg", "", nil, s.reports.Sold)
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestUserHandler(t *testing.T) {
	s := newStack(t)

	rec, err := s.call(http.MethodPost, "/api/users", `{"username":"joana","password":"x","role":"staff"}`, nil, s.users.CreateUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var joana model.User
	decode(t, rec, &joana)
	assert.Equal(t, model.RoleStaff, joana.Role)

	_, err = s.call(http.MethodPost, "/api/users", `{"username":"joana","password":"y","role":"user"}`, nil, s.users.CreateUser)
	assertHTTPError(t, err, http.StatusConflict, "USER_ALREADY_EXISTS")

	_, err = s.call(http.MethodPost, "/api/users", `{"username":"rui","password":"y","role":"owner"}`, nil, s.users.CreateUser)
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err = s.call(http.MethodGet, "/api/users", "", nil, s.users.ListUsers)
	require.NoError(t, err)
	var users []model.User
	decode(t, rec, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)

	rec, err = s.call(http.MethodPatch, "/api/users/2/role", `{"role":"admin"}`, map[string]string{"id": "2"}, s.users.UpdateRole)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = s.call(http.MethodPatch, "/api/users/99/role", `{"role":"admin"}`, map[string]string{"id": "99"}, s.users.UpdateRole)
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND")

	rec, err = s.call(http.MethodDelete, "/api/users/2", "", map[string]string{"id": "2"}, s.users.DeleteUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = s.call(http.MethodDelete, "/api/users/2", "", map[string]string{"id": "2"}, s.users.DeleteUser)
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestChatHandler_KeepsSession(t *testing.T) {
	s := newStack(t)

	send := func(sessionID, message string) ChatResponse {
		t.Helper()
		body, err := json.Marshal(ChatRequest{SessionID: sessionID, Message: message})
		require.NoError(t, err)
		rec, err := s.call(http.MethodPost, "/api/chat", string(body), nil, s.chat.Message)
		require.NoError(t, err)
		var resp ChatResponse
		decode(t, rec, &resp)
		return resp
	}

	first := send("", "adicionar produto")
	require.NotEmpty(t, first.SessionID)
	// no claims on the context means a read-only caller
	assert.Equal(t, chat.StepIdle, first.Step)

	_, err := s.call(http.MethodPost, "/api/chat", `{"message":""}`, nil, s.chat.Message)
	assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}
