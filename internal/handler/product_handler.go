package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/service"
)

const expiryLayout = "2006-01-02"

// ProductHandler handles product endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest is the body of create and update calls.
type ProductRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Price      string  `json:"price" validate:"required"`
	Quantity   int     `json:"quantity" validate:"gte=0"`
	Brand      string  `json:"brand" validate:"max=100"`
	Style      string  `json:"style" validate:"max=100"`
	Type       string  `json:"type" validate:"max=100"`
	Photo      *string `json:"photo,omitempty" validate:"omitempty,max=255"`
	ExpiryDate *string `json:"expiry_date,omitempty" example:"2026-12-31"`
}

func (r *ProductRequest) input() (service.ProductInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid price",
			Code:  "INVALID_PRICE",
		})
	}

	in := service.ProductInput{
		Name:     r.Name,
		Price:    price,
		Quantity: r.Quantity,
		Brand:    r.Brand,
		Style:    r.Style,
		Type:     r.Type,
		Photo:    r.Photo,
	}
	if r.ExpiryDate != nil && *r.ExpiryDate != "" {
		expiry, err := time.Parse(expiryLayout, *r.ExpiryDate)
		if err != nil {
			return service.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "expiry_date must be YYYY-MM-DD",
				Code:  "INVALID_DATE",
			})
		}
		in.ExpiryDate = &expiry
	}
	return in, nil
}

// ListProducts godoc
// @Summary List products ordered by name
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param include_sold query bool false "Include products with zero quantity"
// @Success 200 {array} model.Product
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	includeSold, _ := strconv.ParseBool(c.QueryParam("include_sold"))

	products, err := h.productService.List(c.Request().Context(), includeSold)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, products)
}

// SearchProducts godoc
// @Summary Search products and sum their stock value
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param brand query string false "Brand"
// @Param style query string false "Style"
// @Param type query string false "Type"
// @Param min_quantity query int false "Minimum quantity"
// @Param in_stock query bool false "Only products with quantity > 0"
// @Param sold query bool false "Only products with a recorded sale"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/search [get]
func (h *ProductHandler) SearchProducts(c echo.Context) error {
	filter := model.ProductFilter{
		NameContains: c.QueryParam("q"),
		Brand:        c.QueryParam("brand"),
		Style:        c.QueryParam("style"),
		Type:         c.QueryParam("type"),
	}
	filter.InStockOnly, _ = strconv.ParseBool(c.QueryParam("in_stock"))
	filter.SoldOnly, _ = strconv.ParseBool(c.QueryParam("sold"))
	if raw := c.QueryParam("min_quantity"); raw != "" {
		minQty, err := strconv.Atoi(raw)
		if err != nil || minQty < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "min_quantity must be a non-negative integer",
				Code:  "VALIDATION_ERROR",
			})
		}
		filter.MinQuantity = minQty
	}

	result, err := h.productService.Search(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Facets godoc
// @Summary Distinct brands, styles and types for search filters
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Facets
// @Router /products/facets [get]
func (h *ProductHandler) Facets(c echo.Context) error {
	facets, err := h.productService.Facets(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, facets)
}

// GetProduct godoc
// @Summary Get product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct godoc
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product data"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	product, err := h.productService.Add(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Replace the editable fields of a product
// @Description Stock counters (quantity_initial, sold, last_sale_at) are kept.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product data"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.productService.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
