package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/model"
	"stockroom/internal/service"
)

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	saleService service.SaleService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// SellRequest represents a sale of some units. Quantity defaults to 1.
type SellRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// SellResponse represents a recorded sale.
type SellResponse struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

// Sell godoc
// @Summary Record a sale
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body SellRequest false "Units to sell"
// @Success 200 {object} SellResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products/{id}/sell [post]
func (h *SaleHandler) Sell(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req SellRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.saleService.Sell(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, SellResponse{
		Message: "sale recorded",
		Product: product,
	})
}
