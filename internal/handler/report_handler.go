package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"stockroom/internal/report"
	"stockroom/internal/service"
)

// ReportHandler serves stock and sales reports.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// StockPDF godoc
// @Summary Stock report as PDF
// @Description One line per in-stock product and the total stock value.
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 500 {object} errors.ErrorResponse
// @Router /reports/stock.pdf [get]
func (h *ReportHandler) StockPDF(c echo.Context) error {
	doc, err := h.reportService.StockPDF(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename="relatorio_estoque_%s.pdf"`, time.Now().Format("20060102")))
	header.Set("X-Report-Pages", strconv.Itoa(doc.Pages))
	return c.Blob(http.StatusOK, "application/pdf", doc.Data)
}

// Sold godoc
// @Summary Products with at least one sale, newest sale first
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param unit query string false "count, revenue or unit_price (default)"
// @Success 200 {object} report.SoldReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /reports/sold [get]
func (h *ReportHandler) Sold(c echo.Context) error {
	result, err := h.reportService.Sold(c.Request().Context(), report.SoldUnit(c.QueryParam("unit")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
