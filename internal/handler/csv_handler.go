package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stockroom/internal/errors"
	"stockroom/internal/service"
)

// maxImportBytes caps uploaded spreadsheets.
const maxImportBytes = 10 << 20

// CSVHandler handles spreadsheet import and export.
type CSVHandler struct {
	csvService service.CSVService
	maxBytes   int64
}

// NewCSVHandler creates a new CSV handler.
func NewCSVHandler(csvService service.CSVService) *CSVHandler {
	return &CSVHandler{csvService: csvService, maxBytes: maxImportBytes}
}

// ImportResponse represents the import result.
type ImportResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Export godoc
// @Summary Export every product as a semicolon separated CSV
// @Tags csv
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV document"
// @Failure 500 {object} errors.ErrorResponse
// @Router /products/export.csv [get]
func (h *CSVHandler) Export(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="estoque-%s.csv"`, time.Now().Format("20060102")))

	// Encode writes nothing when there are no products, so errors before the
	// first byte can still become a JSON error.
	if err := h.csvService.Export(c.Request().Context(), res); err != nil {
		if res.Committed {
			return err
		}
		return httpError(err)
	}
	if !res.Committed {
		res.WriteHeader(http.StatusOK)
	}
	return nil
}

// Import godoc
// @Summary Import products from a CSV
// @Description Accepts a multipart "file" field or the CSV as the raw body. Rows are appended with new ids; the whole file is rolled back on failure.
// @Tags csv
// @Accept multipart/form-data,text/csv
// @Produce json
// @Security BearerAuth
// @Param file formData file false "CSV file"
// @Success 200 {object} ImportResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products/import [post]
func (h *CSVHandler) Import(c echo.Context) error {
	body, closeFn, err := importSource(c)
	if err != nil {
		return err
	}
	defer closeFn()

	// the whole file is read before parsing so an oversized upload is
	// refused without importing any of its rows
	data, err := io.ReadAll(io.LimitReader(body, h.maxBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "cannot read CSV file",
			Code:  "INVALID_FILE",
		})
	}
	if int64(len(data)) > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, errors.ErrorResponse{
			Error: fmt.Sprintf("CSV file exceeds %d bytes", h.maxBytes),
			Code:  "FILE_TOO_LARGE",
		})
	}

	count, err := h.csvService.Import(c.Request().Context(), bytes.NewReader(data))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Message: "products imported successfully",
		Count:   count,
	})
}

func importSource(c echo.Context) (io.Reader, func(), error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "cannot read uploaded file",
				Code:  "INVALID_FILE",
			})
		}
		return f, func() { _ = f.Close() }, nil
	}

	if c.Request().ContentLength == 0 {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "missing CSV file",
			Code:  "INVALID_FILE",
		})
	}
	return c.Request().Body, func() {}, nil
}
