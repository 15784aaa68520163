package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer

	InitWithWriter("warn", &buf)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	InitWithWriter("not-a-level", &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestEchoLogger_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", &buf)

	e := echo.New()
	e.Use(EchoLogger())
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "/ok")
	assert.Contains(t, buf.String(), "INF")

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "status_code=404")
}
