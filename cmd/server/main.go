package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	_ "stockroom/docs" // swagger docs

	"stockroom/internal/app"
	"stockroom/internal/config"
	"stockroom/internal/handler"
	"stockroom/internal/logger"
	"stockroom/internal/router"
)

// @title Stockroom API
// @version 1.0
// @description Inventory and sales API for a cosmetics shop: products, sales, CSV import/export, PDF stock report, chat commands and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		opts = append(opts, app.WithResetDB())
	}

	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, a.JWT, router.Handlers{
		Auth:    handler.NewAuthHandler(a.AuthService),
		User:    handler.NewUserHandler(a.UserService),
		Product: handler.NewProductHandler(a.ProductService),
		Sale:    handler.NewSaleHandler(a.SaleService),
		CSV:     handler.NewCSVHandler(a.CSVService),
		Report:  handler.NewReportHandler(a.ReportService),
		Chat:    handler.NewChatHandler(a.Bot, a.Sessions),
	})

	log.Info().Str("url", swaggerURL(cfg)).Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Str("db_driver", cfg.DBDriver).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}

// swaggerURL accepts SWAGGER_HOST with or without a scheme.
func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/swagger/index.html"
}
