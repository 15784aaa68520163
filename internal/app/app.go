// Package app builds the repositories and services shared by the server and
// the command line tools.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"stockroom/internal/auth"
	"stockroom/internal/cache"
	"stockroom/internal/chat"
	"stockroom/internal/config"
	"stockroom/internal/db"
	"stockroom/internal/repository"
	"stockroom/internal/service"
)

// App holds the wired components.
type App struct {
	DB    *gorm.DB
	Cache cache.Store

	Products repository.ProductRepository
	Users    repository.UserRepository

	JWT        *auth.JWTService
	TokenStore *auth.TokenStore

	ProductService service.ProductService
	SaleService    service.SaleService
	CSVService     service.CSVService
	ReportService  service.ReportService
	UserService    service.UserService
	AuthService    service.AuthService

	Bot      *chat.Bot
	Sessions *chat.SessionStore
}

// Option adjusts how New prepares the database.
type Option func(*options)

type options struct {
	resetDB bool
}

// WithResetDB drops every table before they are created again. Only the
// server honours RESET_DB; the command line tools never pass it.
func WithResetDB() Option {
	return func(o *options) { o.resetDB = true }
}

// New opens the database, creates the tables, seeds the admin account and
// connects the cache. Redis is optional; without it state lives in memory.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	if o.resetDB {
		if err := db.DropTables(ctx, gormDB); err != nil {
			log.Warn().Err(err).Msg("failed to drop tables (may not exist)")
		}
	}

	adminHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	if err := db.CreateTables(ctx, gormDB, db.AdminSeed{Username: cfg.AdminUsername, PasswordHash: adminHash}); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	store, redisBacked := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if redisBacked {
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	} else {
		log.Info().Msg("redis not available, using in-memory cache")
	}

	a := &App{
		DB:       gormDB,
		Cache:    store,
		Products: repository.NewProductRepository(gormDB),
		Users:    repository.NewUserRepository(gormDB),
		JWT:      auth.NewJWTService(cfg.JWTSecret),
	}
	a.TokenStore = auth.NewTokenStore(store)

	// the server and the command line tools write to the same database, so
	// product reads are only cached in a store they all share
	var productCache cache.Store
	if redisBacked {
		productCache = store
	}
	a.ProductService = service.NewProductService(a.Products, productCache)
	a.SaleService = service.NewSaleService(a.Products, productCache)
	a.CSVService = service.NewCSVService(a.Products)
	a.ReportService = service.NewReportService(a.Products)
	a.UserService = service.NewUserService(a.Users)
	a.AuthService = service.NewAuthService(a.Users, a.JWT, a.TokenStore)

	a.Bot = chat.NewBot(a.ProductService, a.SaleService)
	a.Sessions = chat.NewSessionStore(store)
	return a, nil
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
