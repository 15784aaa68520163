package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/handler"
	"stockroom/internal/logger"
	"stockroom/internal/model"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Sale    *handler.SaleHandler
	CSV     *handler.CSVHandler
	Report  *handler.ReportHandler
	Chat    *handler.ChatHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, jwtService *auth.JWTService, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(logger.EchoLogger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.PhotoDir != "" {
		e.Static("/photos", cfg.PhotoDir)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	// Any signed-in user
	secured := api.Group("", auth.Middleware(jwtService))

	secured.GET("/me", func(c echo.Context) error {
		claims := auth.ClaimsFrom(c)
		return c.JSON(http.StatusOK, echo.Map{
			"user_id":  claims.UserID,
			"username": claims.Username,
			"role":     claims.Role,
		})
	})

	secured.GET("/products", h.Product.ListProducts)
	secured.GET("/products/search", h.Product.SearchProducts)
	secured.GET("/products/facets", h.Product.Facets)
	secured.GET("/products/export.csv", h.CSV.Export)
	secured.GET("/products/:id", h.Product.GetProduct)
	secured.GET("/reports/stock.pdf", h.Report.StockPDF)
	secured.GET("/reports/sold", h.Report.Sold)
	secured.POST("/chat", h.Chat.Message)

	// Staff and admin
	staff := secured.Group("", auth.RequireRole(model.RoleStaff, model.RoleAdmin))
	staff.POST("/products", h.Product.CreateProduct)
	staff.PUT("/products/:id", h.Product.UpdateProduct)
	staff.DELETE("/products/:id", h.Product.DeleteProduct)
	staff.POST("/products/:id/sell", h.Sale.Sell)
	staff.POST("/products/import", h.CSV.Import)

	// Admin only
	admin := secured.Group("/users", auth.RequireRole(model.RoleAdmin))
	admin.GET("", h.User.ListUsers)
	admin.POST("", h.User.CreateUser)
	admin.PATCH("/:id/role", h.User.UpdateRole)
	admin.DELETE("/:id", h.User.DeleteUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
