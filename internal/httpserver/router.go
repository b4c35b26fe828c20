package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/ecom_proj/internal/auth"
	"github.com/Skotchmaster/ecom_proj/internal/metrics"
	loggingmw "github.com/Skotchmaster/ecom_proj/internal/middleware/logging"
)

type Options struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	RateLimitRPS float64
	BodyLimit    string
}

// NewEcho builds the server with the shared middleware chain. Metrics sit
// outside the request logger so they see the final status.
func NewEcho(o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if o.Metrics != nil {
		e.Use(o.Metrics.Middleware())
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())
	if o.BodyLimit != "" {
		e.Use(middleware.BodyLimit(o.BodyLimit))
	}
	if o.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(o.RateLimitRPS))))
	}
	return e
}

type Deps struct {
	Catalog *CatalogHTTP
	Cart    *CartHTTP

	// Auth and AuthMW are nil when no JWT secret is configured.
	Auth                 *AuthHTTP
	AuthMW               *auth.Middleware
	ProtectCatalogWrites bool

	Metrics *metrics.Metrics
	Ready   func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "Welcome to the ecom store!") })
	e.GET("/about", func(c echo.Context) error { return c.String(http.StatusOK, "About Page is under construction!") })

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	var writeMW []echo.MiddlewareFunc
	if d.ProtectCatalogWrites && d.AuthMW != nil {
		writeMW = append(writeMW, d.AuthMW.RequireAdmin)
	}

	api.GET("/products", d.Catalog.ListProducts)
	api.GET("/products/search", d.Catalog.SearchProducts)
	api.GET("/product/:id", d.Catalog.GetProduct)
	api.GET("/product/:id/image", d.Catalog.GetImage)
	api.POST("/product", d.Catalog.CreateProduct, writeMW...)
	api.PUT("/product/:id", d.Catalog.UpdateProduct, writeMW...)
	api.DELETE("/product/:id", d.Catalog.DeleteProduct, writeMW...)

	api.GET("/cart", d.Cart.GetCart)
	api.GET("/cart/total", d.Cart.GetTotal)
	api.GET("/cart/:id", d.Cart.GetCartItem)
	api.POST("/cart", d.Cart.AddToCart)
	api.PUT("/cart/:id", d.Cart.UpdateCartItem)
	api.DELETE("/cart/:id", d.Cart.DeleteCartItem)
	api.DELETE("/cart", d.Cart.ClearCart)

	if d.Auth != nil && d.AuthMW != nil {
		api.POST("/auth/register", d.Auth.Register)
		api.POST("/auth/login", d.Auth.Login)
		api.POST("/auth/logout", d.Auth.Logout)
		api.GET("/auth/me", d.Auth.Me, d.AuthMW.RequireAuth)
	}
}
