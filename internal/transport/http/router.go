package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/handlers"
	authmw "github.com/farmstead/storefront/internal/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	Auth            *authmw.Middleware
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CheckoutHandler *handlers.CheckoutHandler
	OrderHandler    *handlers.OrderHandler
	ShippingHandler *handlers.ShippingHandler
	PaymentHandler  *handlers.PaymentHandler
	ContactHandler  *handlers.ContactHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.Load)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireSession)
	auth.POST("/account", d.AuthHandler.UpdateAccount, d.Auth.RequireSession)

	v1.GET("/products", d.ProductHandler.ListActive)
	v1.GET("/products/search", d.SearchHandler.Search)

	v1.POST("/checkout", d.CheckoutHandler.PlaceOrder, d.Auth.Load)

	orders := v1.Group("/orders", d.Auth.RequireSession)
	orders.GET("", d.OrderHandler.ListMine)
	orders.GET("/last", d.OrderHandler.Latest)

	ship := v1.Group("/shipping")
	ship.POST("/validate-address", d.ShippingHandler.ValidateAddress)
	ship.POST("/rates", d.ShippingHandler.Rates)

	v1.POST("/payment/intent", d.PaymentHandler.CreateIntent)
	v1.POST("/contact", d.ContactHandler.Relay)

	admin := v1.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/products", d.ProductHandler.ListAll)
	admin.POST("/products", d.ProductHandler.Create)
	admin.PUT("/products/:id", d.ProductHandler.Update)
	admin.PUT("/products/:id/archive", d.ProductHandler.ToggleArchive)
	admin.DELETE("/products/:id", d.ProductHandler.Delete)
	admin.GET("/orders", d.OrderHandler.ListAll)
	admin.PUT("/orders/:id", d.OrderHandler.UpdateStatus)
}
