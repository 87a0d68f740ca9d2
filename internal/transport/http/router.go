package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/syrlavka/shop/internal/handlers"
	"github.com/syrlavka/shop/internal/service/token"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)
	v1.GET("/categories", d.ProductHandler.ListCategories)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	account := v1.Group("/account", d.TokenService.AutoRefreshMiddleware)
	account.PATCH("", d.AuthHandler.UpdateProfile)
	account.POST("/password", d.AuthHandler.ChangePassword)
	account.GET("/orders", d.OrderHandler.GetMyOrders)

	cart := v1.Group("/cart", d.TokenService.AutoRefreshMiddleware)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("", d.CartHandler.SetQuantity)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.DELETE("/:id/:portion", d.CartHandler.RemoveLine)
	cart.POST("/order", d.CartHandler.MakeOrder)

	admin := v1.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)

	admin.GET("/products", d.ProductHandler.ListAllProducts)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.POST("/products/import", d.ProductHandler.ImportProducts)
	admin.POST("/products/markup", d.ProductHandler.ApplyMarkup)
	admin.POST("/products/:id/status", d.ProductHandler.CycleStatus)
	admin.POST("/products/:id/portions", d.ProductHandler.TogglePortion)
	admin.PATCH("/products/:id/details", d.ProductHandler.UpdateDetails)
	admin.PATCH("/products/:id/prices", d.ProductHandler.UpdatePrices)
	admin.PATCH("/products/:id/unit-value", d.ProductHandler.UpdateUnitValue)
	admin.PATCH("/products/:id/categories", d.ProductHandler.UpdateCategories)
	admin.PATCH("/products/:id/images", d.ProductHandler.UpdateImages)
	admin.DELETE("/products/:id/images/:index", d.ProductHandler.DeleteImage)
	admin.PATCH("/products/:id/wholesale", d.ProductHandler.UpdateWholesale)

	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)

	admin.GET("/users", d.AuthHandler.ListUsers)
	admin.PATCH("/users/:id/customer-type", d.AuthHandler.SetCustomerType)
}
