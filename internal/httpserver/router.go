package httpserver

import (
	"net/http"

	"github.com/avoskov/retail_pos/internal/auth"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth     *auth.Service
	Products *ProductHTTP
	Users    *UserHTTP
	Carts    *CartHTTP
	Sales    *SaleHTTP
	Settings *SettingsHTTP
	Backup   *BackupHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authHTTP := &AuthHTTP{Svc: d.Auth}
	e.POST("/login", authHTTP.Login)

	api := e.Group("/api")
	api.Use(RequireAuth(d.Auth))

	api.POST("/logout", authHTTP.Logout)

	anyRole := RequireRoles(models.RoleAdmin, models.RoleEmployee, models.RoleEmployeeReturn)
	adminOnly := RequireRoles(models.RoleAdmin)
	returns := RequireRoles(models.RoleAdmin, models.RoleEmployeeReturn)

	products := api.Group("/products", anyRole)
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/barcode/:code", d.Products.GetByBarcode)
	products.GET("/:id", d.Products.Get)
	products.GET("/:id/image", d.Products.GetImage)
	products.POST("", d.Products.Create, adminOnly)
	products.PATCH("/:id", d.Products.Patch, adminOnly)
	products.DELETE("/:id", d.Products.Delete, adminOnly)
	products.PUT("/:id/image", d.Products.PutImage, adminOnly)

	users := api.Group("/users", adminOnly)
	users.GET("", d.Users.List)
	users.POST("", d.Users.Create)
	users.PATCH("/:id", d.Users.Patch)
	users.DELETE("/:id", d.Users.Delete)

	carts := api.Group("/cart", anyRole)
	carts.GET("", d.Carts.Get)
	carts.POST("/items", d.Carts.AddItem)
	carts.PUT("/items/:productID", d.Carts.SetQuantity)
	carts.DELETE("/items/:productID", d.Carts.RemoveItem)
	carts.DELETE("", d.Carts.Clear)
	api.POST("/checkout", d.Carts.Checkout, anyRole)

	sales := api.Group("/sales", anyRole)
	sales.GET("", d.Sales.List)
	sales.GET("/:id", d.Sales.Get)
	sales.POST("/:id/return", d.Sales.Return, returns)

	settingsGroup := api.Group("/settings", adminOnly)
	settingsGroup.GET("", d.Settings.Get)
	settingsGroup.PUT("", d.Settings.Update)
	settingsGroup.POST("/reset", d.Settings.Reset)

	backupGroup := api.Group("/backup", adminOnly)
	backupGroup.GET("", d.Backup.Export)
	backupGroup.POST("/restore", d.Backup.Restore)
}
