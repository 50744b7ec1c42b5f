package handlers

import (
	"context"
	"net/http"
	"time"

	"farm_store/internal/middleware"
	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Services struct {
	Catalog  services.CatalogService
	Carts    services.CartService
	Checkout services.CheckoutService
	Orders   services.OrderService
	Contacts services.ContactService
	Auth     services.AuthService
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

func NewRouter(svc Services, checks map[string]HealthCheck, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger))

	store := NewStoreHandler(svc.Catalog)
	carts := NewCartHandler(svc.Carts)
	checkout := NewCheckoutHandler(svc.Checkout, svc.Carts, svc.Orders)
	contact := NewContactHandler(svc.Contacts)
	admin := NewAdminHandler(svc.Auth, svc.Catalog, svc.Orders, svc.Contacts)

	router.GET("/healthz", health(checks))

	api := router.Group("/api")
	{
		api.GET("/products", store.ListProducts)
		api.GET("/products/:id", store.GetProduct)

		api.GET("/cart", carts.Get)
		api.POST("/cart/items", carts.AddItem)
		api.PATCH("/cart/items/:line", carts.UpdateItem)
		api.DELETE("/cart/items/:line", carts.RemoveItem)
		api.POST("/cart/addon", carts.ToggleAddOn)
		api.DELETE("/cart", carts.Clear)

		api.GET("/checkout/quote", checkout.Quote)
		api.POST("/payments/paypal/orders", checkout.CreatePayPalOrder)
		api.POST("/checkout", checkout.Checkout)
		api.GET("/orders/:number", checkout.GetOrder)

		api.POST("/contact", contact.Submit)
		api.POST("/admin/login", admin.Login)
	}

	protected := api.Group("/admin")
	protected.Use(middleware.AdminAuth(svc.Auth))
	{
		protected.POST("/logout", admin.Logout)

		protected.GET("/products", admin.ListProducts)
		protected.POST("/products", admin.CreateProduct)
		protected.PATCH("/products/:id", admin.UpdateProduct)
		protected.DELETE("/products/:id", admin.DeleteProduct)

		protected.GET("/orders", admin.ListOrders)
		protected.GET("/orders/:id", admin.GetOrder)
		protected.PATCH("/orders/:id/status", admin.UpdateOrderStatus)
		protected.PATCH("/orders/:id/payment", admin.UpdatePaymentStatus)
		protected.POST("/orders/:id/archive", admin.ArchiveOrder)
		protected.POST("/orders/:id/restore", admin.RestoreOrder)
		protected.DELETE("/orders/:id", admin.DeleteOrder)

		protected.GET("/contacts", admin.ListContacts)
		protected.PATCH("/contacts/:id", admin.UpdateContact)
		protected.DELETE("/contacts/:id", admin.DeleteContact)
	}

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{
			"success": status == http.StatusOK,
			"data":    report,
		})
	}
}
