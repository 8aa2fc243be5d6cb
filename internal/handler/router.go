package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/metrics"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/service"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Products   *service.ProductService
	Categories *service.CategoryService
	Cart       *service.CartService
	Wishlist   *service.WishlistService
	Presence   *service.PresenceService
	Orders     *service.OrderService
	Addresses  *service.AddressService
	Profiles   *service.ProfileService
	Admin      *service.AdminService
}

func NewRouter(cfg *config.Config, svc Services, health *HealthHandler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		metrics.Middleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           cfg.CORS.MaxAge,
		}),
	)

	router.GET("/healthz", health.Healthz)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", metrics.Handler())

	productH := NewProductHandler(svc.Products)
	categoryH := NewCategoryHandler(svc.Categories)
	cartH := NewCartHandler(svc.Cart)
	wishlistH := NewWishlistHandler(svc.Wishlist, svc.Presence)
	accountH := NewAccountHandler(svc.Profiles, svc.Addresses)
	orderH := NewOrderHandler(svc.Orders)
	adminH := NewAdminHandler(svc.Admin)

	// svc.Profiles may be nil in tests; the middleware then skips Ensure.
	var profiles middleware.ProfileEnsurer
	if svc.Profiles != nil {
		profiles = svc.Profiles
	}
	auth := middleware.AuthMiddleware(cfg.Platform.JWTSecret, profiles)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/client-config", ClientConfig(cfg.Platform))

		v1.GET("/products", productH.List)
		v1.GET("/products/featured", productH.Featured)
		v1.GET("/products/sale", productH.Sale)
		v1.GET("/products/:id", productH.GetByID)
		v1.GET("/categories", categoryH.List)
		v1.GET("/categories/:slug", categoryH.GetBySlug)

		user := v1.Group("", auth)
		user.GET("/me", accountH.Me)
		user.PUT("/me", accountH.UpdateMe)

		user.GET("/cart", cartH.GetCart)
		user.POST("/cart/items", cartH.AddItem)
		user.PUT("/cart/items/:id", cartH.UpdateItem)
		user.DELETE("/cart/items/:id", cartH.DeleteItem)

		user.GET("/wishlist", wishlistH.List)
		user.POST("/wishlist/toggle", wishlistH.Toggle)
		user.GET("/presence", wishlistH.Presence)

		user.GET("/addresses", accountH.ListAddresses)
		user.POST("/addresses", accountH.CreateAddress)
		user.PUT("/addresses/:id/default", accountH.SetDefaultAddress)
		user.DELETE("/addresses/:id", accountH.DeleteAddress)

		user.POST("/checkout/quote", orderH.Quote)
		user.POST("/orders", orderH.CreateOrder)
		user.GET("/orders", orderH.ListOrders)
		user.GET("/orders/:id", orderH.GetOrder)

		admin := v1.Group("/admin", auth, middleware.AdminOnly())
		admin.GET("/dashboard", adminH.Dashboard)

		admin.GET("/products", productH.AdminList)
		admin.POST("/products", productH.Create)
		admin.GET("/products/:id", productH.AdminGet)
		admin.PUT("/products/:id", productH.Update)
		admin.DELETE("/products/:id", productH.Delete)
		admin.POST("/products/:id/images", productH.AddImage)
		admin.DELETE("/products/:id/images/:imageId", productH.DeleteImage)

		admin.POST("/categories", categoryH.Create)
		admin.PUT("/categories/:id", categoryH.Update)
		admin.DELETE("/categories/:id", categoryH.Delete)

		admin.GET("/customers", adminH.ListCustomers)
		admin.GET("/customers/:id", adminH.GetCustomer)
		admin.DELETE("/customers/:id", adminH.DeleteCustomer)

		admin.GET("/orders", adminH.ListOrders)
		admin.GET("/orders/:id", adminH.GetOrder)
		admin.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)
		admin.PATCH("/orders/:id/payment-status", adminH.UpdatePaymentStatus)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return router
}
