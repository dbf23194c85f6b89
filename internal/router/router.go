// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/config"
	"github.com/javajoker/catalog-api/internal/handlers"
	"github.com/javajoker/catalog-api/internal/middleware"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/services"
	"github.com/javajoker/catalog-api/internal/utils"
)

// Throttles holds the per-scope limiters so the caller can stop their
// cleanup goroutines on shutdown.
type Throttles struct {
	Product *middleware.Throttle
	Orders  *middleware.Throttle
	Auth    *middleware.Throttle
}

func NewThrottles(cfg config.ThrottleConfig) (*Throttles, error) {
	product, err := middleware.NewThrottle("product", cfg.ProductRate)
	if err != nil {
		return nil, err
	}
	orders, err := middleware.NewThrottle("orders", cfg.OrdersRate)
	if err != nil {
		product.Close()
		return nil, err
	}
	auth, err := middleware.NewThrottle("auth", cfg.AuthRate)
	if err != nil {
		product.Close()
		orders.Close()
		return nil, err
	}
	return &Throttles{Product: product, Orders: orders, Auth: auth}, nil
}

func (t *Throttles) Close() {
	t.Product.Close()
	t.Orders.Close()
	t.Auth.Close()
}

func Initialize(db *gorm.DB, cfg *config.Config, cacheManager *cache.Manager, throttles *Throttles) *gin.Engine {
	pg := cfg.Pagination
	productPaginator := pagination.New(pg.ProductListStyle, pg.PageSize, pg.MaxPageSize, pg.DefaultLimit, pg.MaxLimit)
	orderPaginator := pagination.New(pg.OrderListStyle, pg.PageSize, pg.MaxPageSize, pg.DefaultLimit, pg.MaxLimit)

	// Initialize services
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db, cfg.Database.QueryTimeout)
	productService := services.NewProductService(db, cacheManager, productPaginator, cfg.Database.QueryTimeout)
	orderService := services.NewOrderService(db, cacheManager, orderPaginator, cfg.Database.QueryTimeout)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, cacheManager, cache.Endpoint{
		Prefix: cache.ProductListPrefix,
		TTL:    cfg.Cache.ProductListTTL,
	})
	orderHandler := handlers.NewOrderHandler(orderService, cacheManager, cache.Endpoint{
		Prefix:      cache.OrderListPrefix,
		TTL:         cfg.Cache.OrderListTTL,
		VaryHeaders: []string{"Authorization"},
	})

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
	})

	auth := r.Group("/auth")
	auth.Use(throttles.Auth.Middleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/token", authHandler.Token)
		auth.POST("/token/refresh", authHandler.Refresh)
	}

	// Writes need a staff token; reads are public.
	products := r.Group("/products")
	products.Use(
		middleware.SafeMethodsOr(middleware.Authenticated, middleware.Staff),
		middleware.OptionalAuth(),
		throttles.Product.Middleware(),
	)
	{
		products.GET("/", productHandler.ListProducts)
		products.POST("/", productHandler.CreateProduct)
		products.GET("/info/", productHandler.GetProductInfo)
		products.GET("/:id/", productHandler.GetProduct)
		products.PUT("/:id/", productHandler.UpdateProduct)
		products.PATCH("/:id/", productHandler.UpdateProduct)
		products.DELETE("/:id/", productHandler.DeleteProduct)
	}

	orders := r.Group("/orders")
	orders.Use(middleware.AuthRequired(), throttles.Orders.Middleware())
	{
		orders.GET("/", orderHandler.ListOrders)
		orders.POST("/", orderHandler.CreateOrder)
		orders.GET("/user-orders/", orderHandler.ListUserOrders)
		orders.GET("/:order_id/", orderHandler.GetOrder)
		orders.PUT("/:order_id/", orderHandler.UpdateOrder)
		orders.PATCH("/:order_id/", orderHandler.UpdateOrder)
		orders.DELETE("/:order_id/", orderHandler.DeleteOrder)
	}

	users := r.Group("/users")
	users.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		users.GET("/", userHandler.ListUsers)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s %s not found", c.Request.Method, c.Request.URL.Path), nil)
	})

	return r
}
