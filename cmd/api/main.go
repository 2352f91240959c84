// File: cmd/api/main.go
// Single binary for the store: catalog, carts, checkout and payment
// reconciliation behind one gin router.
package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/tienda-api/docs"
	"github.com/MikeMC777/tienda-api/internal/address"
	"github.com/MikeMC777/tienda-api/internal/auth"
	"github.com/MikeMC777/tienda-api/internal/cart"
	"github.com/MikeMC777/tienda-api/internal/config"
	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/httpx"
	"github.com/MikeMC777/tienda-api/internal/order"
	"github.com/MikeMC777/tienda-api/internal/payment"
	"github.com/MikeMC777/tienda-api/internal/product"
	"github.com/MikeMC777/tienda-api/internal/user"
)

// @title        Tienda API
// @version      1.0
// @description  Carrito, checkout y reconciliación de pagos de la tienda.
// @BasePath     /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[api] %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[api] %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("[api] redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.AccessTokenExpMin)*time.Minute)

	users := user.NewPGRepo(pool)
	addresses := address.NewPGRepo(pool)

	products := product.NewPGRepo(pool)
	catalog := product.NewCachedReader(products, rdb)

	carts := cart.NewPGStore()
	// the cart validates stock against the repo, never the cache
	cartSvc := cart.NewService(carts, pool, pool, products)

	orders := order.NewPGRepo(pool)
	checkout := order.NewService(pool, orders, carts, addresses, products)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	payments := payment.NewPGRepo(pool)
	paySvc := payment.NewService(pool, pool, payments, orders, gateway)

	roleOf := func(ctx context.Context, userID string) (string, error) {
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		return u.Role, nil
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics())

	r.GET("/healthz", healthzHandler(pool))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	us := v1.Group("/users")
	us.POST("/register", registerHandler(users))
	us.POST("/login", loginHandler(users, tokens))
	us.GET("/me", httpx.Auth(tokens), meHandler(users))

	ad := v1.Group("/addresses", httpx.Auth(tokens))
	ad.POST("", createAddressHandler(addresses))
	ad.GET("", listAddressesHandler(addresses))

	pr := v1.Group("/products")
	pr.GET("", listProductsHandler(catalog))
	pr.GET("/:key", getProductHandler(catalog))

	ct := v1.Group("/cart", httpx.OptionalAuth(tokens))
	ct.GET("", getCartHandler(cartSvc))
	ct.POST("/items", addCartItemHandler(cartSvc))
	ct.PUT("/items/:id", updateCartItemHandler(cartSvc))
	ct.DELETE("/items/:id", removeCartItemHandler(cartSvc))

	or := v1.Group("/orders", httpx.Auth(tokens))
	or.POST("", createOrderHandler(checkout))
	or.GET("", listOrdersHandler(orders))
	or.GET("/:id", getOrderHandler(orders))

	pay := v1.Group("/payments")
	pay.POST("/create-intent", httpx.Auth(tokens), createIntentHandler(paySvc))
	pay.POST("/webhook", stripeWebhookHandler(paySvc))

	adm := v1.Group("/admin", httpx.Auth(tokens), httpx.RequireAdmin(roleOf))
	adm.GET("/products", adminListProductsHandler(products))
	adm.POST("/products", createProductHandler(products))
	adm.PUT("/products/:id", updateProductHandler(products, catalog))
	adm.DELETE("/products/:id", deleteProductHandler(products, catalog))
	adm.PUT("/products/:id/stock", setStockHandler(products, catalog))
	adm.PUT("/orders/:id/status", updateOrderStatusHandler(orders))
	adm.PUT("/orders/:id/shipping", markShippedHandler(orders))

	log.Printf("[api] listening on %s", cfg.APIAddr)
	log.Fatal(r.Run(cfg.APIAddr))
}

func healthzHandler(pool *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(200, gin.H{"status": "ok", "database": "healthy"})
	}
}
