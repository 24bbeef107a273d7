package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/logger"
)

type RouterConfig struct {
	Bills     *BillHandler
	Customers *CustomerHandler
	Products  *ProductHandler
	Health    *HealthHandler
	// Idempotency guards bill creation; nil disables it
	Idempotency gin.HandlerFunc
	Metrics     http.Handler
	Logger      *zap.Logger
}

// NewRouter builds the console API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(logger.Recovery(cfg.Logger), logger.GinMiddleware(cfg.Logger))

	router.GET("/health", cfg.Health.HealthCheck)
	router.GET("/services", cfg.Health.ListServices)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := router.Group("/api")

	createBill := []gin.HandlerFunc{cfg.Bills.CreateBill}
	if cfg.Idempotency != nil {
		createBill = append([]gin.HandlerFunc{cfg.Idempotency}, createBill...)
	}
	api.GET("/bills", cfg.Bills.ListBills)
	api.POST("/bills", createBill...)
	api.GET("/bills/customer/:customerId", cfg.Bills.ListBillsByCustomer)
	api.GET("/bills/:id", cfg.Bills.GetBill)
	api.DELETE("/bills/:id", cfg.Bills.DeleteBill)

	api.GET("/customers", cfg.Customers.ListCustomers)
	api.POST("/customers", cfg.Customers.CreateCustomer)
	api.GET("/customers/:id", cfg.Customers.GetCustomer)
	api.PUT("/customers/:id", cfg.Customers.UpdateCustomer)
	api.DELETE("/customers/:id", cfg.Customers.DeleteCustomer)

	api.GET("/products", cfg.Products.ListProducts)
	api.POST("/products", cfg.Products.CreateProduct)
	api.GET("/products/available", cfg.Products.AvailableProducts)
	api.GET("/products/:id", cfg.Products.GetProduct)
	api.PUT("/products/:id", cfg.Products.UpdateProduct)
	api.DELETE("/products/:id", cfg.Products.DeleteProduct)

	return router
}
