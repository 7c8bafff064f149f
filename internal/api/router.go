package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nos-commerce-backend/internal/api/handler"
	"github.com/nos-commerce-backend/internal/api/middleware"
	"github.com/nos-commerce-backend/internal/domain/account"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accounts account.Repository,
	orderHandler *handler.OrderHandler,
	walletHandler *handler.WalletHandler,
	transactionHandler *handler.TransactionHandler,
	cartHandler *handler.CartHandler,
	productHandler *handler.ProductHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")

	// Public catalog reads
	products := v1.Group("/products")
	{
		products.GET("", productHandler.ListAll)
		products.GET("/search", productHandler.Search)
		products.GET("/:id", productHandler.GetByID)
		products.GET("/:id/variants", productHandler.ListVariants)
	}

	// Authenticated customer operations
	user := v1.Group("", middleware.RequireUser())
	{
		cart := user.Group("/cart")
		{
			cart.GET("", cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:variantId", cartHandler.UpdateItem)
			cart.DELETE("/items/:variantId", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.Clear)
		}

		orders := user.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.ListMine)
			orders.GET("/:id", orderHandler.GetByID)
			orders.POST("/:id/cancel", orderHandler.Cancel)
			orders.PUT("/:id/location", orderHandler.UpdateLocation)
		}

		wallet := user.Group("/wallet")
		{
			wallet.GET("", walletHandler.Get)
			wallet.POST("/activate", walletHandler.Activate)
			wallet.POST("/validate-pin", walletHandler.ValidatePin)
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.POST("/withdraw", walletHandler.Withdraw)
			wallet.GET("/transactions", walletHandler.ListTransactions)
			wallet.GET("/transactions/recent", walletHandler.RecentTransactions)
		}
	}

	// Administrative operations; role comes from the account record
	admin := v1.Group("/admin", middleware.RequireUser(), middleware.RequireAdmin(accounts))
	{
		adminOrders := admin.Group("/orders")
		{
			adminOrders.GET("", orderHandler.ListAll)
			adminOrders.GET("/:id", orderHandler.GetByID)
			adminOrders.GET("/:id/history", orderHandler.History)
			adminOrders.POST("/:id/accept", orderHandler.Accept)
			adminOrders.POST("/:id/ship", orderHandler.Ship)
			adminOrders.PUT("/:id/location", orderHandler.UpdateLocation)
			adminOrders.POST("/:id/deliver", orderHandler.Deliver)
			adminOrders.POST("/:id/cancel", orderHandler.Cancel)
		}

		adminProducts := admin.Group("/products")
		{
			adminProducts.POST("", productHandler.Create)
			adminProducts.PUT("/:id", productHandler.Update)
			adminProducts.POST("/:id/variants", productHandler.CreateVariant)
			adminProducts.POST("/variants/:variantId/images", productHandler.AddImage)
			adminProducts.DELETE("/images/:imageId", productHandler.DeleteImage)
		}

		adminTxns := admin.Group("/transactions")
		{
			adminTxns.POST("", transactionHandler.Create)
			adminTxns.GET("/:id", transactionHandler.GetByID)
			adminTxns.PUT("/:id", transactionHandler.UpdateStatus)
			adminTxns.DELETE("/:id", transactionHandler.Delete)
		}

		admin.GET("/users/:id/transactions", transactionHandler.ListByUser)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
