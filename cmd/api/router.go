package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-backend/internal/shared/auth"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupCatalogRoutes(v1, c)
		setupCartRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupVoucherRoutes(v1, c)
		setupRewardRoutes(v1, c)
		setupLoyaltyRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH / PROFILE
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", c.UserHandler.Register)
		authGroup.POST("/login", c.UserHandler.Login)
	}

	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/me", c.UserHandler.GetProfile)
	}

	v1.GET("/leaderboard", c.UserHandler.Leaderboard)
}

// ========================================
// CATALOG (public browse)
// ========================================
func setupCatalogRoutes(v1 *gin.RouterGroup, c *container.Container) {
	products := v1.Group("/products")
	{
		products.GET("", c.CatalogHandler.ListProducts)
		products.GET("/:id", c.CatalogHandler.GetProduct)
	}

	combos := v1.Group("/combos")
	{
		combos.GET("", c.CatalogHandler.ListCombos)
		combos.GET("/:id", c.CatalogHandler.GetCombo)
	}

	v1.GET("/product-types", c.CatalogHandler.ListProductTypes)
	v1.GET("/extras", c.CatalogHandler.ListExtras)
}

// ========================================
// CART
// ========================================
func setupCartRoutes(v1 *gin.RouterGroup, c *container.Container) {
	cart := v1.Group("/cart")
	cart.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		cart.GET("", c.CartHandler.GetCart)
		cart.POST("/items", c.CartHandler.AddItem)
		cart.PUT("/items", c.CartHandler.UpdateItem)
		cart.DELETE("", c.CartHandler.ClearCart)
	}
}

// ========================================
// ORDERS
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders")
	orders.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		orders.POST("", c.OrderHandler.CreateOrder)
		orders.GET("", c.OrderHandler.ListOrders)
		orders.GET("/:id", c.OrderHandler.GetOrder)
	}
}

// ========================================
// VOUCHERS / CHECKOUT
// ========================================
func setupVoucherRoutes(v1 *gin.RouterGroup, c *container.Container) {
	vouchers := v1.Group("/vouchers")
	{
		vouchers.GET("", c.VoucherHandler.ListPublished)

		authed := vouchers.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.GET("/saved", c.VoucherHandler.ListSavedVouchers)
			authed.POST("/:id/save", c.VoucherHandler.SaveVoucher)
		}
	}

	checkout := v1.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		checkout.GET("/vouchers", c.VoucherHandler.GetApplicableVouchers)
		checkout.POST("/apply-vouchers", c.VoucherHandler.ApplyVouchers)
	}
}

// ========================================
// REWARDS / LOYALTY
// ========================================
func setupRewardRoutes(v1 *gin.RouterGroup, c *container.Container) {
	rewards := v1.Group("/rewards")
	{
		rewards.GET("", c.RewardHandler.ListRewards)

		authed := rewards.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.POST("/:id/redeem", c.RewardHandler.Redeem)
			authed.GET("/redemptions", c.RewardHandler.ListMyRedemptions)
		}
	}
}

func setupLoyaltyRoutes(v1 *gin.RouterGroup, c *container.Container) {
	loyalty := v1.Group("/loyalty")
	loyalty.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		loyalty.GET("/progress", c.LoyaltyHandler.RankProgress)
	}
}

// ========================================
// ADMIN
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager))

	catalog := admin.Group("")
	catalog.Use(middleware.RequirePermission(auth.PermCatalogManage))
	{
		catalog.POST("/products", c.CatalogHandler.CreateProduct)
		catalog.PUT("/products/:id", c.CatalogHandler.UpdateProduct)
		catalog.DELETE("/products/:id", c.CatalogHandler.DeleteProduct)
		catalog.POST("/combos", c.CatalogHandler.CreateCombo)
		catalog.DELETE("/combos/:id", c.CatalogHandler.DeleteCombo)
	}

	inventory := admin.Group("/materials")
	inventory.Use(middleware.RequirePermission(auth.PermInventoryManage))
	{
		inventory.GET("", c.InventoryHandler.ListMaterials)
		inventory.GET("/low-stock", c.InventoryHandler.ListLowStock)
		inventory.GET("/:id", c.InventoryHandler.GetMaterial)
		inventory.POST("", c.InventoryHandler.CreateMaterial)
		inventory.PUT("/:id", c.InventoryHandler.UpdateMaterial)
		inventory.DELETE("/:id", c.InventoryHandler.DeleteMaterial)
		inventory.POST("/:id/adjust", c.InventoryHandler.AdjustStock)
	}

	vouchers := admin.Group("/vouchers")
	vouchers.Use(middleware.RequirePermission(auth.PermVoucherManage))
	{
		vouchers.POST("", c.VoucherHandler.CreateVoucher)
		vouchers.GET("", c.VoucherHandler.ListVouchers)
		vouchers.GET("/:id", c.VoucherHandler.GetVoucher)
		vouchers.PUT("/:id", c.VoucherHandler.UpdateVoucher)
		vouchers.DELETE("/:id", c.VoucherHandler.DeleteVoucher)
	}

	rewards := admin.Group("/rewards")
	rewards.Use(middleware.RequirePermission(auth.PermRewardManage))
	{
		rewards.POST("", c.RewardHandler.CreateReward)
		rewards.PUT("/:id", c.RewardHandler.UpdateReward)
		rewards.DELETE("/:id", c.RewardHandler.DeleteReward)
	}

	redemptions := admin.Group("/redemptions")
	redemptions.Use(middleware.RequirePermission(auth.PermOrderManage))
	{
		redemptions.POST("/consume", c.RewardHandler.ConsumeRedemption)
	}

	orders := admin.Group("/orders")
	orders.Use(middleware.RequirePermission(auth.PermOrderManage))
	{
		orders.POST("/:id/paid", c.OrderHandler.MarkPaid)
		orders.POST("/:id/complete", c.OrderHandler.Complete)
		orders.POST("/:id/cancel", c.OrderHandler.Cancel)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
