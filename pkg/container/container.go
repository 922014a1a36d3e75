package container

import (
	"context"
	"fmt"
	"time"

	"restaurant-backend/internal/config"
	infracache "restaurant-backend/internal/infrastructure/cache"
	"restaurant-backend/internal/infrastructure/database"
	"restaurant-backend/pkg/cache"
	pkgdatabase "restaurant-backend/pkg/database"
	"restaurant-backend/pkg/jwt"
	"restaurant-backend/pkg/logger"

	cartHandler "restaurant-backend/internal/domains/cart/handler"
	cartservice "restaurant-backend/internal/domains/cart/service"
	catalogHandler "restaurant-backend/internal/domains/catalog/handler"
	catalogRepo "restaurant-backend/internal/domains/catalog/repository"
	catalogService "restaurant-backend/internal/domains/catalog/service"
	inventoryHandler "restaurant-backend/internal/domains/inventory/handler"
	inventoryRepo "restaurant-backend/internal/domains/inventory/repository"
	inventoryService "restaurant-backend/internal/domains/inventory/service"
	loyaltyHandler "restaurant-backend/internal/domains/loyalty/handler"
	loyaltyService "restaurant-backend/internal/domains/loyalty/service"
	orderHandler "restaurant-backend/internal/domains/order/handler"
	orderRepo "restaurant-backend/internal/domains/order/repository"
	orderService "restaurant-backend/internal/domains/order/service"
	rewardHandler "restaurant-backend/internal/domains/reward/handler"
	rewardRepo "restaurant-backend/internal/domains/reward/repository"
	rewardService "restaurant-backend/internal/domains/reward/service"
	userHandler "restaurant-backend/internal/domains/user/handler"
	userRepo "restaurant-backend/internal/domains/user/repository"
	userService "restaurant-backend/internal/domains/user/service"
	voucherHandler "restaurant-backend/internal/domains/voucher/handler"
	voucherRepo "restaurant-backend/internal/domains/voucher/repository"
	voucherService "restaurant-backend/internal/domains/voucher/service"
)

// Container chứa toàn bộ dependency graph của application.
//
// Thứ tự initialization:
//  1. Config (không phụ thuộc gì)
//  2. Infrastructure (DB, Redis, JWT) - phụ thuộc Config
//  3. Repositories - phụ thuộc Infrastructure
//  4. Services - phụ thuộc Repositories (và nhau, qua adapter)
//  5. Handlers - phụ thuộc Services
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	TxManager  pkgdatabase.TxManager

	CatalogRepo   catalogRepo.CatalogRepository
	VoucherRepo   voucherRepo.VoucherRepository
	OrderRepo     orderRepo.OrderRepository
	UserRepo      userRepo.UserRepository
	RewardRepo    rewardRepo.RewardRepository
	InventoryRepo inventoryRepo.InventoryRepository

	CatalogService   catalogService.CatalogService
	CartService      cartservice.CartService
	VoucherService   voucherService.VoucherService
	OrderService     orderService.OrderService
	RewardService    rewardService.RewardService
	LoyaltyService   loyaltyService.LoyaltyService
	UserService      userService.UserService
	InventoryService inventoryService.InventoryService

	CatalogHandler   *catalogHandler.CatalogHandler
	CartHandler      *cartHandler.CartHandler
	VoucherHandler   *voucherHandler.VoucherHandler
	OrderHandler     *orderHandler.OrderHandler
	RewardHandler    *rewardHandler.RewardHandler
	LoyaltyHandler   *loyaltyHandler.LoyaltyHandler
	UserHandler      *userHandler.UserHandler
	InventoryHandler *inventoryHandler.InventoryHandler

	redis *infracache.RedisClient
}

// NewContainer build dependency graph từ config đến handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	// Step 1: config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("config loaded", map[string]interface{}{"environment": cfg.App.Environment})

	// Step 2: database
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	c.TxManager = pkgdatabase.NewPoolTxManager(db.Pool)
	logger.Info("database connected", nil)

	// Step 3: redis
	redis := infracache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redis.Connect(context.Background()); err != nil {
		// Cart và published-voucher cache cần Redis, fail sớm còn hơn
		// chạy với cart không lưu được
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.redis = redis
	c.Cache = redis
	logger.Info("redis connected", nil)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	// Step 4: repositories
	c.CatalogRepo = catalogRepo.NewPostgresRepository(db.Pool)
	c.VoucherRepo = voucherRepo.NewPostgresRepository(db.Pool)
	c.OrderRepo = orderRepo.NewPostgresRepository(db.Pool)
	c.UserRepo = userRepo.NewPostgresRepository(db.Pool)
	c.RewardRepo = rewardRepo.NewPostgresRepository(db.Pool)
	c.InventoryRepo = inventoryRepo.NewPostgresRepository(db.Pool)

	// Step 5: services
	// Leaf services trước, adapter nối cross-domain mà không import vòng
	c.CatalogService = catalogService.NewCatalogService(c.CatalogRepo)
	c.CartService = cartservice.NewCartService(c.Cache, c.CatalogService)

	c.LoyaltyService = loyaltyService.NewLoyaltyService(c.OrderRepo, c.UserRepo, c.TxManager, cfg.Loyalty)
	c.OrderService = orderService.NewOrderService(c.OrderRepo, c.TxManager, c.CartService, c.LoyaltyService)

	checkoutAdapter := orderService.NewCheckoutAdapter(c.OrderRepo)
	shopperAdapter := userService.NewShopperAdapter(c.UserRepo, c.OrderRepo, c.CartService)
	c.VoucherService = voucherService.NewVoucherService(
		c.VoucherRepo, c.TxManager, c.Cache, checkoutAdapter, shopperAdapter,
	)

	c.RewardService = rewardService.NewRewardService(c.RewardRepo, c.TxManager, c.UserRepo, c.VoucherRepo)
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)
	c.InventoryService = inventoryService.NewInventoryService(c.InventoryRepo)

	// Step 6: handlers
	c.CatalogHandler = catalogHandler.NewCatalogHandler(c.CatalogService)
	c.CartHandler = cartHandler.NewCartHandler(c.CartService)
	c.VoucherHandler = voucherHandler.NewVoucherHandler(c.VoucherService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.RewardHandler = rewardHandler.NewRewardHandler(c.RewardService)
	c.LoyaltyHandler = loyaltyHandler.NewLoyaltyHandler(c.UserRepo, cfg.Loyalty)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.InventoryHandler = inventoryHandler.NewInventoryHandler(c.InventoryService)

	logger.Info("container initialized", nil)
	return c, nil
}

// Cleanup đóng connections khi shutdown, gọi từ graceful shutdown path
func (c *Container) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
		logger.Info("database connections closed", nil)
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			logger.Warn("failed to close redis", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Info("redis connections closed", nil)
		}
	}
}
