// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/catalogs/medicine"
	"pharmstock/internal/domain/catalogs/node"
	"pharmstock/internal/domain/reconciliation"
	"pharmstock/internal/domain/reports"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/transfer"
	"pharmstock/internal/infrastructure/http/v1/handlers"
	"pharmstock/internal/infrastructure/http/v1/middleware"
	"pharmstock/internal/infrastructure/observability"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmstock/internal/infrastructure/storage/postgres/report_repo"
	"pharmstock/internal/infrastructure/storage/postgres/stock_repo"
	"pharmstock/pkg/logger"
	"pharmstock/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks, numerator)
	Pool *postgres.Pool

	// TxManager coordinates transactions for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numerator for audit number generation
	Numerator *numerator.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health and metrics endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	// API v1 - every route requires a portal-issued bearer token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	v1.Use(middleware.UserContext())
	{
		registerCatalogRoutes(v1, cfg)
		registerStockRoutes(v1, cfg)
		registerLedgerRoutes(v1, cfg)
		registerReportRoutes(v1, cfg)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- MEDICINES ---
	{
		repo := catalog_repo.NewMedicineRepo(cfg.TxManager)
		service := medicine.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewMedicineHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/medicines"), handler)
	}

	// --- NODES ---
	{
		repo := catalog_repo.NewNodeRepo(cfg.TxManager)
		service := node.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewNodeHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/nodes"), handler)
	}
}

// registerStockRoutes registers stock operation endpoints.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	batchRepo := stock_repo.NewBatchRepo(cfg.TxManager)
	movementRepo := stock_repo.NewMovementRepo(cfg.TxManager)
	reconRepo := stock_repo.NewReconciliationRepo(cfg.TxManager)

	stockService := stock.NewService(batchRepo, movementRepo, cfg.TxManager)
	allocService := allocation.NewService(batchRepo, movementRepo, cfg.TxManager)
	transferSvc := transfer.NewService(batchRepo, movementRepo, cfg.TxManager)
	reconcileSvc := reconciliation.NewService(batchRepo, movementRepo, reconRepo, cfg.Numerator, cfg.TxManager)

	handler := handlers.NewStockHandler(baseHandler, stockService, allocService, transferSvc, reconcileSvc)

	stockGroup := rg.Group("/stock")
	{
		stockGroup.POST("/receive", handler.Receive)
		stockGroup.GET("/batches", handler.ListBatches)
		stockGroup.GET("/batches/:id", handler.GetBatch)
		stockGroup.GET("/batches/:id/verify", handler.VerifyBatch)
		stockGroup.POST("/dispense", handler.Dispense)
		stockGroup.POST("/transfer", handler.Transfer)
		stockGroup.POST("/reconcile", handler.Reconcile)
		stockGroup.GET("/reconciliations", handler.ListReconciliations)
	}
}

// registerLedgerRoutes registers movement ledger read endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	batchRepo := stock_repo.NewBatchRepo(cfg.TxManager)
	movementRepo := stock_repo.NewMovementRepo(cfg.TxManager)
	stockService := stock.NewService(batchRepo, movementRepo, cfg.TxManager)

	handler := handlers.NewLedgerHandler(baseHandler, stockService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/movements", handler.List)
		ledger.GET("/movements/export", handler.Export)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	reportRepo := report_repo.NewReportRepo(cfg.TxManager)
	reportService := reports.NewService(reportRepo)
	handler := handlers.NewReportsHandler(baseHandler, reportService)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/stock-value", handler.GetStockValue)
		reportsGroup.GET("/near-expiry", handler.GetNearExpiry)
		reportsGroup.GET("/distribution", handler.GetDistribution)
	}
}
