package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	assignmentapp "github.com/stockledger/backend/internal/application/assignment"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	partnerapp "github.com/stockledger/backend/internal/application/partner"
	procurementapp "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/auth"
	"github.com/stockledger/backend/internal/infrastructure/cache"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stockledger/backend/internal/infrastructure/event"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Stock Ledger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Run schema migrations
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations applied")

	// Initialize repositories
	stockItemRepo := persistence.NewGormStockItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	adjustmentRepo := persistence.NewGormStockAdjustmentRepository(db.DB)
	transferRepo := persistence.NewGormStockTransferRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)

	// Transaction scopes: every workflow commits its document state, the
	// quantity update and the ledger entries in one transaction
	inventoryTxScope := persistence.NewGormInventoryTransactionScope(db.DB)
	procurementTxScope := persistence.NewGormProcurementTransactionScope(db.DB)
	assignmentTxScope := persistence.NewGormAssignmentTransactionScope(db.DB)

	// Initialize application services
	stockService := inventoryapp.NewStockService(stockItemRepo, movementRepo)
	adjustmentService := inventoryapp.NewAdjustmentService(adjustmentRepo, stockItemRepo, inventoryTxScope)
	transferService := inventoryapp.NewTransferService(transferRepo, inventoryTxScope)
	purchaseOrderService := procurementapp.NewPurchaseOrderService(orderRepo, supplierRepo, locationRepo, procurementTxScope)
	assignmentService := assignmentapp.NewAssignmentService(assignmentRepo, assignmentTxScope)
	locationService := partnerapp.NewLocationService(locationRepo, stockItemRepo)
	supplierService := partnerapp.NewSupplierService(supplierRepo)

	// Idempotency store for receive endpoints (Redis, with in-memory fallback)
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idempotencyTTL := shared.DefaultIdempotencyConfig().TTL
	transferService.SetIdempotencyStore(idempotencyStore, idempotencyTTL)
	purchaseOrderService.SetIdempotencyStore(idempotencyStore, idempotencyTTL)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	lowStockHandler := inventoryapp.NewLowStockHandler(log)
	eventBus.Subscribe(lowStockHandler)
	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	stockService.SetEventPublisher(eventBus)
	adjustmentService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	purchaseOrderService.SetEventPublisher(eventBus)
	assignmentService.SetEventPublisher(eventBus)

	// JWT service for API authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	stockHandler := handler.NewStockHandler(stockService)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentService)
	transferHandler := handler.NewTransferHandler(transferService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	locationHandler := handler.NewLocationHandler(locationService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, tracing, security headers, body limit, CORS
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes behind JWT authentication
	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	// Role guards: stock-changing operations need a manager or admin;
	// employees acknowledge and return their own assignments.
	managerOnly := middleware.RequireRoleWithConfig(
		middleware.RoleGuardConfig{Logger: log},
		shared.RoleAdmin, shared.RoleManager,
	)
	anyStaff := middleware.RequireRoleWithConfig(
		middleware.RoleGuardConfig{Logger: log},
		shared.RoleAdmin, shared.RoleManager, shared.RoleStaff,
	)

	systemRoutes := api.Group("/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Stock items and the movement ledger
	stockRoutes := api.Group("/stock")
	stockRoutes.GET("", stockHandler.List)
	stockRoutes.GET("/lookup", stockHandler.Lookup)
	stockRoutes.GET("/below-minimum", stockHandler.ListBelowMinimum)
	stockRoutes.GET("/movements", stockHandler.ListMovements)
	stockRoutes.POST("/check-availability", stockHandler.CheckAvailability)
	stockRoutes.GET("/location/:location_id", stockHandler.ListByLocation)
	stockRoutes.GET("/:id", stockHandler.GetByID)
	stockRoutes.PUT("/:id/min-quantity", managerOnly, stockHandler.SetMinQuantity)
	stockRoutes.GET("/:id/movements", stockHandler.ListItemMovements)
	stockRoutes.POST("/:id/reconcile", managerOnly, stockHandler.Reconcile)

	// Adjustment workflow: any staff member can request, only a manager
	// or admin settles it
	adjustmentRoutes := api.Group("/adjustments")
	adjustmentRoutes.POST("", anyStaff, adjustmentHandler.Create)
	adjustmentRoutes.GET("", adjustmentHandler.List)
	adjustmentRoutes.GET("/:id", adjustmentHandler.GetByID)
	adjustmentRoutes.POST("/:id/approve", managerOnly, adjustmentHandler.Approve)
	adjustmentRoutes.POST("/:id/reject", managerOnly, adjustmentHandler.Reject)
	adjustmentRoutes.DELETE("/:id", managerOnly, adjustmentHandler.Delete)

	// Transfer workflow
	transferRoutes := api.Group("/transfers")
	transferRoutes.POST("", managerOnly, transferHandler.Create)
	transferRoutes.GET("", transferHandler.List)
	transferRoutes.GET("/:id", transferHandler.GetByID)
	transferRoutes.POST("/:id/submit", managerOnly, transferHandler.Submit)
	transferRoutes.POST("/:id/approve", managerOnly, transferHandler.Approve)
	transferRoutes.POST("/:id/ship", managerOnly, transferHandler.Ship)
	transferRoutes.POST("/:id/receive", managerOnly, transferHandler.Receive)
	transferRoutes.POST("/:id/cancel", managerOnly, transferHandler.Cancel)
	transferRoutes.DELETE("/:id", managerOnly, transferHandler.Delete)

	// Purchase order workflow
	orderRoutes := api.Group("/purchase-orders")
	orderRoutes.POST("", managerOnly, purchaseOrderHandler.Create)
	orderRoutes.GET("", purchaseOrderHandler.List)
	orderRoutes.GET("/:id", purchaseOrderHandler.GetByID)
	orderRoutes.POST("/:id/submit", managerOnly, purchaseOrderHandler.Submit)
	orderRoutes.POST("/:id/approve", managerOnly, purchaseOrderHandler.Approve)
	orderRoutes.POST("/:id/place", managerOnly, purchaseOrderHandler.Place)
	orderRoutes.POST("/:id/receive", managerOnly, purchaseOrderHandler.Receive)
	orderRoutes.POST("/:id/cancel", managerOnly, purchaseOrderHandler.Cancel)
	orderRoutes.DELETE("/:id", managerOnly, purchaseOrderHandler.Delete)

	// Assignment workflow: employees acknowledge and return their own
	// gear, write-offs need a manager
	assignmentRoutes := api.Group("/assignments")
	assignmentRoutes.POST("", managerOnly, assignmentHandler.Create)
	assignmentRoutes.GET("", assignmentHandler.List)
	assignmentRoutes.GET("/employee/:employee_id", assignmentHandler.ListByEmployee)
	assignmentRoutes.GET("/:id", assignmentHandler.GetByID)
	assignmentRoutes.POST("/:id/acknowledge", anyStaff, assignmentHandler.Acknowledge)
	assignmentRoutes.POST("/:id/return", anyStaff, assignmentHandler.Return)
	assignmentRoutes.POST("/:id/lost", managerOnly, assignmentHandler.MarkLost)
	assignmentRoutes.POST("/:id/damaged", managerOnly, assignmentHandler.MarkDamaged)

	// Locations
	locationRoutes := api.Group("/locations")
	locationRoutes.POST("", managerOnly, locationHandler.Create)
	locationRoutes.GET("", locationHandler.List)
	locationRoutes.GET("/:id", locationHandler.GetByID)
	locationRoutes.PUT("/:id", managerOnly, locationHandler.Update)
	locationRoutes.POST("/:id/activate", managerOnly, locationHandler.Activate)
	locationRoutes.POST("/:id/deactivate", managerOnly, locationHandler.Deactivate)
	locationRoutes.DELETE("/:id", managerOnly, locationHandler.Delete)

	// Suppliers
	supplierRoutes := api.Group("/suppliers")
	supplierRoutes.POST("", managerOnly, supplierHandler.Create)
	supplierRoutes.GET("", supplierHandler.List)
	supplierRoutes.GET("/:id", supplierHandler.GetByID)
	supplierRoutes.PUT("/:id", managerOnly, supplierHandler.Update)
	supplierRoutes.POST("/:id/activate", managerOnly, supplierHandler.Activate)
	supplierRoutes.POST("/:id/deactivate", managerOnly, supplierHandler.Deactivate)
	supplierRoutes.DELETE("/:id", managerOnly, supplierHandler.Delete)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
