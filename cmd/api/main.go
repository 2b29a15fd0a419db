package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/config"
	"github.com/sangkips/mesa-api/internal/domain/combo"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/infrastructure/database"
	"github.com/sangkips/mesa-api/internal/infrastructure/events"
	"github.com/sangkips/mesa-api/internal/infrastructure/firestore"
	"github.com/sangkips/mesa-api/internal/infrastructure/repository"
	"github.com/sangkips/mesa-api/internal/presentation/http/handler"
	"github.com/sangkips/mesa-api/internal/presentation/http/middleware"
	"github.com/sangkips/mesa-api/internal/presentation/http/routes"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/printer"
	"github.com/sangkips/mesa-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close()

	combos, err := combo.LoadFile(cfg.Combos.File)
	if err != nil {
		log.Printf("Warning: Failed to load combos from %s, continuing without combos: %v", cfg.Combos.File, err)
		combos = combo.Empty()
	}
	log.Printf("Loaded %d combos", combos.Len())

	// In-process hub for the SSE stream, RabbitMQ for other services when configured
	hub := events.NewHub()
	var publisher event.Publisher = hub
	if cfg.AMQP.URL != "" {
		rabbit, err := events.ConnectRabbitMQ(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("Warning: Failed to connect to RabbitMQ, events stay in-process: %v", err)
		} else {
			defer rabbit.Close()
			publisher = events.Multi{hub, rabbit}
		}
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	stockRepo := repository.NewStockRepository(store)
	menuRepo := repository.NewMenuRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	tableRepo := repository.NewTableRepository(store)
	mergedRepo := repository.NewMergedTableRepository(store)
	historyRepo := repository.NewHistoryRepository(store)
	cashRepo := repository.NewCashRepository(store)
	staffRepo := repository.NewStaffRepository(store)
	idempotencyRepo := repository.NewIdempotencyRepository(store)

	// Initialize services
	authService := service.NewAuthService(staffRepo, jwtManager)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.PIN); err != nil {
		log.Printf("Warning: Failed to create initial manager: %v", err)
	}
	stockService := service.NewStockService(store, stockRepo, menuRepo, combos, publisher, cfg.App.LowStock)
	menuService := service.NewMenuService(store, menuRepo, publisher)
	defer menuService.Close()
	orderService := service.NewOrderService(store, orderRepo, tableRepo, stockService, menuService, publisher)
	tableService := service.NewTableService(store, tableRepo, mergedRepo, orderRepo, historyRepo, cashRepo, menuService, publisher)
	historyService := service.NewHistoryService(historyRepo)
	cashService := service.NewCashService(store, cashRepo, publisher)
	messagingService := service.NewMessagingService(tableService, orderService, menuService, cfg.App.BarName)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()
	header := entity.ReceiptHeader{StoreName: cfg.App.BarName, Phone: cfg.App.BarPhone}
	printerService := service.NewPrinterService(thermalPrinter, tableRepo, orderRepo, historyRepo, menuService, header, cfg.Printer.Type)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Table:   handler.NewTableHandler(tableService, messagingService),
		Order:   handler.NewOrderHandler(orderService),
		Stock:   handler.NewStockHandler(stockService),
		Menu:    handler.NewMenuHandler(menuService),
		History: handler.NewHistoryHandler(historyService, cashService),
		Printer: handler.NewPrinterHandler(printerService),
		Events:  handler.NewEventsHandler(hub),
	}

	rateLimiter := middleware.NewStaffRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.Duration),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Ping:            store.Ping,
	})

	go purgeIdempotencyKeys(ctx, idempotencyRepo.DeleteExpired)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s, store: %s", cfg.App.Env, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	// SSE streams end when their request context is cancelled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error: graceful shutdown failed: %v", err)
	}
}

// openStore connects the document store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		return database.NewDocumentStore(db), nil
	case "firestore":
		fs, err := firestore.NewStore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "memory", "":
		log.Printf("Warning: using the in-memory store, data is lost on restart")
		return docstore.NewMemoryStore(), nil
	default:
		return nil, errors.New("unknown store driver " + cfg.Store.Driver)
	}
}

func purgeIdempotencyKeys(ctx context.Context, purge func(context.Context) error) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := purge(ctx); err != nil {
				log.Printf("Warning: failed to purge expired idempotency keys: %v", err)
			}
		}
	}
}
