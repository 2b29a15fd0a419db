package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/config"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/internal/presentation/http/handler"
	"github.com/sangkips/mesa-api/internal/presentation/http/middleware"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth    *handler.AuthHandler
	Table   *handler.TableHandler
	Order   *handler.OrderHandler
	Stock   *handler.StockHandler
	Menu    *handler.MenuHandler
	History *handler.HistoryHandler
	Printer *handler.PrinterHandler
	Events  *handler.EventsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.StaffRateLimiter

	// Ping reports whether the document store is reachable.
	Ping func(ctx context.Context) error
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewStaffRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
	}

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", 200
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				status, code = "store unavailable: "+err.Error(), 503
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.Cfg.App.Name,
			"store":   deps.Cfg.Store.Driver,
			"limiter": rateLimiter.Stats(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		public := v1.Group("")
		public.Use(rateLimiter.Middleware())
		registerAuthRoutes(public, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(rateLimiter.Middleware())

		// Event stream is long-lived and read-only
		protected.GET("/events", h.Events.Stream)

		writes := protected.Group("")
		writes.Use(middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}))
		registerProtectedRoutes(writes, h)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	manager := middleware.RequireRole(enum.StaffRoleManager)

	protected.GET("/profile", h.Auth.GetProfile)

	staff := protected.Group("/staff", manager)
	{
		staff.GET("", h.Auth.ListStaff)
		staff.POST("", h.Auth.CreateStaff)
	}

	registerTableRoutes(protected, h, manager)
	registerOrderRoutes(protected, h)
	registerStockRoutes(protected, h, manager)
	registerHistoryRoutes(protected, h, manager)

	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
		printer.POST("/history/:id", h.Printer.PrintHistory)
		printer.POST("/orders/:id", h.Printer.PrintOrderTicket)
	}
}

func registerTableRoutes(rg *gin.RouterGroup, h *Handlers, manager gin.HandlerFunc) {
	tables := rg.Group("/tables")
	{
		tables.GET("", h.Table.List)
		tables.POST("", h.Table.Create)
		tables.POST("/merge", h.Table.Merge)
		tables.GET("/:id", h.Table.Get)
		tables.PATCH("/:id/position", h.Table.Move)
		tables.POST("/:id/split", h.Table.Split)
		tables.GET("/:id/summary", h.Table.Summary)
		tables.GET("/:id/bill", h.Printer.PreviewBill)
		tables.POST("/:id/bill/print", h.Printer.PrintBill)
		tables.POST("/:id/bill/whatsapp", h.Table.SendBill)
		tables.POST("/:id/payments", h.Table.Pay)
		tables.POST("/:id/close", h.Table.Close)
		tables.DELETE("/:id", manager, h.Table.Delete)
	}
}

func registerOrderRoutes(rg *gin.RouterGroup, h *Handlers) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", h.Order.Create)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/deliver", h.Order.Deliver)
		orders.POST("/:id/revert", h.Order.Revert)
		orders.DELETE("/:id", h.Order.Delete)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, h *Handlers, manager gin.HandlerFunc) {
	stock := rg.Group("/stock")
	{
		stock.GET("", h.Stock.List)
		stock.GET("/combos", h.Stock.Combos)
		stock.POST("/availability", h.Stock.CheckAvailability)
		stock.GET("/:id", h.Stock.Get)
		stock.POST("", manager, h.Stock.Create)
		stock.POST("/:id/restock", manager, h.Stock.Restock)
		stock.PUT("/:id/quantity", manager, h.Stock.UpdateQuantity)
		stock.POST("/:id/prune", manager, h.Stock.Prune)
		stock.DELETE("/:id", manager, h.Stock.Delete)
	}

	menu := rg.Group("/menu")
	{
		menu.GET("", h.Menu.List)
		menu.GET("/:name", h.Menu.Get)
		menu.PUT("", manager, h.Menu.Upsert)
		menu.DELETE("/:name", manager, h.Menu.Delete)
	}
}

func registerHistoryRoutes(rg *gin.RouterGroup, h *Handlers, manager gin.HandlerFunc) {
	history := rg.Group("/history", manager)
	{
		history.GET("", h.History.List)
		history.GET("/report", h.History.Report)
		history.GET("/:id", h.History.Get)
		history.DELETE("/:id", h.History.Delete)
	}

	cash := rg.Group("/cash", manager)
	{
		cash.GET("", h.History.ListCash)
		cash.POST("", h.History.RecordCash)
		cash.GET("/balance", h.History.CashBalance)
	}
}
