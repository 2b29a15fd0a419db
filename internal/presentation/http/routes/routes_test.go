package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/config"
	"github.com/sangkips/mesa-api/internal/domain/combo"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/infrastructure/events"
	"github.com/sangkips/mesa-api/internal/infrastructure/repository"
	"github.com/sangkips/mesa-api/internal/presentation/http/handler"
	"github.com/sangkips/mesa-api/internal/presentation/http/middleware"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/printer"
	"github.com/sangkips/mesa-api/pkg/utils"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := docstore.NewMemoryStore()
	stockRepo := repository.NewStockRepository(store)
	menuRepo := repository.NewMenuRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	tableRepo := repository.NewTableRepository(store)
	historyRepo := repository.NewHistoryRepository(store)
	cashRepo := repository.NewCashRepository(store)
	hub := events.NewHub()

	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	authService := service.NewAuthService(repository.NewStaffRepository(store), jwtManager)
	if err := authService.EnsureAdmin(ctx, "Gerente", "1234"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	stockService := service.NewStockService(store, stockRepo, menuRepo, combo.Empty(), hub, 5)
	menuService := service.NewMenuService(store, menuRepo, hub)
	t.Cleanup(menuService.Close)
	orderService := service.NewOrderService(store, orderRepo, tableRepo, stockService, menuService, hub)
	tableService := service.NewTableService(store, tableRepo, repository.NewMergedTableRepository(store), orderRepo, historyRepo, cashRepo, menuService, hub)
	printerService := service.NewPrinterService(printer.NewNullPrinter(), tableRepo, orderRepo, historyRepo, menuService, entity.ReceiptHeader{StoreName: "Bar"}, "none")

	cfg := &config.Config{
		App:       config.AppConfig{Name: "mesa-api"},
		Store:     config.StoreConfig{Driver: "memory"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 1},
	}
	limiter := middleware.NewStaffRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	})
	t.Cleanup(limiter.Stop)

	router := Setup(&Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Table:   handler.NewTableHandler(tableService, service.NewMessagingService(tableService, orderService, menuService, "Bar")),
		Order:   handler.NewOrderHandler(orderService),
		Stock:   handler.NewStockHandler(stockService),
		Menu:    handler.NewMenuHandler(menuService),
		History: handler.NewHistoryHandler(service.NewHistoryService(historyRepo), service.NewCashService(store, cashRepo, hub)),
		Printer: handler.NewPrinterHandler(printerService),
		Events:  handler.NewEventsHandler(hub),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: repository.NewIdempotencyRepository(store),
		RateLimiter:     limiter,
		Ping:            store.Ping,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (s *testServer) login(name, pin string) string {
	s.t.Helper()
	w, resp := s.do("POST", "/api/v1/auth/login", "", gin.H{"name": name, "pin": pin})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", name, w.Code, w.Body.String())
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	decode(s.t, resp.Data, &data)
	return data.AccessToken
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func TestRoutes_OrderToClosedBill(t *testing.T) {
	s := newTestServer(t)
	token := s.login("gerente", "1234")

	w, _ := s.do("POST", "/api/v1/stock", token, gin.H{"name": "Cerveja", "quantity": 10, "unit_price": 12})
	expectStatus(t, w, http.StatusCreated)

	w, resp := s.do("POST", "/api/v1/tables", token, gin.H{"client_name": "Ana"})
	expectStatus(t, w, http.StatusCreated)
	var table entity.Table
	decode(t, resp.Data, &table)

	w, resp = s.do("POST", "/api/v1/orders", token, gin.H{
		"table_id": table.ID,
		"items":    []gin.H{{"name": "cerveja", "quantity": 3}},
	})
	expectStatus(t, w, http.StatusCreated)
	var order entity.Order
	decode(t, resp.Data, &order)

	w, _ = s.do("POST", "/api/v1/orders/"+order.ID+"/deliver", token, nil)
	expectStatus(t, w, http.StatusOK)

	w, resp = s.do("GET", "/api/v1/stock/Cerveja", token, nil)
	expectStatus(t, w, http.StatusOK)
	var item entity.StockItem
	decode(t, resp.Data, &item)
	if item.Quantity != 7 {
		t.Errorf("stock after delivery = %v, want 7", item.Quantity)
	}

	w, resp = s.do("GET", "/api/v1/tables/"+table.ID+"/summary?received=50", token, nil)
	expectStatus(t, w, http.StatusOK)
	var summary struct {
		Remaining float64 `json:"remaining"`
		Change    float64 `json:"change"`
	}
	decode(t, resp.Data, &summary)
	if summary.Remaining != 36 || summary.Change != 14 {
		t.Errorf("summary = %+v, want remaining 36 and change 14", summary)
	}

	w, resp = s.do("POST", "/api/v1/tables/"+table.ID+"/close", token, gin.H{"amount_received": 50, "method": "cash"})
	expectStatus(t, w, http.StatusOK)
	var entry entity.HistoryEntry
	decode(t, resp.Data, &entry)
	if entry.Total != 36 {
		t.Errorf("archived total = %v, want 36", entry.Total)
	}

	w, resp = s.do("GET", "/api/v1/cash/balance", token, nil)
	expectStatus(t, w, http.StatusOK)
	var balance service.CashBalance
	decode(t, resp.Data, &balance)
	if balance.Balance != 36 {
		t.Errorf("cash balance = %v, want 36", balance.Balance)
	}
}

func TestRoutes_ErrorKindsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Gerente", "1234")

	w, _ := s.do("GET", "/api/v1/tables", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w, _ = s.do("POST", "/api/v1/auth/login", "", gin.H{"name": "Gerente", "pin": "9999"})
	expectStatus(t, w, http.StatusUnauthorized)

	w, _ = s.do("GET", "/api/v1/tables/missing", token, nil)
	expectStatus(t, w, http.StatusNotFound)

	s.do("POST", "/api/v1/stock", token, gin.H{"name": "Gin", "quantity": 2, "unit_price": 20})
	_, resp := s.do("POST", "/api/v1/tables", token, gin.H{"client_name": "Bruno"})
	var table entity.Table
	decode(t, resp.Data, &table)

	w, resp = s.do("POST", "/api/v1/orders", token, gin.H{
		"table_id": table.ID,
		"items":    []gin.H{{"name": "Gin", "quantity": 3}},
	})
	expectStatus(t, w, http.StatusConflict)
	if resp.Kind != "insufficient_stock" {
		t.Errorf("kind = %q, want insufficient_stock", resp.Kind)
	}

	w, resp = s.do("POST", "/api/v1/tables", token, gin.H{"client_name": "BRUNO"})
	expectStatus(t, w, http.StatusConflict)
	if resp.Kind != "duplicate_client" {
		t.Errorf("kind = %q, want duplicate_client", resp.Kind)
	}

	w, _ = s.do("POST", "/api/v1/tables/"+table.ID+"/payments", token, gin.H{"amount_paid": 0})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w, _ = s.do("POST", "/api/v1/tables/"+table.ID+"/split", token, nil)
	expectStatus(t, w, http.StatusConflict)
}

func TestRoutes_ManagerOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	manager := s.login("Gerente", "1234")

	w, _ := s.do("POST", "/api/v1/staff", manager, gin.H{"name": "Caio", "pin": "4321", "role": "waiter"})
	expectStatus(t, w, http.StatusCreated)
	waiter := s.login("caio", "4321")

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"POST", "/api/v1/stock", gin.H{"name": "Vodka", "quantity": 1, "unit_price": 10}},
		{"PUT", "/api/v1/menu", gin.H{"name": "Vodka", "unit_price": 10}},
		{"GET", "/api/v1/history", nil},
		{"GET", "/api/v1/cash/balance", nil},
		{"GET", "/api/v1/staff", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w, _ := s.do(tt.method, tt.path, waiter, tt.body)
			expectStatus(t, w, http.StatusForbidden)
		})
	}

	w, _ = s.do("GET", "/api/v1/tables", waiter, nil)
	expectStatus(t, w, http.StatusOK)
}

func TestRoutes_IdempotencyReplaysWrites(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Gerente", "1234")
	body := gin.H{"client_name": "Carla"}

	w1, resp1 := s.do("POST", "/api/v1/tables", token, body, "Idempotency-Key", "open-carla")
	expectStatus(t, w1, http.StatusCreated)
	w2, resp2 := s.do("POST", "/api/v1/tables", token, body, "Idempotency-Key", "open-carla")
	expectStatus(t, w2, http.StatusCreated)

	if w2.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("second request was not replayed")
	}
	var first, second entity.Table
	decode(t, resp1.Data, &first)
	decode(t, resp2.Data, &second)
	if first.ID != second.ID {
		t.Errorf("replay returned table %s, want %s", second.ID, first.ID)
	}

	w, _ := s.do("POST", "/api/v1/tables", token, gin.H{"client_name": "Davi"}, "Idempotency-Key", "open-carla")
	expectStatus(t, w, http.StatusUnprocessableEntity)

	_, resp := s.do("GET", "/api/v1/tables", token, nil)
	var tables []entity.Table
	decode(t, resp.Data, &tables)
	if len(tables) != 1 {
		t.Errorf("tables = %d, want 1", len(tables))
	}
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do("GET", "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
}
