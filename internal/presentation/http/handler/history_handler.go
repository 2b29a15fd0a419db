package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
	"github.com/sangkips/mesa-api/pkg/pagination"
)

// HistoryHandler handles closed-bill and cash register HTTP requests
type HistoryHandler struct {
	historyService *service.HistoryService
	cashService    *service.CashService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *service.HistoryService, cashService *service.CashService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, cashService: cashService}
}

func historyFilter(c *gin.Context) service.HistoryFilter {
	from, to := dateRange(c)
	return service.HistoryFilter{From: from, To: to}
}

// List handles listing closed bills, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	params := &pagination.PaginationParams{
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", 15),
	}

	result, err := h.historyService.List(c.Request.Context(), historyFilter(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "History retrieved successfully", result)
}

// Get handles getting a closed bill by ID
func (h *HistoryHandler) Get(c *gin.Context) {
	entry, err := h.historyService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "History entry retrieved successfully", entry)
}

// Delete handles removing a closed bill
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.historyService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "History entry removed successfully", nil)
}

// Report handles the sales totals for a date range
func (h *HistoryHandler) Report(c *gin.Context) {
	report, err := h.historyService.Report(c.Request.Context(), historyFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Report generated successfully", report)
}

// ListCash handles listing register movements
func (h *HistoryHandler) ListCash(c *gin.Context) {
	movements, err := h.cashService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash movements retrieved successfully", movements)
}

// RecordCash handles a manual register movement
func (h *HistoryHandler) RecordCash(c *gin.Context) {
	var req request.CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	movement, err := h.cashService.Record(c.Request.Context(), &service.CashInput{
		Direction:   enum.CashDirection(req.Direction),
		Amount:      req.Amount,
		Method:      enum.PaymentMethod(req.Method),
		Description: req.Description,
		StaffID:     GetStaffID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Cash movement recorded successfully", movement)
}

// CashBalance handles the register balance for a date range
func (h *HistoryHandler) CashBalance(c *gin.Context) {
	from, to := dateRange(c)
	balance, err := h.cashService.Balance(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash balance retrieved successfully", balance)
}
