package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// StockHandler handles stock and combo HTTP requests
type StockHandler struct {
	stockService *service.StockService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// List handles listing stock rows. low=true keeps only items at or below their threshold.
func (h *StockHandler) List(c *gin.Context) {
	list := h.stockService.List
	if c.Query("low") == "true" {
		list = h.stockService.LowStock
	}

	items, err := list(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock retrieved successfully", items)
}

// Get handles getting a stock row by ID or name
func (h *StockHandler) Get(c *gin.Context) {
	item, err := h.stockService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock item retrieved successfully", item)
}

// Create handles adding an item to stock and to the menu
func (h *StockHandler) Create(c *gin.Context) {
	var req request.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.stockService.AddToStockAndMenu(c.Request.Context(), &service.AddStockInput{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		UnitPrice:    req.UnitPrice,
		Category:     req.Category,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Stock item saved successfully", item)
}

// Restock handles adding quantity to an existing row
func (h *StockHandler) Restock(c *gin.Context) {
	var req request.StockQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.stockService.Restock(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock item restocked successfully", item)
}

// UpdateQuantity handles setting the counted quantity of a row
func (h *StockHandler) UpdateQuantity(c *gin.Context) {
	var req request.StockQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.stockService.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock quantity updated successfully", item)
}

// Delete handles removing a row together with its menu entry
func (h *StockHandler) Delete(c *gin.Context) {
	if err := h.stockService.RemoveFromStockAndMenu(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock item removed successfully", nil)
}

// Prune handles removing a row only when it has run out
func (h *StockHandler) Prune(c *gin.Context) {
	removed, err := h.stockService.RemoveIfDepleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Depletion check completed", gin.H{"removed": removed})
}

// CheckAvailability handles validating a prospective order without changing stock
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req request.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	items := make([]service.StockRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.StockRequest{Name: item.Name, Quantity: item.Quantity}
	}
	if err := h.stockService.ValidateAvailability(c.Request.Context(), items); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock is available", gin.H{"available": true})
}

// Combos handles listing the configured combos and their sub-items
func (h *StockHandler) Combos(c *gin.Context) {
	registry := h.stockService.Combos()
	combos := make([]gin.H, 0, registry.Len())
	for _, name := range registry.Names() {
		items, _ := registry.SubItemsFor(name)
		combos = append(combos, gin.H{"name": name, "items": items})
	}
	response.OK(c, "Combos retrieved successfully", combos)
}
