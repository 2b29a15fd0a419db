package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// MenuHandler handles menu HTTP requests
type MenuHandler struct {
	menuService *service.MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

// List handles listing the menu
func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.menuService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu retrieved successfully", items)
}

// Get handles getting a menu entry by name
func (h *MenuHandler) Get(c *gin.Context) {
	item, err := h.menuService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu item retrieved successfully", item)
}

// Upsert handles creating or updating a menu entry
func (h *MenuHandler) Upsert(c *gin.Context) {
	var req request.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.menuService.Upsert(c.Request.Context(), &service.MenuItemInput{
		Name:        req.Name,
		UnitPrice:   req.UnitPrice,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu item saved successfully", item)
}

// Delete handles removing a menu entry; stock is left alone
func (h *MenuHandler) Delete(c *gin.Context) {
	if err := h.menuService.Remove(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu item removed successfully", nil)
}
