package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List handles listing orders, optionally for one table
func (h *OrderHandler) List(c *gin.Context) {
	var (
		orders []entity.Order
		err    error
	)
	if tableID := c.Query("table_id"); tableID != "" {
		orders, err = h.orderService.ListByTable(c.Request.Context(), tableID)
	} else {
		orders, err = h.orderService.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("pending") == "true" {
		pending := orders[:0]
		for _, o := range orders {
			if !o.Delivered {
				pending = append(pending, o)
			}
		}
		orders = pending
	}

	response.OK(c, "Orders retrieved successfully", orders)
}

// Get handles getting an order by ID
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// Create handles placing an order on a table
func (h *OrderHandler) Create(c *gin.Context) {
	var req request.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	items := make([]service.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Note:     item.Note,
		}
	}

	order, err := h.orderService.Create(c.Request.Context(), &service.CreateOrderInput{
		TableID:   req.TableID,
		Items:     items,
		CreatedBy: GetStaffID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order created successfully", order)
}

// Deliver handles marking an order delivered, which debits stock
func (h *OrderHandler) Deliver(c *gin.Context) {
	order, err := h.orderService.SetDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order delivered successfully", order)
}

// Delete handles removing an order that has not been delivered
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orderService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order removed successfully", nil)
}

// Revert handles returning a delivered order's items to stock and removing it
func (h *OrderHandler) Revert(c *gin.Context) {
	if err := h.orderService.RevertAndRemove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order reverted successfully", nil)
}
