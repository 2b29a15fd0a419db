package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// TableHandler handles table-related HTTP requests
type TableHandler struct {
	tableService     *service.TableService
	messagingService *service.MessagingService
}

// NewTableHandler creates a new table handler
func NewTableHandler(tableService *service.TableService, messagingService *service.MessagingService) *TableHandler {
	return &TableHandler{tableService: tableService, messagingService: messagingService}
}

// List handles listing every table on the floor plan
func (h *TableHandler) List(c *gin.Context) {
	tables, err := h.tableService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Tables retrieved successfully", tables)
}

// Get handles getting a table by ID
func (h *TableHandler) Get(c *gin.Context) {
	table, err := h.tableService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Table retrieved successfully", table)
}

// Create handles opening a table
func (h *TableHandler) Create(c *gin.Context) {
	var req request.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	table, err := h.tableService.Create(c.Request.Context(), &service.CreateTableInput{
		ClientName: req.ClientName,
		Phone:      req.Phone,
		Position:   entity.Position{X: req.X, Y: req.Y},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Table opened successfully", table)
}

// Move handles dragging a table on the floor plan
func (h *TableHandler) Move(c *gin.Context) {
	var req request.MoveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.tableService.Move(c.Request.Context(), c.Param("id"), req.DX, req.DY)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Table moved successfully", table)
}

// Merge handles merging two or more open tables into the first one
func (h *TableHandler) Merge(c *gin.Context) {
	var req request.MergeTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	table, err := h.tableService.Merge(c.Request.Context(), req.TableIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Tables merged successfully", table)
}

// Split handles undoing the last merge of a table
func (h *TableHandler) Split(c *gin.Context) {
	tables, err := h.tableService.Split(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Tables split successfully", tables)
}

// Summary handles computing the bill of a table without changing it
func (h *TableHandler) Summary(c *gin.Context) {
	summary, err := h.tableService.Summary(
		c.Request.Context(),
		c.Param("id"),
		queryInt(c, "split", 1),
		queryFloat(c, "received"),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill calculated successfully", summary)
}

// Close handles paying the whole bill and archiving it
func (h *TableHandler) Close(c *gin.Context) {
	input, ok := h.bindPayment(c)
	if !ok {
		return
	}

	entry, err := h.tableService.CloseFull(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill closed successfully", entry)
}

// Pay handles a partial payment that leaves the table open
func (h *TableHandler) Pay(c *gin.Context) {
	input, ok := h.bindPayment(c)
	if !ok {
		return
	}

	result, err := h.tableService.ClosePartial(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment recorded successfully", result)
}

func (h *TableHandler) bindPayment(c *gin.Context) (*service.PaymentInput, bool) {
	var req request.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return nil, false
	}
	return &service.PaymentInput{
		AmountPaid:     req.AmountPaid,
		AmountReceived: req.AmountReceived,
		Discount:       req.Discount,
		Method:         enum.PaymentMethod(req.Method),
		StaffID:        GetStaffID(c),
	}, true
}

// Delete handles removing a table and its orders
func (h *TableHandler) Delete(c *gin.Context) {
	if err := h.tableService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Table removed successfully", nil)
}

// SendBill handles building a WhatsApp link with the table's bill
func (h *TableHandler) SendBill(c *gin.Context) {
	var req request.SendBillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	link, err := h.messagingService.BuildWhatsAppLink(c.Request.Context(), c.Param("id"), req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill link created successfully", link)
}
