package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests.
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler.
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status := h.printerService.GetStatus()
	response.OK(c, "Printer status retrieved", status)
}

// TestPrint sends a test page to the printer.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint(c.Request.Context())
	if err != nil {
		// The receipt is still useful when the printer is disabled
		response.OK(c, "Test print completed (printer may be disabled)", gin.H{
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}

	response.OK(c, "Test page sent to printer", gin.H{
		"receipt": receipt,
	})
}

// PreviewBill returns the bill of a table without printing it.
func (h *PrinterHandler) PreviewBill(c *gin.Context) {
	receipt, err := h.printerService.BuildBill(c.Request.Context(), c.Param("id"), queryInt(c, "split", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	receipt.Cashier = GetStaffName(c)
	response.OK(c, "Bill generated successfully", gin.H{
		"receipt": receipt,
	})
}

// PrintBill prints the current bill of a table.
func (h *PrinterHandler) PrintBill(c *gin.Context) {
	var req request.PrintBillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	if req.Split == 0 {
		req.Split = 1
	}

	receipt, err := h.printerService.PrintBill(c.Request.Context(), c.Param("id"), req.Split, GetStaffName(c))
	printed(c, "Bill printed successfully", "receipt", receipt, receipt != nil, err)
}

// PrintHistory reprints a closed bill.
func (h *PrinterHandler) PrintHistory(c *gin.Context) {
	receipt, err := h.printerService.PrintHistory(c.Request.Context(), c.Param("id"))
	printed(c, "Bill reprinted successfully", "receipt", receipt, receipt != nil, err)
}

// PrintOrderTicket prints the ticket of one order for the bar.
func (h *PrinterHandler) PrintOrderTicket(c *gin.Context) {
	order, err := h.printerService.PrintOrderTicket(c.Request.Context(), c.Param("id"))
	printed(c, "Order ticket printed successfully", "order", order, order != nil, err)
}

// printed reports a print job. If the document was built but printing
// failed, the document is returned with a warning.
func printed(c *gin.Context, message, key string, doc interface{}, built bool, err error) {
	if err != nil {
		if built {
			response.OK(c, "Document generated but printing failed", gin.H{
				key:       doc,
				"warning": err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, message, gin.H{
		key: doc,
	})
}
