package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/request"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/middleware"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/gin-gonic/gin"
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
	response.OK(c, "Printer status retrieved", h.printerService.GetStatus())
}

// PrintInvoice prints the current cart on the receipt printer.
func (h *PrinterHandler) PrintInvoice(c *gin.Context) {
	var req request.PrintInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	if req.Copies == 0 {
		req.Copies = 1
	}

	cashier := middleware.GetOperatorName(c)
	receipt, err := h.printCopies(c.Request.Context(), cashier, req.Copies)
	if err != nil {
		// the receipt is still useful on screen when the printer is down
		if receipt != nil && apperror.GetAppError(err).Code == http.StatusServiceUnavailable {
			response.OK(c, "Invoice generated but printing failed", gin.H{
				"receipt": receipt,
				"warning": err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice sent to printer", gin.H{"receipt": receipt})
}

func (h *PrinterHandler) printCopies(ctx context.Context, cashier string, copies int) (*entity.Receipt, error) {
	var last *entity.Receipt
	for i := 0; i < copies; i++ {
		receipt, err := h.printerService.PrintInvoice(ctx, cashier)
		if receipt != nil {
			last = receipt
		}
		if err != nil {
			return last, err
		}
	}
	return last, nil
}

// InvoicePDF downloads the current cart as an A4 PDF invoice.
func (h *PrinterHandler) InvoicePDF(c *gin.Context) {
	data, receipt, err := h.printerService.InvoicePDF(middleware.GetOperatorName(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"invoice-%s.pdf\"", receipt.InvoiceNo))
	c.Data(http.StatusOK, "application/pdf", data)
}
