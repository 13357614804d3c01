package handler

import (
	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/request"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// RegisterHandler handles the cart, customer and checkout endpoints.
type RegisterHandler struct {
	register *service.RegisterService
	checkout *service.CheckoutService
}

// NewRegisterHandler creates a new register handler
func NewRegisterHandler(register *service.RegisterService, checkout *service.CheckoutService) *RegisterHandler {
	return &RegisterHandler{register: register, checkout: checkout}
}

// GetRegister returns the cart, totals, customer draft and submission state.
func (h *RegisterHandler) GetRegister(c *gin.Context) {
	response.OK(c, "Register retrieved", h.register.Snapshot())
}

// Scan resolves a barcode and adds the product to the cart.
func (h *RegisterHandler) Scan(c *gin.Context) {
	var req request.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewFieldError("code", "Barcode is required"))
		return
	}

	res, err := h.register.HandleScan(c.Request.Context(), entity.ScanEvent{
		Code:   req.Code,
		Format: req.Format,
		Source: req.ScanSource(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Product added"
	switch res.Outcome {
	case entity.ScanOutcomeIncremented:
		message = "Quantity updated"
	case entity.ScanOutcomeSuppressed:
		message = "Duplicate scan ignored"
	}
	response.OK(c, message, gin.H{
		"scan":     res,
		"register": h.register.Snapshot(),
	})
}

// UpdateLine edits quantity, unit price or discount of one line.
func (h *RegisterHandler) UpdateLine(c *gin.Context) {
	id, err := productIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	quantity, err := quantityOf(req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	_, err = h.register.UpdateLine(id, service.LineUpdate{
		Quantity:        quantity,
		UnitPrice:       rawOf(req.UnitPrice),
		DiscountPercent: rawOf(req.DiscountPercent),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line updated", h.register.Snapshot())
}

// Increment adds one to a line's quantity.
func (h *RegisterHandler) Increment(c *gin.Context) {
	h.step(c, h.register.Increment)
}

// Decrement removes one from a line's quantity, stopping at 1.
func (h *RegisterHandler) Decrement(c *gin.Context) {
	h.step(c, h.register.Decrement)
}

func (h *RegisterHandler) step(c *gin.Context, fn func(int64) (entity.CartLine, error)) {
	id, err := productIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := fn(id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line updated", h.register.Snapshot())
}

// RemoveLine deletes a line from the cart.
func (h *RegisterHandler) RemoveLine(c *gin.Context) {
	id, err := productIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.register.RemoveLine(id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line removed", h.register.Snapshot())
}

// Clear starts a new sale.
func (h *RegisterHandler) Clear(c *gin.Context) {
	if err := h.register.Clear(); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart cleared", h.register.Snapshot())
}

// ClearHistory empties the scan history.
func (h *RegisterHandler) ClearHistory(c *gin.Context) {
	if err := h.register.ClearHistory(); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Scan history cleared", h.register.Snapshot())
}

// SetCustomer stores the customer phone and name typed by the operator.
func (h *RegisterHandler) SetCustomer(c *gin.Context) {
	var req request.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	draft, err := h.register.SetCustomerDraft(c.Request.Context(), req.Phone, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer updated", draft)
}

// Checkout submits the cart as an order.
func (h *RegisterHandler) Checkout(c *gin.Context) {
	result, err := h.checkout.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order created successfully", gin.H{
		"order":    result,
		"register": h.register.Snapshot(),
	})
}
