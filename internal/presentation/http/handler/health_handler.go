package handler

import (
	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	name     string
	scanner  *service.ScannerService
	printers *service.PrinterService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(name string, scanner *service.ScannerService, printers *service.PrinterService) *HealthHandler {
	return &HealthHandler{name: name, scanner: scanner, printers: printers}
}

// Health returns the service status together with the scanner and printer state.
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, "Service is healthy", gin.H{
		"status":  "ok",
		"service": h.name,
		"scanner": gin.H{"active": h.scanner.Active()},
		"printer": h.printers.GetStatus(),
	})
}
