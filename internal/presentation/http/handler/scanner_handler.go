package handler

import (
	"errors"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// ScannerHandler handles the camera and still-capture endpoints.
type ScannerHandler struct {
	scanner      *service.ScannerService
	register     *service.RegisterService
	maxFrameSize int64
}

// NewScannerHandler creates a new scanner handler. Uploaded frames larger
// than maxFrameSize bytes are rejected.
func NewScannerHandler(scanner *service.ScannerService, register *service.RegisterService, maxFrameSize int64) *ScannerHandler {
	if maxFrameSize <= 0 {
		maxFrameSize = 8 << 20
	}
	return &ScannerHandler{scanner: scanner, register: register, maxFrameSize: maxFrameSize}
}

// Status reports whether the camera loop is running.
func (h *ScannerHandler) Status(c *gin.Context) {
	response.OK(c, "Scanner status retrieved", gin.H{"active": h.scanner.Active()})
}

// Start begins continuous camera scanning.
func (h *ScannerHandler) Start(c *gin.Context) {
	if err := h.scanner.Start(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Scanner started", gin.H{"active": h.scanner.Active()})
}

// Stop ends continuous camera scanning.
func (h *ScannerHandler) Stop(c *gin.Context) {
	h.scanner.Stop()
	response.OK(c, "Scanner stopped", gin.H{"active": false})
}

// Capture decodes an uploaded "frame" image, or the camera's latest frame
// when none is uploaded.
func (h *ScannerHandler) Capture(c *gin.Context) {
	frame, err := h.readFrame(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.scanner.Capture(c.Request.Context(), frame)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Barcode captured"
	if !res.Found {
		message = service.StatusNoBarcode
	}
	response.OK(c, message, gin.H{
		"capture":  res,
		"register": h.register.Snapshot(),
	})
}

func (h *ScannerHandler) readFrame(c *gin.Context) (image.Image, error) {
	fh, err := c.FormFile("frame")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid frame upload: " + err.Error())
	}
	if fh.Size > h.maxFrameSize {
		return nil, apperror.NewAppError(http.StatusRequestEntityTooLarge, "Frame is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid frame upload: " + err.Error())
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperror.NewUnprocessableError("Frame is not a supported image")
	}
	return img, nil
}
