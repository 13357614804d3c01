package service

import (
	"context"
	"errors"
	"image"
	"log"
	"net/http"
	"sync"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/domain/enum"
	"github.com/echohealthcare/mvps-pos/internal/metrics"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/echohealthcare/mvps-pos/pkg/scanner"
)

// StatusNoBarcode is shown when a still capture could not be decoded.
const StatusNoBarcode = "No barcode found"

// ScannerService connects the camera surface and the still-capture fallback
// to the register.
type ScannerService struct {
	register *RegisterService
	surface  *scanner.Surface
	fallback *scanner.Fallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScannerService creates a new scanner service. surface may be nil when the
// register has no camera; capture from uploaded frames still works.
func NewScannerService(register *RegisterService, surface *scanner.Surface, fallback *scanner.Fallback) *ScannerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScannerService{
		register: register,
		surface:  surface,
		fallback: fallback,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// CaptureResult reports a still capture.
type CaptureResult struct {
	Found    bool              `json:"found"`
	Code     string            `json:"code,omitempty"`
	Format   string            `json:"format,omitempty"`
	Pass     string            `json:"pass,omitempty"`
	Attempts []scanner.Attempt `json:"attempts"`
	Scan     *ScanResult       `json:"scan,omitempty"`
}

// Start begins continuous scanning. Starting an active scanner is a no-op.
func (s *ScannerService) Start(ctx context.Context) error {
	if s.surface == nil {
		return apperror.NewUnprocessableError("No camera configured for this register")
	}
	if err := s.surface.Acquire(ctx, s.onDetected); err != nil {
		log.Printf("[scanner] start failed: %v", err)
		return apperror.NewAppError(http.StatusServiceUnavailable, "Camera unavailable: "+err.Error())
	}
	return nil
}

// Stop ends continuous scanning.
func (s *ScannerService) Stop() {
	if s.surface != nil {
		s.surface.Release()
	}
}

// Active reports whether the camera loop is running.
func (s *ScannerService) Active() bool {
	return s.surface != nil && s.surface.Active()
}

// onDetected runs on the decode loop, so the lookup is handed off.
func (s *ScannerService) onDetected(d scanner.Detection) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err := s.register.HandleScan(s.ctx, entity.ScanEvent{
			Code:       d.Text,
			Format:     d.Format,
			Source:     enum.ScanSourceCamera,
			ObservedAt: d.ObservedAt,
		})
		if err != nil && !errors.Is(err, apperror.ErrRegisterClosed) {
			log.Printf("[scanner] %s: %v", d.Text, err)
		}
	}()
}

// Capture decodes a still frame, trying enhancement passes when the plain
// frame does not read. A nil frame uses the camera's most recent frame.
func (s *ScannerService) Capture(ctx context.Context, frame image.Image) (*CaptureResult, error) {
	if frame == nil && s.surface != nil {
		frame = s.surface.LastFrame()
	}
	if frame == nil {
		return nil, apperror.ErrNoFrame
	}

	res, err := s.fallback.Decode(frame)
	out := &CaptureResult{Attempts: res.Attempts}
	if errors.Is(err, scanner.ErrNotFound) {
		metrics.CaptureAttempts.WithLabelValues("none").Inc()
		s.register.SetStatus(StatusNoBarcode)
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.CaptureAttempts.WithLabelValues(res.Pass).Inc()

	out.Found = true
	out.Code = res.Result.Text
	out.Format = res.Result.Format
	out.Pass = res.Pass

	scan, err := s.register.HandleScan(ctx, entity.ScanEvent{
		Code:   res.Result.Text,
		Format: res.Result.Format,
		Source: enum.ScanSourceCapture,
	})
	out.Scan = scan
	return out, err
}

// Close stops scanning and waits for lookups started by the camera loop.
func (s *ScannerService) Close() {
	s.Stop()
	s.cancel()
	s.wg.Wait()
}
