// Package scanner turns camera frames into barcode detections.
package scanner

import (
	"errors"
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound is returned when a frame carries no readable barcode.
var ErrNotFound = errors.New("scanner: no barcode found")

// Result is one decoded barcode.
type Result struct {
	Text   string
	Format string
}

// Decoder reads a barcode out of a single image.
type Decoder interface {
	Decode(img image.Image) (Result, error)
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(img image.Image) (Result, error)

func (f DecoderFunc) Decode(img image.Image) (Result, error) {
	return f(img)
}

// ZXingDecoder tries the retail 1D symbologies and QR on every frame.
// gozxing readers keep internal buffers, so calls are serialised.
type ZXingDecoder struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewZXingDecoder returns a decoder for EAN-13, EAN-8, UPC-A, UPC-E, Code 128,
// Code 39, Code 93, Codabar, ITF and QR.
func NewZXingDecoder() *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &ZXingDecoder{
		hints: hints,
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(hints),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewCode93Reader(),
			oned.NewCodaBarReader(),
			oned.NewITFReader(),
			qrcode.NewQRCodeReader(),
		},
	}
}

func (d *ZXingDecoder) Decode(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, ErrNotFound
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, ErrNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.readers {
		res, err := r.Decode(bmp, d.hints)
		r.Reset()
		if err != nil || res == nil || res.GetText() == "" {
			continue
		}
		return Result{Text: res.GetText(), Format: res.GetBarcodeFormat().String()}, nil
	}
	return Result{}, ErrNotFound
}
