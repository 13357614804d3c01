package scanner

import (
	"context"
	"fmt"
	"image"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// MJPEGSource reads frames from a multipart/x-mixed-replace camera stream,
// the format served by IP cameras and phone webcam apps.
type MJPEGSource struct {
	url    string
	client *http.Client

	mu   sync.Mutex
	body interface{ Close() error }
}

// NewMJPEGSource creates a source for the stream at url.
func NewMJPEGSource(url string, client *http.Client) *MJPEGSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &MJPEGSource{url: url, client: client}
}

func (s *MJPEGSource) Frames(ctx context.Context) (<-chan image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("scanner: build camera request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanner: open camera stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("scanner: camera stream returned %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("scanner: camera stream is not multipart (%q)", resp.Header.Get("Content-Type"))
	}
	// Some cameras advertise the boundary with its leading dashes.
	boundary := strings.TrimPrefix(params["boundary"], "--")

	s.mu.Lock()
	s.body = resp.Body
	s.mu.Unlock()

	frames := make(chan image.Image, 1)
	go func() {
		defer close(frames)
		defer resp.Body.Close()

		mr := multipart.NewReader(resp.Body, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[scanner] camera stream: %v", err)
				}
				return
			}
			img, err := imaging.Decode(part)
			part.Close()
			if err != nil {
				continue
			}
			select {
			case frames <- img:
			case <-ctx.Done():
				return
			default:
				// consumer is still decoding the previous frame
			}
		}
	}()
	return frames, nil
}

// Close drops the current stream connection, if any.
func (s *MJPEGSource) Close() error {
	s.mu.Lock()
	body := s.body
	s.body = nil
	s.mu.Unlock()
	if body == nil {
		return nil
	}
	return body.Close()
}
