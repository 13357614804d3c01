package scanner

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FrameSource delivers camera frames until ctx is cancelled or the stream ends.
type FrameSource interface {
	Frames(ctx context.Context) (<-chan image.Image, error)
	Close() error
}

// Detection is a barcode read by the continuous scanning loop.
type Detection struct {
	Text       string
	Format     string
	ObservedAt time.Time
}

// Handler receives detections. It runs on the decode loop and must not block.
type Handler func(Detection)

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// set while Release tears the session down; the source stays owned by
	// this session until it is closed
	releasing bool
	// acquire requested during teardown, started once the source is closed
	next    Handler
	nextCtx context.Context
}

// Surface owns the single continuous scanning session of a register.
type Surface struct {
	source  FrameSource
	decoder Decoder
	fps     float64
	now     func() time.Time

	mu      sync.Mutex
	current *session
	last    image.Image
}

// NewSurface creates a surface decoding at most fps frames per second.
// fps <= 0 decodes every frame.
func NewSurface(source FrameSource, decoder Decoder, fps float64) *Surface {
	return &Surface{
		source:  source,
		decoder: decoder,
		fps:     fps,
		now:     time.Now,
	}
}

// Acquire starts scanning. It is a no-op while a session is already active or
// still starting. Called while a session is being released, the new session
// starts as soon as the old one has closed the camera. The session outlives
// ctx's cancellation; only Release ends it.
func (s *Surface) Acquire(ctx context.Context, handler Handler) error {
	if s.source == nil {
		return errors.New("scanner: no camera configured")
	}
	if handler == nil {
		return errors.New("scanner: nil handler")
	}

	s.mu.Lock()
	if cur := s.current; cur != nil {
		if cur.releasing {
			cur.next, cur.nextCtx = handler, ctx
		}
		s.mu.Unlock()
		return nil
	}
	sess := s.begin(ctx)
	s.mu.Unlock()

	return s.open(sess, handler)
}

// begin registers a new session. s.mu must be held.
func (s *Surface) begin(ctx context.Context) *session {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{ctx: loopCtx, cancel: cancel, done: make(chan struct{})}
	s.current = sess
	return sess
}

func (s *Surface) open(sess *session, handler Handler) error {
	frames, err := s.source.Frames(sess.ctx)
	if err != nil {
		s.detach(sess)
		sess.cancel()
		close(sess.done)
		return err
	}

	go s.run(sess.ctx, sess, frames, handler)
	return nil
}

// Release stops the active session, waits for its loop to exit and closes the
// camera. Calling it with no session, or more than once, is harmless; a
// Release during teardown also drops a pending Acquire.
func (s *Surface) Release() {
	s.mu.Lock()
	sess := s.current
	if sess == nil || sess.releasing {
		if sess != nil {
			sess.next, sess.nextCtx = nil, nil
		}
		s.mu.Unlock()
		return
	}
	sess.releasing = true
	s.mu.Unlock()

	sess.cancel()
	<-sess.done
	if err := s.source.Close(); err != nil {
		log.Printf("[scanner] close source: %v", err)
	}

	s.mu.Lock()
	next, nextCtx := sess.next, sess.nextCtx
	var restart *session
	if s.current == sess {
		s.current = nil
		if next != nil {
			restart = s.begin(nextCtx)
		}
	}
	s.mu.Unlock()

	if restart != nil {
		if err := s.open(restart, next); err != nil {
			log.Printf("[scanner] restart failed: %v", err)
		}
	}
}

// Active reports whether a session is running or starting.
func (s *Surface) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && (!s.current.releasing || s.current.next != nil)
}

// LastFrame returns the most recent frame seen by the loop, or nil.
func (s *Surface) LastFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// detach forgets a session that ended on its own. A session being released
// is left for Release to clear.
func (s *Surface) detach(sess *session) {
	s.mu.Lock()
	if s.current == sess && !sess.releasing {
		s.current = nil
	}
	s.mu.Unlock()
}

func (s *Surface) run(ctx context.Context, sess *session, frames <-chan image.Image, handler Handler) {
	defer close(sess.done)

	limit := rate.Inf
	if s.fps > 0 {
		limit = rate.Limit(s.fps)
	}
	limiter := rate.NewLimiter(limit, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				log.Printf("[scanner] camera stream ended")
				s.detach(sess)
				return
			}
			s.mu.Lock()
			s.last = frame
			s.mu.Unlock()

			if !limiter.Allow() {
				continue
			}
			res, err := s.decoder.Decode(frame)
			if err != nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			handler(Detection{Text: res.Text, Format: res.Format, ObservedAt: s.now()})
		}
	}
}
