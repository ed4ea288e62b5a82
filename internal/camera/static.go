package camera

import (
	"context"
	"image"
	"sync"
)

// StaticSource is an in-memory frame source used in tests and demos.
// It cycles through a fixed set of frames and can inject failures.
type StaticSource struct {
	mu      sync.Mutex
	frames  []image.Image
	errs    []error // consumed before frames, one per Capture call
	next    int
	opened  bool
	closed  int
	OpenErr error // returned by Open when set
}

// NewStaticSource creates a source cycling through the given frames.
func NewStaticSource(frames ...image.Image) *StaticSource {
	return &StaticSource{frames: frames}
}

// FailNext queues a transient capture error for an upcoming Capture call.
func (s *StaticSource) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *StaticSource) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return s.OpenErr
	}
	s.opened = true
	return nil
}

func (s *StaticSource) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, &CaptureError{Err: err}
	}

	if len(s.frames) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
	}

	frame := s.frames[s.next%len(s.frames)]
	s.next++
	return frame, nil
}

func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// CloseCount reports how many times Close was called.
func (s *StaticSource) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
