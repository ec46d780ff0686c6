package workers

import (
	"context"
	"sync"
)

// stopper lets Shutdown cancel a Run that was started with a context the
// worker does not own.
type stopper struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func (s *stopper) bind(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	if s.stopped {
		s.cancel()
	}
	return ctx
}

func (s *stopper) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}
