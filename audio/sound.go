package audio

import (
	"context"
	"sync"

	"github.com/gopxl/beep"
)

// Sound is a handle returned by Cache.Load. The handle exists before its
// audio data does; Play silently skips sounds that are not ready yet.
type Sound struct {
	url   string
	ready chan struct{}

	mu     sync.RWMutex
	buffer *beep.Buffer
	err    error
}

// NewSound returns an empty handle for url, loaded later by finish.
func NewSound(url string) *Sound {
	return &Sound{url: url, ready: make(chan struct{})}
}

func (s *Sound) URL() string { return s.url }

func (s *Sound) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer != nil
}

func (s *Sound) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Wait blocks until loading finished, successfully or not.
func (s *Sound) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sound) data() *beep.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

func (s *Sound) finish(buf *beep.Buffer, err error) {
	s.mu.Lock()
	s.buffer = buf
	s.err = err
	s.mu.Unlock()
	close(s.ready)
}
