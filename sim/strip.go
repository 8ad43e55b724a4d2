package sim

import (
	"image/color"
	"sync"
)

// Strip is an LED sink that keeps the last frame shown.
type Strip struct {
	mu     sync.Mutex
	frame  []color.RGBA
	frames int
}

func (s *Strip) WriteColors(buf []color.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = append(s.frame[:0], buf...)
	s.frames++
	return nil
}

// Frame returns a copy of the last frame shown.
func (s *Strip) Frame() []color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]color.RGBA(nil), s.frame...)
}

// Frames counts the frames shown so far.
func (s *Strip) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
