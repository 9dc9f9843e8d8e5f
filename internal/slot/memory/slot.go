package memory

import (
	"context"
	"sync"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

// Slot keeps the serialized cart in process memory.
type Slot struct {
	mu    sync.RWMutex
	key   string
	data  []byte
	set   bool
	saves int
}

// NewSlot creates an empty in-memory slot.
func NewSlot(key string) *Slot {
	return &Slot{key: key}
}

// NewSlotWithValue creates an in-memory slot that already holds data.
func NewSlotWithValue(key string, data []byte) *Slot {
	s := NewSlot(key)
	s.data = append([]byte(nil), data...)
	s.set = true
	return s
}

// Load returns a copy of the stored value.
func (s *Slot) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return nil, domain.NotFound("cart slot", s.key)
	}
	return append([]byte(nil), s.data...), nil
}

// Save replaces the stored value.
func (s *Slot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	s.set = true
	s.saves++
	return nil
}

// Ping always succeeds.
func (s *Slot) Ping(_ context.Context) error {
	return nil
}

// Saves reports how many times Save was called.
func (s *Slot) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
