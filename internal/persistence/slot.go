package persistence

import (
	"context"
	"errors"
	"sync"
)

// DefaultSlotName is the slot used when none is configured.
const DefaultSlotName = "graph_autosave"

// ErrSlotEmpty is returned by Load when nothing has been saved yet.
var ErrSlotEmpty = errors.New("persistence: slot is empty")

// Slot stores a single payload under a fixed name.
type Slot interface {
	// Name returns the slot name, for logs and metrics.
	Name() string

	// Load returns the stored payload, or ErrSlotEmpty.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored payload.
	Save(ctx context.Context, data []byte) error

	// Clear removes the stored payload. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

// MemorySlot keeps the payload in process memory.
type MemorySlot struct {
	name string

	mu   sync.Mutex
	data []byte
	set  bool
}

// NewMemorySlot creates an empty in-memory slot.
func NewMemorySlot(name string) *MemorySlot {
	return &MemorySlot{name: name}
}

// Name returns the slot name.
func (s *MemorySlot) Name() string { return s.name }

// Load returns a copy of the stored payload.
func (s *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

// Save stores a copy of data.
func (s *MemorySlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}

// Clear forgets the stored payload.
func (s *MemorySlot) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.set = nil, false
	return nil
}
