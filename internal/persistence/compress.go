package persistence

import (
	"bytes"
	"context"
	"fmt"

	"github.com/golang/snappy"
)

// compressedMagic marks payloads written by a compressed slot. Payloads
// without it are returned as stored, so slots saved before compression was
// enabled keep loading.
var compressedMagic = []byte("GSZ\x01")

// CompressedSlot wraps a Slot with snappy block compression.
type CompressedSlot struct {
	Slot
}

// Compressed wraps inner.
func Compressed(inner Slot) *CompressedSlot {
	return &CompressedSlot{Slot: inner}
}

// Load reads and, if needed, decompresses the payload.
func (s *CompressedSlot) Load(ctx context.Context) ([]byte, error) {
	raw, err := s.Slot.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(raw, compressedMagic) {
		return raw, nil
	}
	data, err := snappy.Decode(nil, raw[len(compressedMagic):])
	if err != nil {
		return nil, fmt.Errorf("decompressing slot %s: %w", s.Name(), err)
	}
	return data, nil
}

// Save compresses data before handing it to the wrapped slot.
func (s *CompressedSlot) Save(ctx context.Context, data []byte) error {
	encoded := snappy.Encode(nil, data)
	out := make([]byte, 0, len(compressedMagic)+len(encoded))
	out = append(out, compressedMagic...)
	out = append(out, encoded...)
	return s.Slot.Save(ctx, out)
}
