package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONCodec handles JSON import/export.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier.
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the format.
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Extension returns the file extension, without the dot.
func (c *JSONCodec) Extension() string {
	return "json"
}

// Parse reads a payload from JSON. Trailing data after the document is an
// error.
func (c *JSONCodec) Parse(r io.Reader) (*Payload, error) {
	var p Payload
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrParse)
	}
	return &p, nil
}

// Export writes p as indented JSON.
func (c *JSONCodec) Export(p *Payload, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
