package document

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export. It uses the same field names as
// the JSON payload.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier.
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the format.
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Extension returns the file extension, without the dot.
func (c *YAMLCodec) Extension() string {
	return "yaml"
}

// Parse reads a payload from YAML.
func (c *YAMLCodec) Parse(r io.Reader) (*Payload, error) {
	var p Payload
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &p, nil
}

// Export writes p as YAML.
func (c *YAMLCodec) Export(p *Payload, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
