// Package yaml provides a YAML codec implementation.
package yaml

import (
	"gopkg.in/yaml.v3"
)

// Codec implements argseal.Codec for YAML.
type Codec struct{}

// New returns a YAML codec.
func New() *Codec {
	return &Codec{}
}

// ContentType returns the MIME type for YAML.
func (c *Codec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal decodes YAML data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
