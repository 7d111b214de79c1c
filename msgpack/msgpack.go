// Package msgpack provides a MessagePack codec implementation.
//
// Sealed arguments are binary inside the ciphertext, so MessagePack keeps them
// smaller than JSON for large argument trees.
package msgpack

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Codec implements argseal.Codec for MessagePack.
type Codec struct{}

// New returns a MessagePack codec.
func New() *Codec {
	return &Codec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *Codec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
