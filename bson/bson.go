// Package bson provides a BSON codec implementation.
//
// BSON documents must be top-level objects, so values are wrapped in a
// single-field document {"v": value}. Embedded documents decode as bson.M
// and arrays as []any when the target is an interface.
package bson

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

// valueKey names the wrapper field.
const valueKey = "v"

// Codec implements argseal.Codec for BSON.
type Codec struct {
	registry *bsoncodec.Registry
}

// New returns a BSON codec.
func New() *Codec {
	reg := bson.NewRegistry()
	reg.RegisterTypeMapEntry(bson.TypeEmbeddedDocument, reflect.TypeOf(bson.M{}))
	reg.RegisterTypeMapEntry(bson.TypeArray, reflect.TypeOf([]any{}))
	return &Codec{registry: reg}
}

// ContentType returns the MIME type for BSON.
func (c *Codec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a wrapped BSON document.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return bson.MarshalWithRegistry(c.registry, bson.D{{Key: valueKey, Value: v}})
}

// Unmarshal decodes a wrapped BSON document into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return err
	}

	val, err := raw.LookupErr(valueKey)
	if err != nil {
		return fmt.Errorf("missing %q field: %w", valueKey, err)
	}
	return val.UnmarshalWithRegistry(c.registry, v)
}
