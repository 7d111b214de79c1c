package argseal

// Codec provides content-type aware marshaling.
// Sealed arguments are the ciphertext of a Codec's output, so the codec
// configured on the enqueue side must match the one on the execute side.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}
