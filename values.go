package argseal

import (
	argjson "github.com/zoobzio/argseal/json"
)

// Values converts argument values to and from sealed strings.
//
// A value is serialized with the configured Codec and the result encrypted with
// the Keyring. Decode reverses it. Both directions are idempotent: Encode leaves
// ciphertext alone and Decode leaves anything that is not ciphertext alone.
type Values struct {
	keyring *Keyring
	codec   Codec
}

// NewValues creates a Values over keyring. A nil codec selects JSON.
func NewValues(keyring *Keyring, codec Codec) *Values {
	if codec == nil {
		codec = argjson.New()
	}
	return &Values{keyring: keyring, codec: codec}
}

// Keyring returns the keyring values are sealed with.
func (v *Values) Keyring() *Keyring {
	return v.keyring
}

// Codec returns the codec values are serialized with.
func (v *Values) Codec() Codec {
	return v.codec
}

// Encode seals value. nil stays nil and ciphertext is returned as is.
// In pass-through mode the original value is returned, not its serialized form.
func (v *Values) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if v.keyring.IsCiphertext(value) {
		return value, nil
	}

	data, err := v.codec.Marshal(value)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}

	plaintext := string(data)
	sealed, err := v.keyring.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	if sealed == plaintext {
		return value, nil
	}
	return sealed, nil
}

// Decode opens a sealed value. Anything that is not a ciphertext string,
// including nil and non-strings, is returned unchanged. A ciphertext no
// configured secret can open fails with ErrInvalidSecret.
func (v *Values) Decode(value any) (any, error) {
	s, ok := value.(string)
	if !ok || !v.keyring.IsCiphertext(s) {
		return value, nil
	}

	plaintext, err := v.keyring.Decrypt(s)
	if err != nil {
		return nil, err
	}

	var out any
	if err := v.codec.Unmarshal([]byte(plaintext), &out); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	return out, nil
}
