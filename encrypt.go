package argseal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Encryption errors.
var (
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrNotCiphertext    = errors.New("value is not ciphertext")
)

// Cipher is a raw symmetric primitive over byte slices.
type Cipher interface {
	// Encrypt encrypts plaintext and returns ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext and returns plaintext.
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Encryptor is the string-level primitive a Keyring is built from.
// One Encryptor corresponds to one secret.
type Encryptor interface {
	// Encrypt returns the armored ciphertext for plaintext.
	Encrypt(plaintext string) (string, error)

	// Decrypt returns the plaintext of an armored ciphertext.
	// It fails with ErrDecryptionFailed when the value was sealed under another key.
	Decrypt(ciphertext string) (string, error)

	// IsCiphertext reports whether value has the armored ciphertext format.
	IsCiphertext(value string) bool
}

// EncryptorFactory builds an Encryptor from a password and salt.
type EncryptorFactory func(password, salt string) (Encryptor, error)

// aesEncryptor implements AES-GCM encryption.
type aesEncryptor struct {
	gcm cipher.AEAD
}

// AES returns an AES-GCM cipher.
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func AES(key []byte) (Cipher, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("%w: must be 16, 24, or 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &aesEncryptor{gcm: gcm}, nil
}

func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Prepend nonce to ciphertext
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := e.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrCiphertextShort
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// Password key derivation parameters. Changing any of these makes previously
// sealed arguments unreadable.
const (
	pbkdf2Iterations = 20000
	derivedKeyLen    = 32

	// CiphertextPrefix marks armored ciphertext strings.
	CiphertextPrefix = "$AES$:"

	// gcm nonce + tag
	minSealedLen = 12 + 16
)

// passwordEncryptor armors an AES-256-GCM cipher whose key is derived from a password.
type passwordEncryptor struct {
	cipher Cipher
}

// FromPassword returns an Encryptor whose AES-256 key is derived from password
// and salt with PBKDF2-SHA256. The same password and salt always yield an
// Encryptor able to open the other's ciphertext.
func FromPassword(password, salt string) (Encryptor, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidKeySize)
	}

	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, derivedKeyLen, sha256.New)
	c, err := AES(key)
	if err != nil {
		return nil, err
	}

	return &passwordEncryptor{cipher: c}, nil
}

func (e *passwordEncryptor) Encrypt(plaintext string) (string, error) {
	sealed, err := e.cipher.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return CiphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *passwordEncryptor) Decrypt(ciphertext string) (string, error) {
	sealed, ok := unarmor(ciphertext)
	if !ok {
		return "", ErrNotCiphertext
	}

	plaintext, err := e.cipher.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (e *passwordEncryptor) IsCiphertext(value string) bool {
	return IsCiphertext(value)
}

// IsCiphertext reports whether value is a string in the armored ciphertext format.
// Non-string values, including nil, are never ciphertext.
func IsCiphertext(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, ok = unarmor(s)
	return ok
}

// unarmor strips the prefix and decodes the sealed bytes.
func unarmor(value string) ([]byte, bool) {
	body, ok := strings.CutPrefix(value, CiphertextPrefix)
	if !ok {
		return nil, false
	}

	sealed, err := base64.StdEncoding.DecodeString(body)
	if err != nil || len(sealed) < minSealedLen {
		return nil, false
	}
	return sealed, true
}
