package argseal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// passwordSalt is mixed into every derived key. Do not change: doing so makes
// every sealed argument already sitting in a queue unreadable.
const passwordSalt = "3270e054"

// keyset is one immutable generation of configured secrets.
type keyset struct {
	encryptors   []Encryptor
	fingerprints []string
}

func (ks *keyset) active() Encryptor {
	if len(ks.encryptors) == 0 {
		return nil
	}
	return ks.encryptors[0]
}

// Keyring encrypts with the active secret and decrypts with any configured secret.
//
// Keyrings are safe for concurrent use. SetSecrets replaces the whole secret
// list at once; readers never observe a partially updated list.
//
// A Keyring without explicit secrets reads EnvSecret on first use. When that is
// empty too, the keyring runs in pass-through mode: Encrypt returns its input and
// Decrypt returns anything that is not ciphertext unchanged. SignalSecretMissing
// is emitted once when pass-through mode starts.
type Keyring struct {
	factory  EncryptorFactory
	keys     atomic.Pointer[keyset]
	warnOnce sync.Once
}

// keyringConfig collects options before the keyring derives any key.
type keyringConfig struct {
	factory  EncryptorFactory
	secrets  []string
	explicit bool
}

// KeyringOption configures a Keyring.
type KeyringOption func(*keyringConfig) error

// WithSecrets sets the secret list. The first secret is active. An empty list
// selects pass-through mode instead of reading the environment.
func WithSecrets(secrets ...string) KeyringOption {
	return func(c *keyringConfig) error {
		c.secrets = append([]string(nil), secrets...)
		c.explicit = true
		return nil
	}
}

// WithEncryptorFactory replaces FromPassword as the cipher primitive.
func WithEncryptorFactory(factory EncryptorFactory) KeyringOption {
	return func(c *keyringConfig) error {
		if factory == nil {
			return fmt.Errorf("nil encryptor factory")
		}
		c.factory = factory
		return nil
	}
}

// NewKeyring creates a Keyring. Options may be given in any order; keys are
// derived once all of them have been applied.
func NewKeyring(opts ...KeyringOption) (*Keyring, error) {
	cfg := keyringConfig{factory: FromPassword}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	k := &Keyring{factory: cfg.factory}
	if cfg.explicit {
		if err := k.SetSecrets(cfg.secrets...); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// SetSecrets atomically replaces the secret list. Calling it with no secrets
// switches the keyring to pass-through mode.
func (k *Keyring) SetSecrets(secrets ...string) error {
	ks, err := k.build(secrets)
	if err != nil {
		return err
	}

	k.keys.Store(ks)
	if len(ks.encryptors) == 0 {
		k.warnPassThrough()
		return nil
	}

	emitSecretsRotated(context.Background(), ks.fingerprints[0], len(ks.encryptors))
	return nil
}

// build derives one encryptor per secret.
func (k *Keyring) build(secrets []string) (*keyset, error) {
	ks := &keyset{
		encryptors:   make([]Encryptor, 0, len(secrets)),
		fingerprints: make([]string, 0, len(secrets)),
	}
	for i, secret := range secrets {
		enc, err := k.factory(secret, passwordSalt)
		if err != nil {
			return nil, fmt.Errorf("secret %d: %w", i, err)
		}
		ks.encryptors = append(ks.encryptors, enc)
		ks.fingerprints = append(ks.fingerprints, Fingerprint(secret))
	}
	return ks, nil
}

// load returns the current keyset, reading the environment on first use.
func (k *Keyring) load() *keyset {
	if ks := k.keys.Load(); ks != nil {
		return ks
	}

	var secrets []string
	if cfg, err := LoadConfig(); err == nil {
		secrets = cfg.Secrets()
	}

	ks, err := k.build(secrets)
	if err != nil {
		ks = &keyset{}
	}
	if !k.keys.CompareAndSwap(nil, ks) {
		return k.keys.Load()
	}
	if len(ks.encryptors) == 0 {
		k.warnPassThrough()
	}
	return ks
}

func (k *Keyring) warnPassThrough() {
	k.warnOnce.Do(func() {
		emitSecretMissing(context.Background(), EnvSecret)
	})
}

// Load resolves the secret list now instead of on first use, so a missing
// secret is reported at startup.
func (k *Keyring) Load() {
	k.load()
}

// PassThrough reports whether no secret is configured.
func (k *Keyring) PassThrough() bool {
	return len(k.load().encryptors) == 0
}

// Fingerprints identifies the configured secrets, active first.
func (k *Keyring) Fingerprints() []string {
	ks := k.load()
	out := make([]string, len(ks.fingerprints))
	copy(out, ks.fingerprints)
	return out
}

// Encrypt seals plaintext with the active secret.
// In pass-through mode it returns plaintext unchanged.
func (k *Keyring) Encrypt(plaintext string) (string, error) {
	enc := k.load().active()
	if enc == nil {
		return plaintext, nil
	}
	return enc.Encrypt(plaintext)
}

// Decrypt opens ciphertext with the first configured secret able to.
// Values that are not ciphertext are returned unchanged. When no secret
// matches, the error wraps ErrInvalidSecret.
func (k *Keyring) Decrypt(ciphertext string) (string, error) {
	ks := k.load()
	if !k.isCiphertext(ks, ciphertext) {
		return ciphertext, nil
	}

	for _, enc := range ks.encryptors {
		plaintext, err := enc.Decrypt(ciphertext)
		if err == nil {
			return plaintext, nil
		}
		// Not the right key, try the next one
	}

	return "", fmt.Errorf("%w (tried %d secrets)", ErrInvalidSecret, len(ks.encryptors))
}

// IsCiphertext reports whether value is a ciphertext string.
func (k *Keyring) IsCiphertext(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return k.isCiphertext(k.load(), s)
}

func (k *Keyring) isCiphertext(ks *keyset, value string) bool {
	if enc := ks.active(); enc != nil {
		return enc.IsCiphertext(value)
	}
	return IsCiphertext(value)
}
