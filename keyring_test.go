package argseal

import (
	"errors"
	"sync"
	"testing"
)

// testKeyring returns a keyring holding secrets.
func testKeyring(t *testing.T, secrets ...string) *Keyring {
	t.Helper()
	k, err := NewKeyring(WithSecrets(secrets...))
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}
	return k
}

func TestKeyring_RoundTrip(t *testing.T) {
	k := testKeyring(t, "secret")

	sealed, err := k.Encrypt(`"foo"`)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if !k.IsCiphertext(sealed) {
		t.Fatalf("Encrypt() = %q, want ciphertext", sealed)
	}

	opened, err := k.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if opened != `"foo"` {
		t.Errorf("Decrypt() = %q, want %q", opened, `"foo"`)
	}
}

func TestKeyring_Rotation(t *testing.T) {
	old := testKeyring(t, "old-secret")
	sealed, _ := old.Encrypt("payload")

	rotated := testKeyring(t, "new-secret", "old-secret")
	opened, err := rotated.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() with retired secret error: %v", err)
	}
	if opened != "payload" {
		t.Errorf("Decrypt() = %q, want %q", opened, "payload")
	}

	// New values are sealed with the active secret only
	fresh, _ := rotated.Encrypt("payload")
	if _, err := testKeyring(t, "new-secret").Decrypt(fresh); err != nil {
		t.Errorf("active secret should open fresh ciphertext: %v", err)
	}
	if _, err := old.Decrypt(fresh); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("retired secret should not open fresh ciphertext, got %v", err)
	}
}

func TestKeyring_InvalidSecret(t *testing.T) {
	sealed, _ := testKeyring(t, "secret").Encrypt("payload")

	_, err := testKeyring(t, "other", "another").Decrypt(sealed)
	if !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestKeyring_DecryptPlain(t *testing.T) {
	k := testKeyring(t, "secret")
	got, err := k.Decrypt("plain value")
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if got != "plain value" {
		t.Errorf("Decrypt() = %q, want input unchanged", got)
	}
}

func TestKeyring_PassThrough(t *testing.T) {
	k := testKeyring(t)
	if !k.PassThrough() {
		t.Fatal("keyring without secrets should be in pass-through mode")
	}

	got, err := k.Encrypt(`"foo"`)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if got != `"foo"` {
		t.Errorf("Encrypt() = %q, want input unchanged", got)
	}

	// Ciphertext from elsewhere cannot be opened
	sealed, _ := testKeyring(t, "secret").Encrypt("payload")
	if _, err := k.Decrypt(sealed); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestKeyring_FromEnvironment(t *testing.T) {
	t.Setenv(EnvSecret, "  first   second ")

	k, err := NewKeyring()
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}

	fps := k.Fingerprints()
	if len(fps) != 2 {
		t.Fatalf("Fingerprints() length = %d, want 2", len(fps))
	}
	if fps[0] != Fingerprint("first") || fps[1] != Fingerprint("second") {
		t.Errorf("Fingerprints() = %v, want first then second", fps)
	}
}

func TestKeyring_EmptyEnvironment(t *testing.T) {
	t.Setenv(EnvSecret, "")

	k, err := NewKeyring()
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}
	k.Load()
	if !k.PassThrough() {
		t.Error("empty environment should select pass-through mode")
	}
}

func TestKeyring_ExplicitSecretsWinOverEnvironment(t *testing.T) {
	t.Setenv(EnvSecret, "from-env")

	k := testKeyring(t, "explicit")
	if fps := k.Fingerprints(); len(fps) != 1 || fps[0] != Fingerprint("explicit") {
		t.Errorf("Fingerprints() = %v, want explicit secret only", fps)
	}
}

func TestKeyring_SetSecrets(t *testing.T) {
	k := testKeyring(t)

	if err := k.SetSecrets("secret"); err != nil {
		t.Fatalf("SetSecrets() error: %v", err)
	}
	if k.PassThrough() {
		t.Error("SetSecrets() should leave pass-through mode")
	}

	if err := k.SetSecrets(); err != nil {
		t.Fatalf("SetSecrets() error: %v", err)
	}
	if !k.PassThrough() {
		t.Error("SetSecrets() with no secrets should enter pass-through mode")
	}
}

func TestKeyring_SetSecretsFailureKeepsCurrent(t *testing.T) {
	k := testKeyring(t, "secret")

	if err := k.SetSecrets("ok", ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if fps := k.Fingerprints(); len(fps) != 1 || fps[0] != Fingerprint("secret") {
		t.Errorf("failed SetSecrets() should keep previous secrets, got %v", fps)
	}
}

func TestKeyring_ConcurrentRotation(t *testing.T) {
	k := testKeyring(t, "a", "b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = k.SetSecrets("a", "b")
			} else {
				_ = k.SetSecrets("b", "a")
			}
		}()
		go func() {
			defer wg.Done()
			sealed, err := k.Encrypt("payload")
			if err != nil {
				t.Errorf("Encrypt() error: %v", err)
				return
			}
			if _, err := k.Decrypt(sealed); err != nil {
				t.Errorf("Decrypt() error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestWithEncryptorFactory(t *testing.T) {
	if _, err := NewKeyring(WithEncryptorFactory(nil)); err == nil {
		t.Error("expected error for nil factory")
	}

	calls := 0
	factory := func(password, salt string) (Encryptor, error) {
		calls++
		if salt != passwordSalt {
			t.Errorf("salt = %q, want %q", salt, passwordSalt)
		}
		return FromPassword(password, salt)
	}

	k, err := NewKeyring(WithEncryptorFactory(factory), WithSecrets("a", "b"))
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2", calls)
	}
	if k.PassThrough() {
		t.Error("keyring should hold secrets")
	}
}

func TestWithEncryptorFactory_AfterSecrets(t *testing.T) {
	var used []string
	factory := func(password, salt string) (Encryptor, error) {
		used = append(used, password)
		return FromPassword(password, salt)
	}

	k, err := NewKeyring(WithSecrets("a", "b"), WithEncryptorFactory(factory))
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}
	if len(used) != 2 || used[0] != "a" || used[1] != "b" {
		t.Errorf("factory saw %v, want [a b]", used)
	}
	if got := k.Fingerprints(); len(got) != 2 || got[0] != Fingerprint("a") {
		t.Errorf("Fingerprints() = %v", got)
	}
}

func TestNewKeyring_LastSecretsWin(t *testing.T) {
	k, err := NewKeyring(WithSecrets("old"), WithSecrets("new"))
	if err != nil {
		t.Fatalf("NewKeyring() error: %v", err)
	}
	if got := k.Fingerprints(); len(got) != 1 || got[0] != Fingerprint("new") {
		t.Errorf("Fingerprints() = %v, want [%s]", got, Fingerprint("new"))
	}
}
