package argseal

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept from a secret's digest.
const fingerprintLen = 12

// Fingerprint identifies a secret in signals and diagnostics without exposing it.
// It is the leading hex of the secret's SHA-256 digest.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
