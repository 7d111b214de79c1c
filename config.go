package argseal

import (
	"errors"
	"strings"

	"github.com/joeshaw/envdecode"
)

// EnvSecret names the environment variable holding whitespace-separated secrets.
// The first secret encrypts, all of them are tried when decrypting.
const EnvSecret = "ENCRYPTED_ARGS_SECRET"

// Config holds settings read from the environment.
type Config struct {
	Secret string `env:"ENCRYPTED_ARGS_SECRET"`
}

// LoadConfig reads Config from the environment. Unset variables are not an error.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	return cfg, nil
}

// Secrets splits the configured secret on whitespace.
func (c Config) Secrets() []string {
	return strings.Fields(c.Secret)
}
