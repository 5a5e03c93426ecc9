package secret

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
)

// EnvSource reads secrets from environment variables, accepting either raw
// or base64-encoded values.
type EnvSource struct{}

func NewEnvSource() *EnvSource { return &EnvSource{} }

var ErrSecretNotFound = errors.New("secret_not_found")

var _ Source = (*EnvSource)(nil)

func (s *EnvSource) Get(_ context.Context, name string) (Secret, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, ErrSecretNotFound
	}

	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return []byte(v), nil
	}

	return b, nil
}
