package deploy

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrCredentialNotFound is returned when the store holds no secret.
var ErrCredentialNotFound = errors.New("deploy: credential not found")

// CredentialStore persists the deploy API key.
type CredentialStore interface {
	Get(service, user string) (string, error)
	Set(service, user, secret string) error
}

// KeyringStore keeps credentials in the operating system keyring.
type KeyringStore struct{}

func (KeyringStore) Get(service, user string) (string, error) {
	secret, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("deploy: read keyring: %w", err)
	}
	return secret, nil
}

func (KeyringStore) Set(service, user, secret string) error {
	if err := keyring.Set(service, user, secret); err != nil {
		return fmt.Errorf("deploy: write keyring: %w", err)
	}
	return nil
}
