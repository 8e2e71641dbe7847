package credential

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "hellotodo"

// KeyringStore guarda las credenciales como un único secreto JSON en el
// keyring del sistema (Keychain, Secret Service, Credential Manager).
type KeyringStore struct {
	service string
	user    string
}

func NewKeyringStore(service, user string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service, user: user}
}

func (s *KeyringStore) Load() (map[string]string, error) {
	secret, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: keyring get: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal([]byte(secret), &values); err != nil {
		return nil, fmt.Errorf("credential: decode keyring secret: %w", err)
	}
	return values, nil
}

func (s *KeyringStore) Save(values map[string]string) error {
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("credential: encode: %w", err)
	}
	if err := keyring.Set(s.service, s.user, string(b)); err != nil {
		return fmt.Errorf("credential: keyring set: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete() error {
	err := keyring.Delete(s.service, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("credential: keyring delete: %w", err)
	}
	return nil
}
