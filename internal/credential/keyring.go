// Package credential keeps the backend bearer token in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"github.com/mobilize-transporte/avisos/internal/config"
)

const (
	serviceName = "avisos"
	// TokenKey is the keyring item holding the bearer token.
	TokenKey = "token"
	// TokenEnv overrides the stored token.
	TokenEnv = "AVISOS_TOKEN"
)

// Store reads and writes the bearer token.
type Store struct {
	open func() (keyring.Keyring, error)

	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewStore returns a Store backed by the system keyring, falling back to an
// encrypted file under {config_dir}/credentials.
func NewStore() *Store {
	return &Store{open: openKeyring}
}

// NewStoreWithKeyring returns a Store backed by ring.
func NewStoreWithKeyring(ring keyring.Keyring) *Store {
	return &Store{open: func() (keyring.Keyring, error) { return ring, nil }}
}

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(config.Get("config_dir", "~/.config/avisos"), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("avisos-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func (s *Store) keyring() (keyring.Keyring, error) {
	s.once.Do(func() {
		s.ring, s.err = s.open()
	})
	return s.ring, s.err
}

// Token returns the bearer token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		return token, nil
	}
	ring, err := s.keyring()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", TokenKey, err)
	}
	return string(item.Data), nil
}

// SetToken stores token.
func (s *Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	ring, err := s.keyring()
	if err != nil {
		return err
	}
	err = ring.Set(keyring.Item{
		Key:         TokenKey,
		Data:        []byte(token),
		Label:       "avisos backend token",
		Description: "Bearer token for the transport backend",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", TokenKey, err)
	}
	return nil
}

// ClearToken removes the stored token. Clearing an absent token succeeds.
func (s *Store) ClearToken() error {
	ring, err := s.keyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(TokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", TokenKey, err)
	}
	return nil
}
