// Package credential persists the OAuth token used by the Gmail API source.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

const (
	serviceName = "gmailfilter2csv"
	tokenKey    = "gmail-oauth-token"
)

// ErrTokenNotFound is returned by Load when no token has been saved yet.
var ErrTokenNotFound = errors.New("oauth token not found")

// TokenStore loads and saves an OAuth token.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// KeyringStore keeps the token in the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an open keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// OpenKeyring returns a keyring using the first available system backend,
// falling back to an encrypted file store in fileDir.
func OpenKeyring(fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("gmailfilter2csv-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Load returns the stored token, or ErrTokenNotFound.
func (s *KeyringStore) Load() (*oauth2.Token, error) {
	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	return decode(item.Data)
}

// Save stores token as JSON, replacing any earlier token.
func (s *KeyringStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:         tokenKey,
		Data:        data,
		Label:       "Gmail filter export token",
		Description: "OAuth token for reading Gmail filters",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// FileStore keeps the token as JSON in a file.
type FileStore struct {
	Path string
}

// Load reads the token file, or returns ErrTokenNotFound if it does not exist.
func (s FileStore) Load() (*oauth2.Token, error) {
	// #nosec G304 -- token path provided via config.
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return decode(data)
}

// Save writes the token file with owner-only permissions.
func (s FileStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

func decode(data []byte) (*oauth2.Token, error) {
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return token, nil
}
