// Package credential remembers the logged-in user between runs using the
// system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName  = "taskplanner"
	sessionKey   = "session-user"
	secretPrefix = "secret:"
)

var (
	// ErrNoSession is returned by Load when nobody is logged in.
	ErrNoSession = errors.New("no active session")
	// ErrNoSecret is returned by LoadSecret for an unknown name.
	ErrNoSecret = errors.New("secret not found")
)

// Ring is the subset of keyring.Keyring the session uses.
type Ring interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
	Remove(key string) error
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	dir := "~/.config/taskplanner/credentials"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "taskplanner", "credentials")
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("taskplanner-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Session stores the username of the logged-in user.
type Session struct {
	ring Ring
}

// NewSession returns a session backed by the system keyring.
func NewSession() (*Session, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &Session{ring: ring}, nil
}

// NewSessionWithRing returns a session backed by ring.
func NewSessionWithRing(ring Ring) *Session {
	return &Session{ring: ring}
}

// Save remembers username as the logged-in user.
func (s *Session) Save(username string) error {
	err := s.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  []byte(username),
		Label: "taskplanner session",
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the logged-in username or ErrNoSession.
func (s *Session) Load() (string, error) {
	item, err := s.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoSession
	}
	return string(item.Data), nil
}

// Clear forgets the logged-in user. Clearing an empty session succeeds.
func (s *Session) Clear() error {
	err := s.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// SaveSecret stores value under name, e.g. a mailbox password.
func (s *Session) SaveSecret(name, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   secretPrefix + name,
		Data:  []byte(value),
		Label: "taskplanner " + name,
	})
	if err != nil {
		return fmt.Errorf("saving secret %s: %w", name, err)
	}
	return nil
}

// LoadSecret returns the value stored under name or ErrNoSecret.
func (s *Session) LoadSecret(name string) (string, error) {
	item, err := s.ring.Get(secretPrefix + name)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", fmt.Errorf("loading secret %s: %w", name, err)
	}
	return string(item.Data), nil
}
