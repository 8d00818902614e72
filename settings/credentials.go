// Package settings stores per-user arbkit settings: the API keys and
// endpoints of translation providers.
//
// Settings live in the XDG data directory:
//
//	$XDG_DATA_HOME/arbkit/credentials.json  (default: ~/.local/share/arbkit/)
//
// The file is a JSON object keyed by provider ID. Its permissions are 0600.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. ARBKIT_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName = "arbkit"
	fileName    = "credentials.json"
)

// Credential is what is stored for one provider.
type Credential struct {
	// Key is the API key.
	Key string `json:"key,omitempty"`
	// BaseURL overrides the provider's endpoint (custom-openai).
	BaseURL string `json:"baseUrl,omitempty"`
	// Model is the model used when neither flag nor config names one.
	Model string `json:"model,omitempty"`
}

// Store holds the credentials of every provider, keyed by provider ID.
type Store struct {
	path  string
	creds map[string]*Credential
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the arbkit data directory, honouring $XDG_DATA_HOME.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// DefaultPath returns the credentials file path.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Open reads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, creds: make(map[string]*Credential)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.creds == nil {
		s.creds = make(map[string]*Credential)
	}
	return s, nil
}

// OpenDefault opens the store at DefaultPath.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Save writes the store with 0600 permissions, creating its directory.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Get returns the credential for a provider, or nil.
func (s *Store) Get(providerID string) *Credential {
	return s.creds[providerID]
}

// Set stores c for a provider, replacing any previous entry.
func (s *Store) Set(providerID string, c Credential) {
	s.creds[providerID] = &c
}

// Remove deletes a provider's credential and reports whether one existed.
func (s *Store) Remove(providerID string) bool {
	if _, ok := s.creds[providerID]; !ok {
		return false
	}
	delete(s.creds, providerID)
	return true
}

// APIKey returns the stored key for a provider, or "".
func (s *Store) APIKey(providerID string) string {
	if c := s.creds[providerID]; c != nil {
		return c.Key
	}
	return ""
}

// Providers returns the IDs with a stored credential, sorted.
func (s *Store) Providers() []string {
	ids := make([]string, 0, len(s.creds))
	for id := range s.creds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
