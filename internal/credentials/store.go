// Package credentials keeps provider API keys in a dotenv file.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

// Store is a dotenv-backed shortener.CredentialStore.
// Lookups read an in-memory snapshot; nothing touches the environment or the
// file after Load.
type Store struct {
	path string

	mu        sync.RWMutex
	file      map[string]string // persisted by Save
	overrides map[string]string // from the environment, never persisted
}

var _ shortener.CredentialStore = (*Store)(nil)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	lookupEnv func(string) (string, bool)
}

// WithEnv sets the environment lookup used to override file values.
// Defaults to os.LookupEnv; pass nil to ignore the environment.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		o.lookupEnv = lookup
	}
}

// Load reads the dotenv file at path. A missing file yields an empty store.
// Non-empty environment variables named like a credential key take
// precedence over the file.
func Load(path string, opts ...Option) (*Store, error) {
	o := loadOptions{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
		}
		values = make(map[string]string)
	}

	overrides := make(map[string]string)
	if o.lookupEnv != nil {
		for _, s := range shortener.Services {
			if v, ok := o.lookupEnv(s.CredentialKey()); ok && strings.TrimSpace(v) != "" {
				overrides[s.CredentialKey()] = v
			}
		}
	}

	return &Store{path: path, file: values, overrides: overrides}, nil
}

// Path returns the file the store was loaded from and saves to.
func (s *Store) Path() string { return s.path }

// Credential returns the API key for service.
func (s *Store) Credential(service shortener.ServiceID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := service.CredentialKey()
	key, ok := s.overrides[name]
	if !ok {
		key = s.file[name]
	}
	if key = strings.TrimSpace(key); key == "" {
		return "", false
	}
	return key, true
}

// Set stores key for service in memory and drops any environment override
// for it. Call Save to persist it. An empty key clears the credential.
func (s *Store) Set(service shortener.ServiceID, key string) error {
	if !service.Valid() {
		return fmt.Errorf("unknown service %s", service)
	}
	if strings.ContainsAny(key, "\r\n") {
		return errors.New("api key must be a single line")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, service.CredentialKey())
	s.file[service.CredentialKey()] = strings.TrimSpace(key)
	return nil
}

// Missing lists the services that have no credential, in display order.
func (s *Store) Missing() []shortener.ServiceID {
	var missing []shortener.ServiceID
	for _, svc := range shortener.Services {
		if _, ok := s.Credential(svc); !ok {
			missing = append(missing, svc)
		}
	}
	return missing
}

// Save writes the file values back to the dotenv file, creating its
// directory. Unrelated keys that were in the file are preserved; environment
// overrides are not written.
func (s *Store) Save() error {
	s.mu.RLock()
	snapshot := make(map[string]string, len(s.file))
	for k, v := range s.file {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	if err := restrictFile(s.path); err != nil {
		return fmt.Errorf("failed to prepare credentials file %s: %w", s.path, err)
	}
	if err := godotenv.Write(snapshot, s.path); err != nil {
		return fmt.Errorf("failed to save credentials to %s: %w", s.path, err)
	}
	return nil
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// restrictFile creates path if needed and limits it to owner read/write
// before any key is written to it.
func restrictFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}
